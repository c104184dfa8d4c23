package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/dispatch/core/cookie"
	"github.com/dmitrymomot/dispatch/core/logger"
	"github.com/dmitrymomot/dispatch/core/response"
	"github.com/dmitrymomot/dispatch/core/router"
	"github.com/dmitrymomot/dispatch/core/session"
	"github.com/dmitrymomot/dispatch/core/storage"
	"github.com/dmitrymomot/dispatch/core/view"
)

// HandlerFunc handles a matched route. args holds the bound parameter values
// in the order the route template declares them.
type HandlerFunc func(c *Context, args ...any) error

// FilterFunc runs before or after handlers. method and path are the effective
// method and the path as seen by handlers.
type FilterFunc func(c *Context, method, path string) error

// ParamFilterFunc runs for a matched route parameter with its bound value.
type ParamFilterFunc func(c *Context, value any) error

// ErrorHandlerFunc shapes the response for an error code.
type ErrorHandlerFunc func(c *Context, code int, message string) error

type filter struct {
	scope Scope
	fn    FilterFunc
}

// Dispatcher matches requests to routes and runs them through bindings and filters.
//
// Routes, bindings, filters and error handlers are registered during startup.
// The dispatcher seals itself on the first dispatch (or an explicit Seal); after
// that it is read-only and safe for concurrent use, and registration panics.
type Dispatcher struct {
	cfg      Config
	basePath string
	logger   *slog.Logger

	table         *router.Table[HandlerFunc]
	bindings      map[string]*binding
	paramFilters  map[string][]ParamFilterFunc
	before        []filter
	after         []filter
	errorHandlers map[int]ErrorHandlerFunc

	store     session.Store
	spool     storage.Spool
	renderer  view.Renderer
	cookies   *cookie.Manager
	observers []Observer

	sealOnce sync.Once
	sealErr  error
}

// New creates a Dispatcher. Defaults: discard logger, in-memory session store,
// local body spool in cfg.BodyDir, html/template renderer when
// cfg.ViewsDirectory is set, cookie manager signing with cfg.CookieSecret.
// It panics if cfg.CookieSecret is set but too short.
func New(cfg Config, opts ...Option) *Dispatcher {
	if cfg.FlashCookieName == "" {
		cfg.FlashCookieName = DefaultConfig().FlashCookieName
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}

	d := &Dispatcher{
		cfg:           cfg,
		basePath:      strings.TrimRight(cfg.BasePath, "/"),
		logger:        logger.Discard(),
		table:         router.NewTable[HandlerFunc](),
		bindings:      make(map[string]*binding),
		paramFilters:  make(map[string][]ParamFilterFunc),
		errorHandlers: make(map[int]ErrorHandlerFunc),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.cookies == nil {
		var secrets []string
		if cfg.CookieSecret != "" {
			secrets = []string{cfg.CookieSecret}
		}
		m, err := cookie.New(secrets)
		if err != nil {
			panic(fmt.Errorf("dispatch: cookie manager: %w", err))
		}
		d.cookies = m
	}
	if d.store == nil {
		d.store = session.NewMemoryStore()
	}
	if d.spool == nil {
		spool, err := storage.NewLocalSpool(cfg.BodyDir, storage.WithMaxSize(cfg.MaxSpoolSize))
		if err != nil {
			d.logger.Warn("body spool unavailable", logger.Component("dispatch"), logger.Error(err))
		} else {
			d.spool = spool
		}
	}
	if d.renderer == nil && cfg.ViewsDirectory != "" {
		d.renderer = view.New(cfg.ViewsDirectory, view.WithLayout(cfg.DefaultLayout))
	}

	return d
}

// Config returns the dispatcher configuration.
func (d *Dispatcher) Config() Config {
	return d.cfg
}

// ============================================================================
// Registration
// ============================================================================

func (d *Dispatcher) mustOpen(what string) {
	if d.table.Sealed() {
		panic(fmt.Errorf("%w: cannot register %s", router.ErrSealed, what))
	}
}

// On registers h for method and template. Method "*" matches any method.
// It panics on an invalid template or method, or after the dispatcher is sealed.
func (d *Dispatcher) On(method, template string, h HandlerFunc) {
	if h == nil {
		panic(fmt.Errorf("%w: handler for %s %s", ErrNilFunc, method, template))
	}
	if _, err := d.table.Register(method, template, h); err != nil {
		panic(err)
	}
}

// Get registers a GET route.
func (d *Dispatcher) Get(template string, h HandlerFunc) { d.On(http.MethodGet, template, h) }

// Post registers a POST route.
func (d *Dispatcher) Post(template string, h HandlerFunc) { d.On(http.MethodPost, template, h) }

// Put registers a PUT route.
func (d *Dispatcher) Put(template string, h HandlerFunc) { d.On(http.MethodPut, template, h) }

// Patch registers a PATCH route.
func (d *Dispatcher) Patch(template string, h HandlerFunc) { d.On(http.MethodPatch, template, h) }

// Delete registers a DELETE route.
func (d *Dispatcher) Delete(template string, h HandlerFunc) { d.On(http.MethodDelete, template, h) }

// Head registers a HEAD route. GET routes already answer HEAD requests.
func (d *Dispatcher) Head(template string, h HandlerFunc) { d.On(http.MethodHead, template, h) }

// Options registers an OPTIONS route.
func (d *Dispatcher) Options(template string, h HandlerFunc) { d.On(http.MethodOptions, template, h) }

// Any registers a route matching every method, chosen only when no
// method-specific route matches the path.
func (d *Dispatcher) Any(template string, h HandlerFunc) { d.On(router.AnyMethod, template, h) }

// Bind registers a transform for the route parameter name. dependsOn declares
// the other parameters fn looks up; declared dependency cycles fail Seal.
func (d *Dispatcher) Bind(name string, fn BindFunc, dependsOn ...string) {
	d.mustOpen("binding " + name)
	if fn == nil {
		panic(fmt.Errorf("%w: binding %s", ErrNilFunc, name))
	}
	d.bindings[name] = &binding{fn: fn, dependsOn: dependsOn}
}

// Filter registers fn to run for every matched route that declares parameter
// name, after bindings and before the before-filters.
func (d *Dispatcher) Filter(name string, fn ParamFilterFunc) {
	d.mustOpen("param filter " + name)
	if fn == nil {
		panic(fmt.Errorf("%w: param filter %s", ErrNilFunc, name))
	}
	d.paramFilters[name] = append(d.paramFilters[name], fn)
}

// Before registers a global before-filter.
func (d *Dispatcher) Before(fn FilterFunc) { d.BeforeScope(nil, fn) }

// BeforeScope registers a before-filter for paths matched by scope. A nil scope is global.
func (d *Dispatcher) BeforeScope(scope Scope, fn FilterFunc) {
	d.mustOpen("before filter")
	if fn == nil {
		panic(fmt.Errorf("%w: before filter", ErrNilFunc))
	}
	d.before = append(d.before, filter{scope: scope, fn: fn})
}

// After registers a global after-filter.
func (d *Dispatcher) After(fn FilterFunc) { d.AfterScope(nil, fn) }

// AfterScope registers an after-filter for paths matched by scope. A nil scope is global.
func (d *Dispatcher) AfterScope(scope Scope, fn FilterFunc) {
	d.mustOpen("after filter")
	if fn == nil {
		panic(fmt.Errorf("%w: after filter", ErrNilFunc))
	}
	d.after = append(d.after, filter{scope: scope, fn: fn})
}

// ErrorHandler registers fn to shape responses for code.
func (d *Dispatcher) ErrorHandler(code int, fn ErrorHandlerFunc) {
	d.mustOpen(fmt.Sprintf("error handler %d", code))
	if fn == nil {
		panic(fmt.Errorf("%w: error handler %d", ErrNilFunc, code))
	}
	d.errorHandlers[code] = fn
}

// RouteInfo describes a registered route.
type RouteInfo struct {
	Method   string
	Template string
	Params   []string
}

// String returns "METHOD template".
func (r RouteInfo) String() string {
	return r.Method + " " + r.Template
}

// Routes lists registered routes in registration order.
func (d *Dispatcher) Routes() []RouteInfo {
	routes := d.table.Routes()
	out := make([]RouteInfo, 0, len(routes))
	for _, r := range routes {
		out = append(out, RouteInfo{
			Method:   r.Method,
			Template: r.Pattern.String(),
			Params:   r.Pattern.Names(),
		})
	}
	return out
}

// Seal ends registration and validates declared binding dependencies.
// It is called implicitly by the first dispatch; calling it at startup surfaces
// configuration errors before serving traffic.
func (d *Dispatcher) Seal() error {
	d.sealOnce.Do(func() {
		d.table.Seal()
		d.sealErr = checkCycles(d.bindings)
		if d.sealErr != nil {
			d.logger.Error("invalid dispatcher configuration",
				logger.Component("dispatch"),
				logger.Error(d.sealErr),
			)
		}
	})
	return d.sealErr
}

// ============================================================================
// Dispatch
// ============================================================================

// Dispatch runs one request through the pipeline and returns the finalized response.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *response.Response {
	start := time.Now()

	method, path := d.prepare(req)
	c := newContext(ctx, d, req, method, path)
	c.logger = d.logger.With(logger.Method(method), logger.Path(path))

	d.run(c)
	d.finalize(c)

	if len(d.observers) > 0 {
		o := Outcome{
			Method:   c.method,
			Path:     c.path,
			Route:    c.route,
			Status:   c.resp.StatusCode(),
			Duration: time.Since(start),
			Err:      c.failure,
		}
		for _, obs := range d.observers {
			obs.ObserveDispatch(o)
		}
	}

	return c.resp
}

// prepare derives the effective method and the path as seen by routes.
func (d *Dispatcher) prepare(req *Request) (method, path string) {
	method = strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	if method == http.MethodPost && d.cfg.MethodOverride {
		if m := overrideMethod(req); m != "" {
			method = m
		}
	}

	path = req.Path
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	return method, path
}

func (d *Dispatcher) run(c *Context) {
	c.phase = StateMatching

	if err := d.Seal(); err != nil {
		c.fail(err)
		return
	}

	path, ok := d.stripBase(c.path)
	if !ok {
		c.Error(http.StatusNotFound)
		return
	}
	c.path = path

	rt, raw, err := d.table.Resolve(c.method, path)
	if err != nil {
		c.Error(http.StatusNotFound)
		return
	}
	c.route = rt.Method + " " + rt.Pattern.String()
	c.names = rt.Pattern.Names()

	args, err := d.bind(c, raw)
	if err != nil {
		c.fail(err)
		return
	}

	c.phase = StateBefore
	if !d.runParamFilters(c) {
		return
	}
	d.runFilters(c, d.before)
	if c.halted {
		return
	}

	c.phase = StateHandling
	if err := d.protect(func() error { return rt.Handler(c, args...) }); err != nil {
		c.fail(err)
	}

	c.phase = StateAfter
	d.runFilters(c, d.after)
}

// bind resolves every declared parameter once, in declaration order.
func (d *Dispatcher) bind(c *Context, raw []string) ([]any, error) {
	r := newResolver(d.bindings, c.names, raw)
	args := make([]any, len(c.names))

	err := d.protect(func() error {
		for i, name := range c.names {
			v, err := r.resolve(name)
			if err != nil {
				return fmt.Errorf("bind %s: %w", name, err)
			}
			args[i] = v
			c.params[name] = v
		}
		return nil
	})
	return args, err
}

// runParamFilters reports whether the pipeline may continue.
func (d *Dispatcher) runParamFilters(c *Context) bool {
	for _, name := range c.names {
		for _, fn := range d.paramFilters[name] {
			value := c.params[name]
			if err := d.protect(func() error { return fn(c, value) }); err != nil {
				c.fail(err)
				return false
			}
			if c.halted {
				return false
			}
		}
	}
	return true
}

// runFilters executes scope-matched filters in registration order. It stops on
// a filter error and when a filter halts the context during this phase.
func (d *Dispatcher) runFilters(c *Context, filters []filter) {
	for _, f := range filters {
		if f.scope != nil && !f.scope.Match(c.path) {
			continue
		}
		if err := d.protect(func() error { return f.fn(c, c.method, c.path) }); err != nil {
			c.fail(err)
			return
		}
		if c.halted && c.haltedIn == c.phase {
			return
		}
	}
}

func (d *Dispatcher) finalize(c *Context) {
	ctx := context.WithoutCancel(c.ctx)

	if err := c.flash.persist(ctx, c); err != nil {
		c.logger.ErrorContext(ctx, "failed to persist flash", logger.Error(err))
	}
	c.cleanupBodies()

	if c.resp.Status == 0 {
		c.resp.Status = http.StatusOK
	}
	c.phase = StateFinalized
}

// stripBase removes the base path prefix. Paths outside the base path do not match.
func (d *Dispatcher) stripBase(path string) (string, bool) {
	if d.basePath == "" {
		return path, true
	}
	if path == d.basePath {
		return "/", true
	}
	rest, ok := strings.CutPrefix(path, d.basePath)
	if !ok || !strings.HasPrefix(rest, "/") {
		return "", false
	}
	return rest, true
}

// protect runs fn and converts a panic into a *PanicError.
func (d *Dispatcher) protect(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{value: p, stack: debug.Stack()}
		}
	}()
	return fn()
}

// statusCoder is implemented by errors that carry an HTTP status, such as *StatusError.
type statusCoder interface {
	error
	StatusCode() int
}

func asStatusError(err error) (statusCoder, bool) {
	var se statusCoder
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func asPanicError(err error) (*PanicError, bool) {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
