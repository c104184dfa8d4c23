package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/google/uuid"

	"github.com/dmitrymomot/dispatch/core/binder"
	"github.com/dmitrymomot/dispatch/core/cookie"
	"github.com/dmitrymomot/dispatch/core/logger"
	"github.com/dmitrymomot/dispatch/core/response"
	"github.com/dmitrymomot/dispatch/core/session"
	"github.com/dmitrymomot/dispatch/core/view"
)

// State is the lifecycle position of a Context.
type State int

const (
	StateCreated State = iota
	StateMatching
	StateBefore
	StateHandling
	StateAfter
	StateFinalized
	// StateErrorFinalized is entered by Error and is terminal.
	StateErrorFinalized
)

var stateNames = [...]string{
	StateCreated:        "created",
	StateMatching:       "matching",
	StateBefore:         "before",
	StateHandling:       "handling",
	StateAfter:          "after",
	StateFinalized:      "finalized",
	StateErrorFinalized: "error_finalized",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Context is the per-dispatch view of a request and the response being built.
// It is not safe for concurrent use and must not be retained after the handler returns.
type Context struct {
	ctx    context.Context
	d      *Dispatcher
	req    *Request
	method string
	path   string
	logger *slog.Logger

	phase   State
	errored bool
	// halted is set by Error and Redirect; haltedIn records the phase it happened in.
	halted         bool
	haltedIn       State
	inErrorHandler bool
	failure        error

	route  string
	names  []string
	params map[string]any
	query  url.Values

	resp *response.Response

	bodyLoaded bool
	rawBody    []byte
	body       any
	bodyErr    error
	bodyRef    *BodyRef
	spooled    []*BodyRef

	sid       string
	sidLoaded bool
	flash     *flashStore
}

func newContext(ctx context.Context, d *Dispatcher, req *Request, method, path string) *Context {
	return &Context{
		ctx:    ctx,
		d:      d,
		req:    req,
		method: method,
		path:   path,
		logger: d.logger,
		params: make(map[string]any),
		resp:   response.New(),
		flash:  newFlashStore(),
	}
}

// Context returns the request context.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Request returns the transport request descriptor.
func (c *Context) Request() *Request {
	return c.req
}

// Method returns the effective request method (after method override).
func (c *Context) Method() string {
	return c.method
}

// Path returns the request path with the base path stripped.
func (c *Context) Path() string {
	return c.path
}

// Route returns the matched route as "METHOD template", or "" before matching.
func (c *Context) Route() string {
	return c.route
}

// State returns the lifecycle state.
func (c *Context) State() State {
	if c.errored {
		return StateErrorFinalized
	}
	return c.phase
}

// Halted reports whether Error or Redirect ended the pipeline.
func (c *Context) Halted() bool {
	return c.halted
}

// Logger returns the dispatcher logger annotated with the request method and path.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// Response exposes the response being built.
func (c *Context) Response() *response.Response {
	return c.resp
}

// ============================================================================
// Parameters and request data
// ============================================================================

// Param returns the bound value of a route parameter, or nil.
func (c *Context) Param(name string) any {
	return c.params[name]
}

// ParamString returns Param formatted as a string, or "" when absent.
func (c *Context) ParamString(name string) string {
	switch v := c.params[name].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Params returns a copy of all bound parameters.
func (c *Context) Params() map[string]any {
	return maps.Clone(c.params)
}

// SetParam sets a parameter value, replacing any bound value.
func (c *Context) SetParam(name string, value any) {
	c.params[name] = value
}

// MergeParams copies values into the parameters; later keys win. Single values
// are stored as string, repeated ones as []string.
func (c *Context) MergeParams(values url.Values) {
	for k, vs := range values {
		switch len(vs) {
		case 0:
		case 1:
			c.params[k] = vs[0]
		default:
			c.params[k] = append([]string(nil), vs...)
		}
	}
}

// QueryValues returns the parsed query string. Malformed pairs are skipped.
func (c *Context) QueryValues() url.Values {
	if c.query == nil {
		c.query, _ = url.ParseQuery(c.req.RawQuery)
		if c.query == nil {
			c.query = url.Values{}
		}
	}
	return c.query
}

// Query returns the first query value for name.
func (c *Context) Query(name string) string {
	return c.QueryValues().Get(name)
}

// Header returns the first request header value for name (case-insensitive).
func (c *Context) Header(name string) string {
	if c.req.Header == nil {
		return ""
	}
	return c.req.Header.Get(name)
}

// ============================================================================
// Response shaping
// ============================================================================

// writable reports whether response-shaping calls take effect: they are
// ignored once the context halted, except inside an error handler.
func (c *Context) writable() bool {
	return !c.halted || c.inErrorHandler
}

func (c *Context) halt() {
	c.halted = true
	c.haltedIn = c.phase
}

// Status sets the response status code.
func (c *Context) Status(code int) {
	if c.writable() {
		c.resp.Status = code
	}
}

// SetHeader sets a response header.
func (c *Context) SetHeader(key, value string) {
	if c.writable() {
		c.resp.Header.Set(key, value)
	}
}

// Write sets the response body with the given content type.
func (c *Context) Write(contentType string, body []byte) {
	if c.writable() {
		c.resp.SetBody(contentType, body)
	}
}

// Text sets a plain text body.
func (c *Context) Text(s string) {
	c.Write(response.ContentTypeText, []byte(s))
}

// HTML sets an HTML body.
func (c *Context) HTML(s string) {
	c.Write(response.ContentTypeHTML, []byte(s))
}

// JSON sets a JSON body. Status stays 200 unless set earlier.
func (c *Context) JSON(data any) error {
	body, err := response.EncodeJSON(data)
	if err != nil {
		return err
	}
	c.Write(response.ContentTypeJSON, body)
	return nil
}

// JSONP sets a script body calling callback with data as JSON.
func (c *Context) JSONP(data any, callback string) error {
	body, err := response.EncodeJSONP(data, callback)
	if err != nil {
		return err
	}
	c.Write(response.ContentTypeJavaScript, body)
	return nil
}

// Redirect sets a redirect to path with a 3xx code and halts the pipeline.
// Root-relative paths are prefixed with the configured base path.
func (c *Context) Redirect(path string, code int) error {
	if !response.ValidRedirectCode(code) {
		return fmt.Errorf("%w: %d", response.ErrInvalidRedirectCode, code)
	}
	if !c.writable() {
		return nil
	}

	if base := c.d.basePath; base != "" && strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "//") {
		path = base + path
	}
	if err := c.resp.Redirect(path, code); err != nil {
		return err
	}
	if !c.inErrorHandler {
		c.halt()
	}
	return nil
}

// Error ends the pipeline with an error response. The registered handler for
// code shapes the response; without one the body is message or the default
// message for code. Codes outside 100-999 become 500. Calls after the context
// halted are ignored.
func (c *Context) Error(code int, message ...string) {
	if c.halted {
		return
	}
	if code < 100 || code > 999 {
		c.logger.WarnContext(c.ctx, "invalid error status, using 500",
			logger.StatusCode(code),
			logger.Path(c.path),
		)
		code = http.StatusInternalServerError
	}
	c.halt()
	c.errored = true

	msg := strings.Join(message, " ")
	c.resp.Reset()
	c.resp.Status = code

	h, ok := c.d.errorHandlers[code]
	if !ok {
		c.resp.Error(code, msg)
		return
	}

	c.inErrorHandler = true
	err := c.d.protect(func() error { return h(c, code, msg) })
	c.inErrorHandler = false

	if err != nil {
		c.logger.ErrorContext(c.ctx, "error handler failed",
			logger.StatusCode(code),
			logger.Error(err),
		)
		c.resp.Error(code, msg)
		return
	}
	if c.resp.Status == 0 {
		c.resp.Status = code
	}
}

// fail converts a handler, filter or binding failure into an error response.
// A StatusError with a 4xx or 5xx code keeps it; anything else becomes 500.
func (c *Context) fail(err error) {
	if err == nil {
		return
	}

	code := http.StatusInternalServerError
	var msg []string
	if se, ok := asStatusError(err); ok && isErrorStatus(se.StatusCode()) {
		code = se.StatusCode()
		msg = []string{se.Error()}
	}

	attrs := []any{
		logger.Method(c.method),
		logger.Path(c.path),
		logger.Route(c.route),
		slog.String("phase", c.phase.String()),
		logger.Error(err),
	}
	if pe, ok := asPanicError(err); ok {
		attrs = append(attrs, logger.StackTrace(pe.Stack()))
	}

	if c.halted {
		c.logger.WarnContext(c.ctx, "failure after response was decided", attrs...)
		return
	}

	if code >= http.StatusInternalServerError {
		c.failure = err
		c.logger.ErrorContext(c.ctx, "dispatch failed", attrs...)
	} else {
		c.logger.DebugContext(c.ctx, "dispatch rejected", attrs...)
	}
	c.Error(code, msg...)
}

// isErrorStatus reports whether code is a 4xx or 5xx status.
func isErrorStatus(code int) bool {
	return code >= http.StatusBadRequest && code < 600
}

// Send responds with a file. An empty downloadName serves the file inline;
// cacheSeconds sets Cache-Control max-age.
func (c *Context) Send(path, downloadName string, cacheSeconds int) {
	if c.writable() {
		c.resp.Send(path, downloadName, cacheSeconds)
	}
}

// Render renders a view wrapped in the default layout into the response body.
func (c *Context) Render(name string, locals any) error {
	if c.d.renderer == nil {
		return ErrNoRenderer
	}

	var buf bytes.Buffer
	if err := c.d.renderer.Render(&buf, name, locals); err != nil {
		return err
	}
	c.Write(response.ContentTypeHTML, buf.Bytes())
	return nil
}

// Partial renders a view without layout and returns it.
func (c *Context) Partial(name string, locals any) (string, error) {
	if c.d.renderer == nil {
		return "", ErrNoRenderer
	}
	return c.d.renderer.Partial(name, locals)
}

// Component renders a templ component into the response body.
func (c *Context) Component(comp templ.Component) error {
	body, err := view.Component(c.ctx, comp)
	if err != nil {
		return err
	}
	c.Write(response.ContentTypeHTML, body)
	return nil
}

// ============================================================================
// Cookies
// ============================================================================

// Cookie returns the incoming cookie value for name.
func (c *Context) Cookie(name string) (string, bool) {
	return c.d.cookies.Value(c.req.Cookies, name)
}

// SetCookie queues an outgoing cookie. Cookies are kept even if the context halts.
func (c *Context) SetCookie(name, value string, opts ...cookie.Option) error {
	ck, err := c.d.cookies.Cookie(name, value, opts...)
	if err != nil {
		return err
	}
	c.resp.AddCookie(ck)
	return nil
}

// DeleteCookie queues an expired cookie for name.
func (c *Context) DeleteCookie(name string) {
	c.resp.AddCookie(c.d.cookies.Expired(name))
}

// ============================================================================
// Session and flash
// ============================================================================

// SessionID returns the session id from the session cookie, or "" when the
// client has no valid session yet.
func (c *Context) SessionID() string {
	if c.sidLoaded {
		return c.sid
	}
	c.sidLoaded = true

	name := c.d.cfg.FlashCookieName
	var sid string
	if c.d.cookies.CanSign() {
		v, err := c.d.cookies.SignedValue(c.req.Cookies, name)
		if err == nil {
			sid = v
		}
	} else if v, ok := c.d.cookies.Value(c.req.Cookies, name); ok {
		sid = v
	}

	if session.ValidID(sid) {
		c.sid = sid
	}
	return c.sid
}

// ensureSession returns the session id, minting one and queueing its cookie if needed.
func (c *Context) ensureSession() (string, error) {
	if sid := c.SessionID(); sid != "" {
		return sid, nil
	}

	sid := uuid.NewString()
	name := c.d.cfg.FlashCookieName

	var (
		ck  *http.Cookie
		err error
	)
	if c.d.cookies.CanSign() {
		ck, err = c.d.cookies.SignedCookie(name, sid)
	} else {
		ck, err = c.d.cookies.Cookie(name, sid)
	}
	if err != nil {
		return "", err
	}

	c.resp.AddCookie(ck)
	c.sid = sid
	c.logger = c.logger.With(logger.SessionID(sid))
	return sid, nil
}

// Session returns the session value for key, or nil.
func (c *Context) Session(key string) (any, error) {
	if c.d.store == nil {
		return nil, ErrNoStore
	}
	sid := c.SessionID()
	if sid == "" {
		return nil, nil
	}
	return c.d.store.Get(c.ctx, sid, key)
}

// SetSession stores value under key; nil deletes the key.
func (c *Context) SetSession(key string, value any) error {
	if key == flashKey {
		return fmt.Errorf("%w: %s", ErrReservedKey, key)
	}
	if c.d.store == nil {
		return ErrNoStore
	}
	if value == nil && c.SessionID() == "" {
		return nil
	}

	sid, err := c.ensureSession()
	if err != nil {
		return err
	}
	return c.d.store.Set(c.ctx, sid, key, value)
}

// Flash returns and removes a flash value set by the previous request
// (or by FlashNow in this one).
func (c *Context) Flash(key string) any {
	if err := c.flash.load(c.ctx, c); err != nil {
		c.logger.WarnContext(c.ctx, "failed to load flash", logger.Error(err))
	}
	return c.flash.take(key)
}

// SetFlash stores a value readable once by the next request.
func (c *Context) SetFlash(key string, value any) {
	c.flash.new[key] = value
}

// FlashNow stores a value readable once by this request only.
func (c *Context) FlashNow(key string, value any) {
	c.flash.old[key] = value
}

// ============================================================================
// Request body
// ============================================================================

// RequestBody reads and parses the body by content type: form bodies become
// url.Values, JSON bodies the decoded value, anything else []byte.
// The result is cached for the dispatch.
func (c *Context) RequestBody() (any, error) {
	if c.bodyLoaded {
		return c.body, c.bodyErr
	}
	c.bodyLoaded = true

	contentType := c.Header("Content-Type")
	if c.bodyRef != nil {
		c.body, c.bodyErr = c.bodyRef.Decode(c.ctx)
		return c.body, c.bodyErr
	}

	raw, err := binder.Read(c.req.Body, c.d.cfg.MaxBodySize)
	if err != nil {
		c.bodyErr = err
		return nil, err
	}
	c.rawBody = raw
	c.body, c.bodyErr = binder.Parse(contentType, raw)
	return c.body, c.bodyErr
}

// RequestBodyRef streams the body to the body spool without buffering it and
// returns a reference to it. Spooled bodies are removed when the dispatch ends.
func (c *Context) RequestBodyRef() (*BodyRef, error) {
	if c.bodyRef != nil {
		return c.bodyRef, nil
	}
	if c.d.spool == nil {
		return nil, ErrNoSpool
	}

	src := c.req.Body
	if c.bodyLoaded {
		// The body stream was consumed by RequestBody; a failed read left
		// nothing to spool.
		if c.rawBody == nil && c.bodyErr != nil {
			return nil, c.bodyErr
		}
		src = nil
		if c.rawBody != nil {
			src = bytes.NewReader(c.rawBody)
		}
	}

	ref, err := spoolBody(c.ctx, c.d.spool, src, c.Header("Content-Type"), c.d.cfg.MaxBodySize)
	if err != nil {
		return nil, err
	}
	c.bodyRef = ref
	c.spooled = append(c.spooled, ref)
	return ref, nil
}

func (c *Context) cleanupBodies() {
	for _, ref := range c.spooled {
		if err := ref.spool.Remove(context.WithoutCancel(c.ctx), ref.Location); err != nil {
			c.logger.WarnContext(c.ctx, "failed to remove spooled body",
				slog.String("location", ref.Location),
				logger.Error(err),
			)
		}
	}
	c.spooled = nil
}
