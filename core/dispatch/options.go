package dispatch

import (
	"log/slog"

	"github.com/dmitrymomot/dispatch/core/cookie"
	"github.com/dmitrymomot/dispatch/core/session"
	"github.com/dmitrymomot/dispatch/core/storage"
	"github.com/dmitrymomot/dispatch/core/view"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.logger = log
		}
	}
}

// WithStore sets the session store. The default is an in-memory store.
func WithStore(store session.Store) Option {
	return func(d *Dispatcher) {
		d.store = store
	}
}

// WithSpool sets the body spool used by RequestBodyRef.
// The default is a local spool in Config.BodyDir.
func WithSpool(spool storage.Spool) Option {
	return func(d *Dispatcher) {
		d.spool = spool
	}
}

// WithRenderer sets the view renderer.
// The default renders html/template files from Config.ViewsDirectory.
func WithRenderer(r view.Renderer) Option {
	return func(d *Dispatcher) {
		d.renderer = r
	}
}

// WithCookies sets the cookie manager. The default is built from Config.CookieSecret.
func WithCookies(m *cookie.Manager) Option {
	return func(d *Dispatcher) {
		d.cookies = m
	}
}

// WithObserver registers an observer notified after every dispatch.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		if o != nil {
			d.observers = append(d.observers, o)
		}
	}
}
