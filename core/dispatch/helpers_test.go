package dispatch_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrymomot/dispatch/core/dispatch"
	"github.com/dmitrymomot/dispatch/core/response"
)

func newDispatcher(t *testing.T, opts ...dispatch.Option) *dispatch.Dispatcher {
	t.Helper()
	cfg := dispatch.DefaultConfig()
	cfg.BodyDir = t.TempDir()
	return dispatch.New(cfg, opts...)
}

// text returns a handler writing s.
func text(s string) dispatch.HandlerFunc {
	return func(c *dispatch.Context, _ ...any) error {
		c.Text(s)
		return nil
	}
}

// client dispatches requests and echoes cookies back like a browser.
type client struct {
	d   *dispatch.Dispatcher
	jar map[string]string
}

func newClient(d *dispatch.Dispatcher) *client {
	return &client{d: d, jar: make(map[string]string)}
}

func (c *client) do(method, target string, body io.Reader, headers ...string) *response.Response {
	r := httptest.NewRequest(method, target, body)
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	for name, value := range c.jar {
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp := c.d.Dispatch(context.Background(), dispatch.NewRequest(r))
	for _, ck := range resp.Cookies {
		if ck.MaxAge < 0 {
			delete(c.jar, ck.Name)
			continue
		}
		c.jar[ck.Name] = ck.Value
	}
	return resp
}

func (c *client) get(target string) *response.Response {
	return c.do(http.MethodGet, target, nil)
}

// dispatchOnce sends a single request without cookies.
func dispatchOnce(d *dispatch.Dispatcher, method, target string) *response.Response {
	return newClient(d).do(method, target, nil)
}
