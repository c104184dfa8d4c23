package dispatch

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrymomot/dispatch/core/logger"
)

// Request is the transport-independent request descriptor consumed by Dispatch.
type Request struct {
	Method string
	// Path is the escaped request path, e.g. "/files/a%2Fb".
	Path       string
	RawQuery   string
	Header     http.Header
	Body       io.Reader
	Cookies    []*http.Cookie
	RemoteAddr string
}

// NewRequest builds a Request from an *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{
		Method:     r.Method,
		Path:       r.URL.EscapedPath(),
		RawQuery:   r.URL.RawQuery,
		Header:     r.Header,
		Body:       r.Body,
		Cookies:    r.Cookies(),
		RemoteAddr: r.RemoteAddr,
	}
}

// ServeHTTP dispatches r and writes the response.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := d.Dispatch(r.Context(), NewRequest(r))
	if err := resp.Write(w, r); err != nil {
		d.logger.ErrorContext(r.Context(), "failed to write response",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Error(err),
		)
	}
}

// MethodOverrideHeader carries the intended method of a POST request.
const MethodOverrideHeader = "X-HTTP-Method-Override"

// overrideMethod returns the method requested by a POST via header or _method
// query parameter, or "" when none or an unsupported one is given. The body is
// never read for this.
func overrideMethod(req *Request) string {
	m := ""
	if req.Header != nil {
		m = req.Header.Get(MethodOverrideHeader)
	}
	if m == "" {
		q, _ := url.ParseQuery(req.RawQuery)
		m = q.Get("_method")
	}

	switch m = strings.ToUpper(strings.TrimSpace(m)); m {
	case http.MethodPut, http.MethodPatch, http.MethodDelete:
		return m
	default:
		return ""
	}
}
