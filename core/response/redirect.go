package response

import (
	"fmt"
	"net/http"
)

// ValidRedirectCode reports whether code is a 3xx status.
func ValidRedirectCode(code int) bool {
	return code >= 300 && code < 400
}

// Redirect turns r into a redirect to url with the given 3xx code.
// The body, file directive and previously set headers are dropped.
func (r *Response) Redirect(url string, code int) error {
	if !ValidRedirectCode(code) {
		return fmt.Errorf("%w: %d", ErrInvalidRedirectCode, code)
	}
	r.Reset()
	r.Status = code
	r.Location = url
	return nil
}

// writeRedirect performs the redirect.
// For HTMX requests (detected via HX-Request header) it uses the HX-Location
// header with 200 OK instead of a standard HTTP redirect.
func (r *Response) writeRedirect(w http.ResponseWriter, req *http.Request) error {
	if IsHTMX(req) {
		w.Header().Set(HeaderHXLocation, r.Location)
		w.WriteHeader(http.StatusOK)
		return nil
	}

	status := r.Status
	if !ValidRedirectCode(status) {
		status = http.StatusFound
	}
	if req == nil {
		w.Header().Set("Location", r.Location)
		w.WriteHeader(status)
		return nil
	}
	http.Redirect(w, req, r.Location, status)
	return nil
}
