package response

import (
	"net/http"
)

// File is a directive to stream a file from disk.
type File struct {
	Path         string
	DownloadName string
	CacheSeconds int
}

// Response is the outcome of one dispatch: status, headers, cookies and exactly
// one of Body, Location or File. It is built up during dispatch and written to
// the transport once.
type Response struct {
	Status   int
	Header   http.Header
	Body     []byte
	Location string
	Cookies  []*http.Cookie
	File     *File
}

// New returns an empty response with status 0 (unset).
func New() *Response {
	return &Response{Header: make(http.Header)}
}

// Reset drops status, headers and payload. Queued cookies are kept.
func (r *Response) Reset() {
	r.Status = 0
	r.Header = make(http.Header)
	r.Body = nil
	r.Location = ""
	r.File = nil
}

// IsRedirect reports whether the response carries a redirect target.
func (r *Response) IsRedirect() bool {
	return r.Location != ""
}

// SetBody replaces the body and content type, clearing any redirect or file directive.
func (r *Response) SetBody(contentType string, body []byte) {
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	r.Body = body
	r.Location = ""
	r.File = nil
}

// AddCookie queues an outgoing cookie.
func (r *Response) AddCookie(c *http.Cookie) {
	r.Cookies = append(r.Cookies, c)
}

// StatusCode returns the status, defaulting to 200.
func (r *Response) StatusCode() int {
	if r.Status == 0 {
		return http.StatusOK
	}
	return r.Status
}

// Write sends the response to w.
// File directives are served with http.ServeContent; a missing file yields 404.
func (r *Response) Write(w http.ResponseWriter, req *http.Request) error {
	h := w.Header()
	for k, vs := range r.Header {
		h[k] = append([]string(nil), vs...)
	}
	for _, c := range r.Cookies {
		http.SetCookie(w, c)
	}

	switch {
	case r.Location != "":
		return r.writeRedirect(w, req)
	case r.File != nil:
		return r.writeFile(w, req)
	}

	status := r.StatusCode()
	if len(r.Body) > 0 && h.Get("Content-Type") == "" {
		h.Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(status)

	switch status {
	case http.StatusNoContent, http.StatusNotModified:
		return nil // No body for 204 or 304
	}
	if req != nil && req.Method == http.MethodHead {
		return nil
	}
	if len(r.Body) > 0 {
		_, err := w.Write(r.Body)
		return err
	}
	return nil
}
