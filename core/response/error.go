package response

import (
	"net/http"
	"strings"
)

// DefaultErrorMessage returns the body used for an error code when no handler
// or message is given: "not found" for 404, "server error" for 500 and the
// lower-cased status text otherwise.
func DefaultErrorMessage(code int) string {
	switch code {
	case http.StatusNotFound:
		return "not found"
	case http.StatusInternalServerError:
		return "server error"
	}
	if text := http.StatusText(code); text != "" {
		return strings.ToLower(text)
	}
	return "error"
}

// Error resets r to an error response with a plain text body.
func (r *Response) Error(code int, message string) {
	r.Reset()
	if message == "" {
		message = DefaultErrorMessage(code)
	}
	r.Status = code
	r.SetBody(ContentTypeText, []byte(message))
}
