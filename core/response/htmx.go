package response

import "net/http"

// HTMX headers honoured when writing redirects.
const (
	// HeaderHXRequest is sent by HTMX on every request it issues.
	HeaderHXRequest = "HX-Request"
	// HeaderHXLocation tells HTMX to perform a client-side redirect without a full reload.
	HeaderHXLocation = "HX-Location"
)

// IsHTMX reports whether r was issued by HTMX.
func IsHTMX(r *http.Request) bool {
	return r != nil && r.Header.Get(HeaderHXRequest) == "true"
}
