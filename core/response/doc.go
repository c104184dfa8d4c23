// Package response holds the response intent produced by a dispatch and writes it
// to an http.ResponseWriter.
//
// A Response carries a status, headers, queued cookies and one payload: a body,
// a redirect Location or a File directive. The dispatch engine shapes it during
// the request and hands it to the transport exactly once.
//
//	resp := response.New()
//	body, _ := response.EncodeJSON(map[string]any{"ok": true})
//	resp.SetBody(response.ContentTypeJSON, body)
//	_ = resp.Write(w, r)
//
// # Redirects
//
// Redirect accepts only 3xx codes and returns ErrInvalidRedirectCode otherwise.
// HTMX requests receive an HX-Location header with 200 OK instead of a Location
// redirect.
//
// # Files
//
// Send records a file directive. Write serves it with http.ServeContent, so range
// and conditional requests work, and adds Content-Disposition when a download
// name is set plus Cache-Control and Expires derived from the cache lifetime.
//
// # JSONP
//
// EncodeJSONP wraps a payload as callback(JSON); and rejects callbacks that are
// not dotted JavaScript identifiers.
package response
