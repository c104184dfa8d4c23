package response

import "errors"

var (
	// ErrInvalidRedirectCode is returned when a redirect status is outside 300-399.
	ErrInvalidRedirectCode = errors.New("invalid redirect status code")
	// ErrInvalidCallback is returned when a JSONP callback is not a JavaScript identifier path.
	ErrInvalidCallback = errors.New("invalid jsonp callback")
	// ErrEncodeJSON is returned when a payload cannot be encoded as JSON.
	ErrEncodeJSON = errors.New("failed to encode json")
)
