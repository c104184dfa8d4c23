package binder

import "errors"

// Error variables define common failures that can occur while decoding a request body.
var (
	// ErrFailedToParseJSON indicates the request body contains invalid JSON.
	ErrFailedToParseJSON = errors.New("failed to parse JSON request body")

	// ErrFailedToParseForm indicates the URL-encoded form body is malformed.
	ErrFailedToParseForm = errors.New("failed to parse form data")

	// ErrBodyTooLarge indicates the body exceeds the configured size limit.
	ErrBodyTooLarge = errors.New("request body too large")

	// ErrFailedToReadBody indicates the body stream returned an error.
	ErrFailedToReadBody = errors.New("failed to read request body")
)
