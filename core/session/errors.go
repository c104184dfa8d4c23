package session

import "errors"

var (
	// ErrInvalidID is returned when a session id contains unsupported characters.
	ErrInvalidID = errors.New("invalid session id")
	// ErrEncodeValue is returned when a value cannot be serialized for storage.
	ErrEncodeValue = errors.New("failed to encode session value")
	// ErrDecodeValue is returned when stored data cannot be deserialized.
	ErrDecodeValue = errors.New("failed to decode session value")
	// ErrSaveSession is returned when saving session state fails.
	ErrSaveSession = errors.New("failed to save session")
)
