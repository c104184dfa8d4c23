package storage

import "errors"

var (
	ErrInvalidLocation = errors.New("invalid object location")
	ErrObjectNotFound  = errors.New("object not found")
	ErrObjectTooLarge  = errors.New("object exceeds size limit")
	ErrSpoolFailed     = errors.New("failed to spool object")
)
