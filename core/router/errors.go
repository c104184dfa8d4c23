package router

import "errors"

var (
	// Table errors
	ErrNotFound      = errors.New("route not found")
	ErrInvalidMethod = errors.New("invalid http method")
	ErrSealed        = errors.New("route table is sealed")

	// Pattern errors
	ErrEmptyPattern   = errors.New("empty route path pattern")
	ErrInvalidPattern = errors.New("invalid route path pattern")
	ErrDuplicateParam = errors.New("duplicate parameter name")
)
