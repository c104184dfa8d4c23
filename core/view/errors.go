package view

import "errors"

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidName      = errors.New("invalid template name")
	ErrRenderFailed     = errors.New("template render failed")
	ErrNilComponent     = errors.New("nil component")
)
