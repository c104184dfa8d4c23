package storage

import (
	"context"
	"io"
)

// Object describes a spooled request body.
type Object struct {
	// Location identifies the object within its spool (a file path, an S3 key).
	Location    string
	ContentType string
	Size        int64
}

// Spool stores request bodies outside of memory so handlers can process large
// uploads as streams.
type Spool interface {
	// Put streams r into the spool. It never buffers the whole body in memory.
	Put(ctx context.Context, r io.Reader, contentType string) (*Object, error)
	// Open returns a reader for a previously spooled object.
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	// Remove deletes the object. Removing a missing object is not an error.
	Remove(ctx context.Context, location string) error
}
