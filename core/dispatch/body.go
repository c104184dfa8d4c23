package dispatch

import (
	"context"
	"io"
	"net/http"

	"github.com/dmitrymomot/dispatch/core/binder"
	"github.com/dmitrymomot/dispatch/core/storage"
)

// BodyRef references a request body spooled out of memory.
type BodyRef struct {
	storage.Object

	spool   storage.Spool
	maxSize int64
}

// Open returns a reader over the spooled body. The caller must close it.
func (r *BodyRef) Open(ctx context.Context) (io.ReadCloser, error) {
	return r.spool.Open(ctx, r.Location)
}

// Decode parses the spooled body exactly like Context.RequestBody would.
func (r *BodyRef) Decode(ctx context.Context) (any, error) {
	rc, err := r.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return binder.Decode(r.ContentType, rc, r.maxSize)
}

func spoolBody(ctx context.Context, spool storage.Spool, src io.Reader, contentType string, maxSize int64) (*BodyRef, error) {
	if src == nil {
		src = http.NoBody
	}
	obj, err := spool.Put(ctx, src, contentType)
	if err != nil {
		return nil, err
	}
	return &BodyRef{Object: *obj, spool: spool, maxSize: maxSize}, nil
}
