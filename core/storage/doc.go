// Package storage defines the body spool used for streaming request bodies to
// disk or object storage instead of memory.
//
// A Spool accepts a reader and returns an Object reference (location, content
// type, size). The dispatch engine spools a body when a handler asks for a body
// reference, and removes the object once the request is finalized.
//
// LocalSpool keeps bodies as temp files in a directory:
//
//	spool, err := storage.NewLocalSpool("/var/tmp/bodies", storage.WithMaxSize(512<<20))
//	obj, err := spool.Put(ctx, r.Body, r.Header.Get("Content-Type"))
//	rc, err := spool.Open(ctx, obj.Location)
//	defer spool.Remove(ctx, obj.Location)
//
// The S3 spool lives in integration/storage/s3.
package storage
