// Package binder decodes request bodies by content type.
//
// The dispatch engine uses it for Context.RequestBody and BodyRef.Decode, so a
// body parsed in memory and one decoded from a spooled copy yield the same value:
//
//   - application/x-www-form-urlencoded → url.Values
//   - application/json and +json types → the decoded JSON value
//   - anything else → []byte
//
// Bodies are read through a size limit (DefaultMaxBodySize unless configured);
// exceeding it returns ErrBodyTooLarge.
//
//	v, err := binder.Decode(r.Header.Get("Content-Type"), r.Body, 1<<20)
//	if errors.Is(err, binder.ErrBodyTooLarge) {
//		// 413
//	}
package binder
