// Package s3 provides an Amazon S3 implementation of storage.Spool for
// request bodies streamed with Context.RequestBodyRef.
//
// Works with AWS S3 and S3-compatible services such as MinIO and Wasabi:
//
//	spool, err := s3.New(ctx, s3.Config{
//		Bucket:         "uploads",
//		Region:         "us-east-1",
//		Endpoint:       "http://localhost:9000",
//		ForcePathStyle: true,
//		Prefix:         "bodies/",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	d := dispatch.New(cfg, dispatch.WithSpool(spool))
//
// Bodies are staged in a local temp file and uploaded with a known content
// length under prefix + a random uuid. Open and Remove accept only keys of that
// shape, so a spool never touches unrelated objects in the bucket.
//
// S3 errors are classified: missing keys wrap storage.ErrObjectNotFound, and
// ErrBucketNotFound, ErrAccessDenied, ErrServiceUnavailable, ErrOperationTimeout
// and ErrOperationCanceled cover the common failure modes.
package s3
