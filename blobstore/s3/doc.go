// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("exports/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	res, err := vecexport.Convert(ctx, cfg, vecexport.WithStores(resolver))
//
// # Features
//
//   - Range reads through GetObject
//   - Streaming multipart uploads via the SDK upload manager
//   - Configurable prefix for shared buckets
package s3
