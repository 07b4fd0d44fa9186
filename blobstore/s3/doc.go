// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	cfg, err := source.NewAWSConfig(ctx, "eu-west-1")
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "grids/")
//	recs, err := source.NewBlobSource(store, "people.json.zst").Fetch(ctx)
//
// Reads use ranged GetObject calls; Put goes through the SDK upload
// manager so large exports are sent as multipart uploads.
package s3
