// Package s3 stores model artifacts in Amazon S3 or an S3 compatible
// endpoint.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("leadrec/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	reg := persistence.NewRegistry(store)
//
// S3 has no compare-and-swap, so concurrent publishers should wrap the
// store in a DDBCommitStore, which keeps the CURRENT pointer in DynamoDB.
package s3
