// Package minio stores model artifacts in MinIO or any S3 compatible
// system (Ceph, Garage, SeaweedFS) through the MinIO client, without the
// AWS SDK.
//
//	store, err := minio.Dial(ctx, minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	}, "models", "leadrec/")
package minio
