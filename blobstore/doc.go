// Package blobstore stores model artifacts behind a small interface.
//
// BlobStore implementations must be safe for concurrent use. Built in are
// LocalStore (a directory, read through mmap) and MemoryStore (tests);
// the s3 and minio subpackages add object storage backends.
//
// Names are slash separated, e.g. "models/<id>.lrm". Writes become visible
// atomically: Put and WritableBlob.Close either publish the whole blob or
// nothing.
package blobstore
