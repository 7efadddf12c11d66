// Package persistence stores fitted models as single self-describing
// artifacts.
//
// Layout:
//
//	[64-byte header][body]
//
// The header carries the magic "LRM1", the format version, the compression
// and codec names, the stored and raw body sizes and a CRC32 covering the
// header itself and the stored body. The raw body is a codec-encoded
// manifest (model id, params, schema, counts) followed by little-endian
// binary sections:
//
//	terms | idf | indptr | indices | data | ids | contents
//
// A load either returns a fully validated model or fails with one of
// ErrInvalidMagic, ErrInvalidVersion, ErrChecksumMismatch or ErrCorruptModel.
//
// Registry layers publishing on top of a blobstore: artifacts are stored as
// "models/<id>.lrm" and the blob "CURRENT" names the published one.
package persistence
