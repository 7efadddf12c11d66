package mmap

import "errors"

// AccessPattern is a madvise hint for a mapped artifact.
type AccessPattern int

const (
	AccessDefault AccessPattern = iota
	// AccessSequential suits checksum and decode passes over the whole body.
	AccessSequential
	// AccessRandom suits range reads of a stored blob.
	AccessRandom
	// AccessWillNeed prefetches an artifact that is about to be loaded.
	AccessWillNeed
)

var (
	ErrClosed        = errors.New("mmap: mapping is closed")
	ErrInvalidSize   = errors.New("mmap: invalid file size")
	ErrOutOfBounds   = errors.New("mmap: range outside the mapping")
	ErrInvalidOffset = errors.New("mmap: negative offset")
)
