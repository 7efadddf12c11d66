// Package mmap maps model artifacts read-only into memory.
//
// A mapped artifact is verified and decoded straight from the page cache
// instead of being copied through a read buffer first.
//
//	m, err := mmap.Open("model.lrm")
//	if err != nil { ... }
//	defer m.Close()
//
//	m.Advise(mmap.AccessSequential)
//	body, _ := m.Slice(headerSize, bodySize)
//
// Unix uses mmap(2) and madvise(2). Windows uses CreateFileMapping and
// MapViewOfFile; Advise is a no-op there.
//
// Slices returned by Bytes and Slice are invalid after Close.
package mmap
