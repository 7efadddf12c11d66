package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

// CRC32 (IEEE) detects accidental corruption only; it is not a MAC.

// ErrChecksumMismatch matches every *ChecksumMismatchError.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ComputeChecksum computes the CRC32 checksum of data.
func ComputeChecksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// VerifyChecksum compares the checksum of data against expected.
func VerifyChecksum(data []byte, expected uint32) error {
	if actual := ComputeChecksum(data); actual != expected {
		return &ChecksumMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}

// artifactChecksum covers the header, with its Checksum field zeroed, and
// the stored body, so corrupt sizes are caught before they are trusted.
func artifactChecksum(h FileHeader, stored []byte) (uint32, error) {
	h.Checksum = 0
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &h); err != nil {
		return 0, err
	}
	sum := crc32.ChecksumIEEE(buf.Bytes())
	return crc32.Update(sum, crc32.IEEETable, stored), nil
}

// ChecksumMismatchError is returned when checksum verification fails.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

func (e *ChecksumMismatchError) Is(target error) bool { return target == ErrChecksumMismatch }

// IsChecksumMismatch returns true if err is a checksum mismatch error.
func IsChecksumMismatch(err error) bool {
	return errors.Is(err, ErrChecksumMismatch)
}
