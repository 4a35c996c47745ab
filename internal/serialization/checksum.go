package serialization

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeChecksum returns the SHA-256 of the tensor data section.
func ComputeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ValidateChecksum compares computed checksum against stored checksum.
// Returns ErrChecksumMismatch if they don't match.
func ValidateChecksum(computed, stored [32]byte) error {
	if computed != stored {
		return ErrChecksumMismatch
	}
	return nil
}

// FormatChecksum renders a checksum as lowercase hex for the metadata map.
func FormatChecksum(sum [32]byte) string {
	return hex.EncodeToString(sum[:])
}

// ParseChecksum parses a hex checksum written by FormatChecksum.
func ParseChecksum(s string) ([32]byte, error) {
	var sum [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return sum, fmt.Errorf("%w: %v", ErrChecksumMismatch, err)
	}
	if len(b) != len(sum) {
		return sum, fmt.Errorf("%w: checksum has %d bytes, want %d", ErrChecksumMismatch, len(b), len(sum))
	}
	copy(sum[:], b)
	return sum, nil
}
