package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
)

// ContentDigest is a validated 64-character lowercase hex SHA-256 digest.
// The only ways to construct one are FromBytes (compute) and FromString
// (validate an existing value); both guarantee the invariant that the
// underlying string is well-formed hex of the correct length.
type ContentDigest struct {
	value string
}

// FromBytes computes the SHA-256 digest of data.
func FromBytes(data []byte) ContentDigest {
	sum := sha256.Sum256(data)
	return ContentDigest{value: hex.EncodeToString(sum[:])}
}

// FromString validates s as a 64-character hex digest, lowercasing it.
func FromString(s string) (ContentDigest, error) {
	if len(s) != 64 || !isHex(s) {
		return ContentDigest{}, aerr.InvalidDigest(s)
	}
	return ContentDigest{value: strings.ToLower(s)}, nil
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// String returns the full hex string.
func (d ContentDigest) String() string { return d.value }

// Short returns the first 12 hex characters, for log lines.
func (d ContentDigest) Short() string {
	if len(d.value) < 12 {
		return d.value
	}
	return d.value[:12]
}

// IsZero reports whether d was never assigned.
func (d ContentDigest) IsZero() bool { return d.value == "" }

// Equal compares two digests by value.
func (d ContentDigest) Equal(other ContentDigest) bool { return d.value == other.value }
