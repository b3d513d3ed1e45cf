package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, for display.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// HashParts hashes an ordered list of fields. Fields are length-prefixed so
// that ("ab","c") and ("a","bc") never collide.
func HashParts(parts ...string) Hash {
	var data strings.Builder
	for _, p := range parts {
		data.WriteString(strconv.Itoa(len(p)))
		data.WriteByte(':')
		data.WriteString(p)
		data.WriteByte('|')
	}
	return NewHash([]byte(data.String()))
}
