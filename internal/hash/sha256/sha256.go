// Package sha256 provides the SHA-256 digest used for archive path
// disambiguation and content fingerprints.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/JakeFAU/page-archiver/internal/archive"
)

// Hasher implements archive.Hasher using SHA-256.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash hashes the input and returns a lowercase hex digest.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

var _ archive.Hasher = (*Hasher)(nil)
