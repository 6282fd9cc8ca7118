// Package digest computes SHA-256 digests of pipeline outputs.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// SHA256 hashes files and byte slices.
type SHA256 struct{}

// New returns a SHA-256 hasher.
func New() *SHA256 {
	return &SHA256{}
}

// Hash returns the hex digest of data.
func (*SHA256) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashFile streams the file at path and returns its hex digest.
func (*SHA256) HashFile(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- path is a pipeline output
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
