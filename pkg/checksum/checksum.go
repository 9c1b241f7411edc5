// Package checksum handles the SHA-256 digests clients report for evidence files.
// The digest is computed client side while the parts upload straight to S3, so the
// server only ever sees it as a hex string and must normalize it before storing it.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidDigest is returned for anything that is not a hex SHA-256 digest
var ErrInvalidDigest = errors.New("not a hex SHA-256 digest")

// ParseHex validates a hex digest and returns it in lowercase
func ParseHex(digest string) (string, error) {
	digest = strings.ToLower(strings.TrimSpace(digest))
	if len(digest) != hex.EncodedLen(sha256.Size) {
		return "", ErrInvalidDigest
	}
	if _, err := hex.DecodeString(digest); err != nil {
		return "", ErrInvalidDigest
	}
	return digest, nil
}

// Sum returns the lowercase hex SHA-256 of everything read from r
func Sum(r io.Reader) (string, error) {
	hasher := sha256.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", fmt.Errorf("failed to calculate checksum: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
