// Package storage defines the ObjectStore interface used for evidence content.
//
// Evidence never passes through the API process. Clients upload parts directly to the
// store using pre-signed URLs and download through a pre-signed GET, so the backend only
// brokers URLs and finalizes uploads.
package storage

import (
	"context"
	"errors"
	"time"
)

// MaxParts is the largest number of parts a single multipart upload may have
const MaxParts = 10000

// ErrTooLarge is returned when a file cannot be split into MaxParts parts
var ErrTooLarge = errors.New("file exceeds the maximum multipart upload size")

// Upload is an open multipart upload and the URLs its parts go to
type Upload struct {
	UploadID string
	// PartURLs holds one pre-signed URL per part, part 1 first
	PartURLs []string
	PartSize int64
}

// ObjectStore brokers direct-to-store uploads and downloads
type ObjectStore interface {
	// CreateUpload starts a multipart upload for key and pre-signs every part
	CreateUpload(ctx context.Context, key, contentType string, size int64) (*Upload, error)

	// CompleteUpload assembles the uploaded parts into the final object
	CompleteUpload(ctx context.Context, key, uploadID string) error

	// AbortUpload discards an open multipart upload
	AbortUpload(ctx context.Context, key, uploadID string) error

	// DownloadURL returns a pre-signed GET for key that saves as fileName
	DownloadURL(ctx context.Context, key, fileName string) (string, time.Time, error)
}

// PartCount returns how many parts of partSize bytes cover size bytes.
// Empty files still take one part.
func PartCount(size, partSize int64) (int, error) {
	if partSize <= 0 {
		return 0, errors.New("part size must be positive")
	}
	if size <= 0 {
		return 1, nil
	}
	n := (size + partSize - 1) / partSize
	if n > MaxParts {
		return 0, ErrTooLarge
	}
	return int(n), nil
}
