// Package models - case_file.go defines evidence files attached to a case. A file is
// PENDING while its multipart upload is open and ACTIVE once the upload completes.
package models

import "time"

// CaseFileStatus is the upload state of a case file
type CaseFileStatus string

const (
	CaseFileStatusPending CaseFileStatus = "PENDING"
	CaseFileStatusActive  CaseFileStatus = "ACTIVE"
)

// CaseFile represents one evidence object stored in S3
type CaseFile struct {
	ULID          string         `json:"ulid"`
	CaseULID      string         `json:"caseUlid"`
	FileName      string         `json:"fileName"`
	FilePath      string         `json:"filePath"`
	ContentType   string         `json:"contentType"`
	FileSizeBytes int64          `json:"fileSizeBytes"`
	SHA256Hash    string         `json:"sha256Hash,omitempty"`
	UploadID      string         `json:"uploadId,omitempty"`
	Status        CaseFileStatus `json:"status"`
	CreatedBy     string         `json:"createdBy"`
	CreatedAt     time.Time      `json:"created"`
	UpdatedAt     time.Time      `json:"updated"`
}

// ObjectKey is the S3 key the file content lives under
func (f *CaseFile) ObjectKey() string {
	return f.CaseULID + "/" + f.ULID
}
