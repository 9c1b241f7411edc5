package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/digital-evidence-archive/dea-backend/internal/apperrors"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
	"github.com/digital-evidence-archive/dea-backend/internal/db/repositories"
	"github.com/digital-evidence-archive/dea-backend/internal/storage"
	"github.com/digital-evidence-archive/dea-backend/pkg/checksum"
)

// FileService handles evidence uploads and downloads for a case
type FileService struct {
	cases   *repositories.CaseRepository
	members *repositories.CaseUserRepository
	files   *repositories.CaseFileRepository
	store   storage.ObjectStore
}

// NewFileService creates a new FileService
func NewFileService(cases *repositories.CaseRepository, members *repositories.CaseUserRepository, files *repositories.CaseFileRepository, store storage.ObjectStore) *FileService {
	return &FileService{cases: cases, members: members, files: files, store: store}
}

// UploadRequest describes a file a client wants to upload
type UploadRequest struct {
	FileName      string `json:"fileName"`
	FilePath      string `json:"filePath"`
	ContentType   string `json:"contentType"`
	FileSizeBytes int64  `json:"fileSizeBytes"`
}

// InitiatedUpload is a pending file plus the URLs its parts are uploaded to
type InitiatedUpload struct {
	File     *models.CaseFile `json:"file"`
	PartURLs []string         `json:"presignedUrls"`
	PartSize int64            `json:"chunkSizeBytes"`
}

// Download is a pre-signed download for an active file
type Download struct {
	URL       string    `json:"downloadUrl"`
	ExpiresAt time.Time `json:"expires"`
}

func (r *UploadRequest) validate() error {
	r.FileName = strings.TrimSpace(r.FileName)
	if r.FileName == "" || strings.ContainsAny(r.FileName, "/\\") {
		return apperrors.Validation("fileName", "must be a plain file name")
	}
	if r.FilePath == "" {
		r.FilePath = "/"
	}
	if !strings.HasPrefix(r.FilePath, "/") || !strings.HasSuffix(r.FilePath, "/") {
		return apperrors.Validation("filePath", "must start and end with /")
	}
	if r.FileSizeBytes < 0 {
		return apperrors.Validation("fileSizeBytes", "must not be negative")
	}
	return nil
}

// InitiateUpload records a pending file and opens a multipart upload for it
func (s *FileService) InitiateUpload(ctx context.Context, caller *models.User, caseULID string, req UploadRequest) (*InitiatedUpload, error) {
	if _, err := requireAction(ctx, s.members, caseULID, caller.ULID, models.CaseActionUpload); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	c, err := s.cases.GetByID(ctx, caseULID)
	if err != nil {
		return nil, &apperrors.InternalError{Err: err}
	}
	if c == nil {
		return nil, apperrors.NotFound("case")
	}
	if c.Status != models.CaseStatusActive {
		return nil, apperrors.Validation("caseId", "files can only be uploaded to an active case")
	}

	f := &models.CaseFile{
		ULID:          models.NewULID(),
		CaseULID:      caseULID,
		FileName:      req.FileName,
		FilePath:      req.FilePath,
		ContentType:   req.ContentType,
		FileSizeBytes: req.FileSizeBytes,
		Status:        models.CaseFileStatusPending,
		CreatedBy:     caller.ULID,
	}
	upload, err := s.store.CreateUpload(ctx, f.ObjectKey(), req.ContentType, req.FileSizeBytes)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, apperrors.Validation("fileSizeBytes", err.Error())
		}
		return nil, &apperrors.InternalError{Err: err}
	}
	f.UploadID = upload.UploadID

	if err := s.files.Create(ctx, f); err != nil {
		if abortErr := s.store.AbortUpload(ctx, f.ObjectKey(), upload.UploadID); abortErr != nil {
			slog.Warn("failed to abort orphaned upload", "key", f.ObjectKey(), "error", abortErr)
		}
		return nil, &apperrors.InternalError{Err: err}
	}
	return &InitiatedUpload{File: f, PartURLs: upload.PartURLs, PartSize: upload.PartSize}, nil
}

// CompleteUpload finishes a pending upload and records the client's SHA-256 of the content
func (s *FileService) CompleteUpload(ctx context.Context, caller *models.User, caseULID, fileULID, sha256Hash string) (*models.CaseFile, error) {
	if _, err := requireAction(ctx, s.members, caseULID, caller.ULID, models.CaseActionUpload); err != nil {
		return nil, err
	}
	sha256Hash, err := checksum.ParseHex(sha256Hash)
	if err != nil {
		return nil, apperrors.Validation("sha256Hash", "must be a hex SHA-256 digest")
	}
	f, err := s.loadFile(ctx, caseULID, fileULID)
	if err != nil {
		return nil, err
	}
	if f.Status != models.CaseFileStatusPending {
		return nil, apperrors.Validation("fileId", "file upload is already complete")
	}
	if f.CreatedBy != caller.ULID {
		return nil, apperrors.NotFound("file")
	}
	c, err := s.cases.GetByID(ctx, caseULID)
	if err != nil {
		return nil, &apperrors.InternalError{Err: err}
	}
	if c == nil {
		return nil, apperrors.NotFound("case")
	}

	if err := s.store.CompleteUpload(ctx, f.ObjectKey(), f.UploadID); err != nil {
		return nil, &apperrors.InternalError{Err: err}
	}
	f.SHA256Hash = sha256Hash
	if err := s.files.Complete(ctx, f, c); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("file")
		}
		return nil, &apperrors.InternalError{Err: err}
	}
	return f, nil
}

// Info returns a file's metadata
func (s *FileService) Info(ctx context.Context, caller *models.User, caseULID, fileULID string) (*models.CaseFile, error) {
	if _, err := requireAction(ctx, s.members, caseULID, caller.ULID, models.CaseActionViewFiles); err != nil {
		return nil, err
	}
	return s.loadFile(ctx, caseULID, fileULID)
}

// DownloadURL pre-signs a download of an active file
func (s *FileService) DownloadURL(ctx context.Context, caller *models.User, caseULID, fileULID string) (*Download, error) {
	if _, err := requireAction(ctx, s.members, caseULID, caller.ULID, models.CaseActionDownload); err != nil {
		return nil, err
	}
	f, err := s.loadFile(ctx, caseULID, fileULID)
	if err != nil {
		return nil, err
	}
	if f.Status != models.CaseFileStatusActive {
		return nil, apperrors.Validation("fileId", "file upload is not complete")
	}
	url, expires, err := s.store.DownloadURL(ctx, f.ObjectKey(), f.FileName)
	if err != nil {
		return nil, &apperrors.InternalError{Err: err}
	}
	return &Download{URL: url, ExpiresAt: expires}, nil
}

func (s *FileService) loadFile(ctx context.Context, caseULID, fileULID string) (*models.CaseFile, error) {
	if !models.IsULID(fileULID) {
		return nil, apperrors.Validation("fileId", "must be a ULID")
	}
	f, err := s.files.Get(ctx, caseULID, fileULID)
	if err != nil {
		return nil, &apperrors.InternalError{Err: err}
	}
	if f == nil {
		return nil, apperrors.NotFound("file")
	}
	return f, nil
}
