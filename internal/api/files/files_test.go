package files

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/digital-evidence-archive/dea-backend/internal/apperrors"
	"github.com/digital-evidence-archive/dea-backend/internal/audit"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
	"github.com/digital-evidence-archive/dea-backend/internal/middleware"
	"github.com/digital-evidence-archive/dea-backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	caseID = "01HV0000000000000000000C01"
	fileID = "01HV0000000000000000000F01"
)

// stubFiles records its inputs and returns canned results
type stubFiles struct {
	err      error
	gotCase  string
	gotFile  string
	gotHash  string
	gotInput services.UploadRequest
}

func (s *stubFiles) InitiateUpload(_ context.Context, _ *models.User, caseULID string, req services.UploadRequest) (*services.InitiatedUpload, error) {
	s.gotCase, s.gotInput = caseULID, req
	if s.err != nil {
		return nil, s.err
	}
	return &services.InitiatedUpload{
		File:     &models.CaseFile{ULID: fileID, CaseULID: caseULID, FileName: req.FileName, Status: models.CaseFileStatusPending},
		PartURLs: []string{"https://s3/part1", "https://s3/part2"},
		PartSize: 1024,
	}, nil
}

func (s *stubFiles) CompleteUpload(_ context.Context, _ *models.User, caseULID, fileULID, hash string) (*models.CaseFile, error) {
	s.gotCase, s.gotFile, s.gotHash = caseULID, fileULID, hash
	if s.err != nil {
		return nil, s.err
	}
	return &models.CaseFile{ULID: fileULID, CaseULID: caseULID, SHA256Hash: hash, Status: models.CaseFileStatusActive}, nil
}

func (s *stubFiles) Info(_ context.Context, _ *models.User, caseULID, fileULID string) (*models.CaseFile, error) {
	s.gotCase, s.gotFile = caseULID, fileULID
	if s.err != nil {
		return nil, s.err
	}
	return &models.CaseFile{ULID: fileULID, CaseULID: caseULID, Status: models.CaseFileStatusActive}, nil
}

func (s *stubFiles) DownloadURL(_ context.Context, _ *models.User, caseULID, fileULID string) (*services.Download, error) {
	s.gotCase, s.gotFile = caseULID, fileULID
	if s.err != nil {
		return nil, s.err
	}
	return &services.Download{URL: "https://s3/" + caseULID + "/" + fileULID, ExpiresAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}, nil
}

type captureRecorder struct {
	events []*audit.Event
}

func (r *captureRecorder) Record(_ context.Context, e *audit.Event) error {
	r.events = append(r.events, e)
	return nil
}

func newRouter(svc FileService, rec middleware.AuditRecorder) *gin.Engine {
	h := NewHandlers(svc)
	r := gin.New()
	r.Use(middleware.AuditMiddleware(rec))
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserKey, &models.User{ULID: "01HV00000000000000000000AA", Username: "alice"})
		c.Next()
	})
	r.POST("/cases/:caseId/files", middleware.AuditEvent(audit.EventInitiateCaseFileUpload), h.InitiateUploadHandler())
	r.PUT("/cases/:caseId/files/:fileId/contents", middleware.AuditEvent(audit.EventCompleteCaseFileUpload), h.CompleteUploadHandler())
	r.GET("/cases/:caseId/files/:fileId/info", middleware.AuditEvent(audit.EventGetCaseFileDetail), h.InfoHandler())
	r.GET("/cases/:caseId/files/:fileId/contents", middleware.AuditEvent(audit.EventDownloadCaseFile), h.DownloadHandler())
	return r
}

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ---------------------------------------------------------------------------
// Upload
// ---------------------------------------------------------------------------

func TestInitiateUploadHandler(t *testing.T) {
	svc := &stubFiles{}
	rec := &captureRecorder{}
	w := do(newRouter(svc, rec), http.MethodPost, "/cases/"+caseID+"/files", gin.H{
		"fileName":      "photo.jpg",
		"filePath":      "/scene/",
		"contentType":   "image/jpeg",
		"fileSizeBytes": 2000,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", w.Code, w.Body.String())
	}
	if svc.gotCase != caseID || svc.gotInput.FileName != "photo.jpg" || svc.gotInput.FileSizeBytes != 2000 {
		t.Errorf("service got case %q input %+v", svc.gotCase, svc.gotInput)
	}

	var body struct {
		PresignedURLs  []string `json:"presignedUrls"`
		ChunkSizeBytes int64    `json:"chunkSizeBytes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.PresignedURLs) != 2 || body.ChunkSizeBytes != 1024 {
		t.Errorf("body = %+v", body)
	}

	if len(rec.events) != 1 || rec.events[0].FileID != fileID || rec.events[0].CaseID != caseID {
		t.Errorf("audit events = %+v, want one carrying the new file id", rec.events)
	}
}

func TestCompleteUploadHandler(t *testing.T) {
	hash := "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"
	svc := &stubFiles{}
	w := do(newRouter(svc, &captureRecorder{}), http.MethodPut, "/cases/"+caseID+"/files/"+fileID+"/contents", gin.H{"sha256Hash": hash})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", w.Code, w.Body.String())
	}
	if svc.gotFile != fileID || svc.gotHash != hash {
		t.Errorf("service got file %q hash %q", svc.gotFile, svc.gotHash)
	}
}

func TestCompleteUploadHandler_MissingHash(t *testing.T) {
	svc := &stubFiles{}
	w := do(newRouter(svc, &captureRecorder{}), http.MethodPut, "/cases/"+caseID+"/files/"+fileID+"/contents", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if svc.gotFile != "" {
		t.Error("service called despite a malformed body")
	}
}

// ---------------------------------------------------------------------------
// Read paths
// ---------------------------------------------------------------------------

func TestDownloadHandler(t *testing.T) {
	w := do(newRouter(&stubFiles{}, &captureRecorder{}), http.MethodGet, "/cases/"+caseID+"/files/"+fileID+"/contents", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		URL     string    `json:"downloadUrl"`
		Expires time.Time `json:"expires"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.URL != "https://s3/"+caseID+"/"+fileID || body.Expires.IsZero() {
		t.Errorf("body = %+v", body)
	}
}

func TestHandlers_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", apperrors.NotFound("case file"), http.StatusNotFound},
		{"validation", apperrors.Validation("fileSizeBytes", "too large"), http.StatusBadRequest},
		{"internal", &apperrors.InternalError{}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &captureRecorder{}
			w := do(newRouter(&stubFiles{err: tt.err}, rec), http.MethodGet, "/cases/"+caseID+"/files/"+fileID+"/info", nil)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if len(rec.events) != 1 || rec.events[0].Result != audit.ResultFailure {
				t.Errorf("audit events = %+v, want one failure", rec.events)
			}
		})
	}
}
