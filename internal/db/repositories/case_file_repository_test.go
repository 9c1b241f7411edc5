package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
)

func TestCaseFile_UploadLifecycle(t *testing.T) {
	table, _ := newTable(t)
	cases := NewCaseRepository(table)
	files := NewCaseFileRepository(table)
	ctx := context.Background()

	c, owner := newCase("evidence")
	if err := cases.Create(ctx, c, owner); err != nil {
		t.Fatalf("Create case: %v", err)
	}
	f := &models.CaseFile{
		ULID: models.NewULID(), CaseULID: c.ULID, FileName: "disk.img", FilePath: "/",
		ContentType: "application/octet-stream", FileSizeBytes: 1024,
		UploadID: "upload-1", Status: models.CaseFileStatusPending, CreatedBy: owner.UserULID,
	}
	if err := files.Create(ctx, f); err != nil {
		t.Fatalf("Create file: %v", err)
	}

	pending, err := files.Get(ctx, c.ULID, f.ULID)
	if err != nil || pending == nil {
		t.Fatalf("Get = %v, %v", pending, err)
	}
	if pending.Status != models.CaseFileStatusPending || pending.UploadID != "upload-1" {
		t.Errorf("pending file = %+v", pending)
	}

	if err := files.Complete(ctx, pending, c); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	done, _ := files.Get(ctx, c.ULID, f.ULID)
	if done.Status != models.CaseFileStatusActive || done.UploadID != "" {
		t.Errorf("completed file = %+v", done)
	}
	updated, _ := cases.GetByID(ctx, c.ULID)
	if updated.ObjectCount != 1 {
		t.Errorf("ObjectCount = %d, want 1", updated.ObjectCount)
	}
}

func TestCaseFile_CompleteMissingCase(t *testing.T) {
	table, _ := newTable(t)
	files := NewCaseFileRepository(table)
	ctx := context.Background()
	c, _ := newCase("never stored")
	f := &models.CaseFile{ULID: models.NewULID(), CaseULID: c.ULID, Status: models.CaseFileStatusPending}
	if err := files.Create(ctx, f); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := files.Complete(ctx, f, c); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Complete = %v, want ErrNotFound", err)
	}
	if c.ObjectCount != 0 {
		t.Errorf("ObjectCount = %d, want rollback to 0", c.ObjectCount)
	}
}

func TestCaseFile_GetNotFound(t *testing.T) {
	table, _ := newTable(t)
	got, err := NewCaseFileRepository(table).Get(context.Background(), models.NewULID(), models.NewULID())
	if err != nil || got != nil {
		t.Errorf("Get = %v, %v; want nil, nil", got, err)
	}
}
