package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
)

func newCase(name string) (*models.Case, *models.CaseUser) {
	c := &models.Case{ULID: models.NewULID(), Name: name, Status: models.CaseStatusActive}
	owner := &models.CaseUser{UserULID: models.NewULID(), Actions: models.AllCaseActions(), UserFirstName: "Ada"}
	return c, owner
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCase_CreateWritesOwnerMembership(t *testing.T) {
	table, fake := newTable(t)
	cases := NewCaseRepository(table)
	members := NewCaseUserRepository(table)
	c, owner := newCase("Burglary 12")

	if err := cases.Create(context.Background(), c, owner); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if fake.Calls["TransactWriteItems"] != 1 {
		t.Errorf("TransactWriteItems calls = %d, want 1", fake.Calls["TransactWriteItems"])
	}

	got, err := cases.GetByID(context.Background(), c.ULID)
	if err != nil || got == nil {
		t.Fatalf("GetByID = %v, %v", got, err)
	}
	if got.Name != "Burglary 12" || got.Status != models.CaseStatusActive {
		t.Errorf("case = %+v", got)
	}

	cu, err := members.Get(context.Background(), c.ULID, owner.UserULID)
	if err != nil || cu == nil {
		t.Fatalf("owner membership = %v, %v", cu, err)
	}
	if cu.CaseName != "Burglary 12" || !cu.Can(models.CaseActionCaseAudit) {
		t.Errorf("owner membership = %+v", cu)
	}
}

func TestCase_CreateDuplicateLeavesNothingBehind(t *testing.T) {
	table, fake := newTable(t)
	cases := NewCaseRepository(table)
	c, owner := newCase("one")
	if err := cases.Create(context.Background(), c, owner); err != nil {
		t.Fatalf("Create: %v", err)
	}
	before := fake.Len()

	_, other := newCase("dup")
	if err := cases.Create(context.Background(), c, other); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate Create = %v, want ErrAlreadyExists", err)
	}
	if fake.Len() != before {
		t.Errorf("items = %d, want %d after cancelled transaction", fake.Len(), before)
	}
}

// ---------------------------------------------------------------------------
// GetByID / Update / ListAll
// ---------------------------------------------------------------------------

func TestCase_GetNotFound(t *testing.T) {
	table, _ := newTable(t)
	got, err := NewCaseRepository(table).GetByID(context.Background(), models.NewULID())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil case, got %+v", got)
	}
}

func TestCase_Update(t *testing.T) {
	table, _ := newTable(t)
	cases := NewCaseRepository(table)
	c, owner := newCase("before")
	if err := cases.Create(context.Background(), c, owner); err != nil {
		t.Fatalf("Create: %v", err)
	}

	c.Name = "after"
	c.Status = models.CaseStatusInactive
	if err := cases.Update(context.Background(), c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := cases.GetByID(context.Background(), c.ULID)
	if got.Name != "after" || got.Status != models.CaseStatusInactive {
		t.Errorf("after Update = %+v", got)
	}
}

func TestCase_UpdateMissing(t *testing.T) {
	table, _ := newTable(t)
	c, _ := newCase("ghost")
	if err := NewCaseRepository(table).Update(context.Background(), c); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update = %v, want ErrNotFound", err)
	}
}

func TestCase_ListAll(t *testing.T) {
	table, _ := newTable(t)
	cases := NewCaseRepository(table)
	for _, name := range []string{"a", "b", "c"} {
		c, owner := newCase(name)
		if err := cases.Create(context.Background(), c, owner); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	got, err := cases.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("ListAll returned %d cases, want 3", len(got))
	}
}

func TestCase_DBError(t *testing.T) {
	table, fake := newTable(t)
	fake.Err = errDB
	cases := NewCaseRepository(table)
	c, owner := newCase("x")
	if err := cases.Create(context.Background(), c, owner); !errors.Is(err, errDB) {
		t.Errorf("Create = %v, want errDB", err)
	}
	if _, err := cases.ListAll(context.Background()); !errors.Is(err, errDB) {
		t.Errorf("ListAll = %v, want errDB", err)
	}
}
