package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/digital-evidence-archive/dea-backend/internal/auth"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
)

func TestResolve_RegistersOnFirstSight(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users)
	id := &auth.Identity{TokenID: "sub-1", Username: "alice", FirstName: "Alice", LastName: "Smith"}

	first, err := svc.Resolve(context.Background(), id)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !models.IsULID(first.ULID) {
		t.Errorf("ULID = %q, want a ULID", first.ULID)
	}

	second, err := svc.Resolve(context.Background(), id)
	if err != nil {
		t.Fatalf("Resolve() second error = %v", err)
	}
	if second.ULID != first.ULID {
		t.Errorf("second Resolve ULID = %q, want %q", second.ULID, first.ULID)
	}
}

func TestResolve_CopiesNameChanges(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users)
	ctx := context.Background()

	u, err := svc.Resolve(ctx, &auth.Identity{TokenID: "sub-1", Username: "alice", FirstName: "Alice"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if _, err := svc.Resolve(ctx, &auth.Identity{TokenID: "sub-1", Username: "alice", FirstName: "Alicia"}); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	stored, err := f.users.GetByID(ctx, u.ULID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.FirstName != "Alicia" {
		t.Errorf("FirstName = %q, want Alicia", stored.FirstName)
	}
}

func TestResolve_Errors(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users)

	_, err := svc.Resolve(context.Background(), &auth.Identity{})
	assertStatus(t, err, http.StatusBadRequest)

	f.fake.Err = errDB
	_, err = svc.Resolve(context.Background(), &auth.Identity{TokenID: "sub"})
	assertStatus(t, err, http.StatusInternalServerError)
}

func TestUserGet(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users)
	u := f.user(t, "bob")

	got, err := svc.Get(context.Background(), u.ULID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Username != "bob" {
		t.Errorf("Username = %q, want bob", got.Username)
	}

	_, err = svc.Get(context.Background(), models.NewULID())
	assertStatus(t, err, http.StatusNotFound)

	_, err = svc.Get(context.Background(), "not-a-ulid")
	assertStatus(t, err, http.StatusBadRequest)
}
