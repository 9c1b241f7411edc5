package models

import "testing"

// ---------------------------------------------------------------------------
// Enum validation
// ---------------------------------------------------------------------------

func TestCaseStatusValid(t *testing.T) {
	tests := []struct {
		status CaseStatus
		want   bool
	}{
		{CaseStatusActive, true},
		{CaseStatusInactive, true},
		{"active", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.status.Valid(); got != tt.want {
			t.Errorf("CaseStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestAuditTypeValid(t *testing.T) {
	for _, at := range []AuditType{AuditTypeCase, AuditTypeCaseFile, AuditTypeUser, AuditTypeSystem} {
		if !at.Valid() {
			t.Errorf("AuditType(%q).Valid() = false, want true", at)
		}
	}
	if AuditType("OBJECT").Valid() {
		t.Error("unknown audit type reported valid")
	}
}

func TestValidCaseAction(t *testing.T) {
	seen := map[CaseAction]bool{}
	for _, a := range AllCaseActions() {
		if !ValidCaseAction(a) {
			t.Errorf("ValidCaseAction(%q) = false", a)
		}
		if seen[a] {
			t.Errorf("AllCaseActions() lists %q twice", a)
		}
		seen[a] = true
	}
	if ValidCaseAction("DELETE_CASE") {
		t.Error("ValidCaseAction accepted an unknown action")
	}
}

// ---------------------------------------------------------------------------
// CaseFile
// ---------------------------------------------------------------------------

func TestCaseFileObjectKey(t *testing.T) {
	f := &CaseFile{CaseULID: "01HCASE", ULID: "01HFILE", FileName: "disk.img", FilePath: "/images/"}
	if got := f.ObjectKey(); got != "01HCASE/01HFILE" {
		t.Errorf("ObjectKey() = %q, want %q", got, "01HCASE/01HFILE")
	}
}
