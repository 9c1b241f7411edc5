package auth

import "testing"

func TestValidateScopes(t *testing.T) {
	tests := []struct {
		name    string
		scopes  []string
		wantErr bool
	}{
		{"empty list", []string{}, false},
		{"single valid scope", []string{"cases:read"}, false},
		{"multiple valid scopes", []string{"cases:read", "audit:system", "admin"}, false},
		{"all defined scopes", func() []string {
			s := make([]string, 0, len(AllScopes()))
			for _, sc := range AllScopes() {
				s = append(s, string(sc))
			}
			return s
		}(), false},
		{"invalid scope", []string{"not:a:scope"}, true},
		{"mixed valid and invalid", []string{"cases:read", "invalid"}, true},
		{"empty string scope", []string{""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScopes(tt.scopes)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateScopes(%v) error = %v, wantErr %v", tt.scopes, err, tt.wantErr)
			}
		})
	}
}

func TestHasScope(t *testing.T) {
	tests := []struct {
		name       string
		userScopes []string
		required   Scope
		want       bool
	}{
		// Exact match
		{"exact match cases:read", []string{"cases:read"}, ScopeCasesRead, true},
		{"exact match admin", []string{"admin"}, ScopeAdmin, true},
		// Admin wildcard grants everything
		{"admin grants audit:system", []string{"admin"}, ScopeAuditSystem, true},
		{"admin grants files:write", []string{"admin"}, ScopeFilesWrite, true},
		// Write implies read
		{"cases:write grants cases:read", []string{"cases:write"}, ScopeCasesRead, true},
		{"files:write grants files:read", []string{"files:write"}, ScopeFilesRead, true},
		{"cases:read does not grant cases:write", []string{"cases:read"}, ScopeCasesWrite, false},
		// Audit scopes are independent
		{"audit:case does not grant audit:user", []string{"audit:case"}, ScopeAuditUser, false},
		{"audit:user does not grant audit:system", []string{"audit:user"}, ScopeAuditSystem, false},
		// Edge cases
		{"nil scopes", nil, ScopeCasesRead, false},
		{"empty scopes", []string{}, ScopeCasesRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasScope(tt.userScopes, tt.required); got != tt.want {
				t.Errorf("HasScope(%v, %q) = %v, want %v", tt.userScopes, tt.required, got, tt.want)
			}
		})
	}
}

func TestHasAnyAndAllScopes(t *testing.T) {
	user := []string{"cases:read", "audit:case"}
	if !HasAnyScope(user, []Scope{ScopeAuditSystem, ScopeAuditCase}) {
		t.Error("HasAnyScope = false, want true")
	}
	if HasAnyScope(user, []Scope{ScopeAuditSystem, ScopeFilesWrite}) {
		t.Error("HasAnyScope = true, want false")
	}
	if !HasAllScopes(user, []Scope{ScopeCasesRead, ScopeAuditCase}) {
		t.Error("HasAllScopes = false, want true")
	}
	if HasAllScopes(user, []Scope{ScopeCasesRead, ScopeCasesWrite}) {
		t.Error("HasAllScopes = true, want false")
	}
}

func TestValidateScopeString(t *testing.T) {
	if err := ValidateScopeString("audit:user"); err != nil {
		t.Errorf("ValidateScopeString(audit:user) = %v", err)
	}
	if err := ValidateScopeString("modules:read"); err == nil {
		t.Error("ValidateScopeString(modules:read) = nil, want error")
	}
}
