// Package auth - scopes.go defines the role scopes that gate archive routes
// and provides HasScope, HasAnyScope, and HasAllScopes helper functions for scope checking.
// Scopes say which kinds of operation a role may attempt; whether a caller may touch a
// particular case is decided separately by case membership.
package auth

import (
	"errors"
	"fmt"
)

// Scope represents a permission/scope type
type Scope string

const (
	// Case scopes
	ScopeCasesRead  Scope = "cases:read"
	ScopeCasesWrite Scope = "cases:write"

	// Case file scopes
	ScopeFilesRead  Scope = "files:read"
	ScopeFilesWrite Scope = "files:write"

	// Audit scopes, one per audit kind
	ScopeAuditCase   Scope = "audit:case" // case and case-file audits, still subject to membership
	ScopeAuditUser   Scope = "audit:user"
	ScopeAuditSystem Scope = "audit:system"

	// Admin scope (wildcard - all permissions)
	ScopeAdmin Scope = "admin"
)

// AllScopes returns all valid scopes
func AllScopes() []Scope {
	return []Scope{
		ScopeCasesRead,
		ScopeCasesWrite,
		ScopeFilesRead,
		ScopeFilesWrite,
		ScopeAuditCase,
		ScopeAuditUser,
		ScopeAuditSystem,
		ScopeAdmin,
	}
}

// ValidScopes returns a map of valid scope strings
func ValidScopes() map[string]bool {
	validScopes := make(map[string]bool)
	for _, scope := range AllScopes() {
		validScopes[string(scope)] = true
	}
	return validScopes
}

// ValidateScopes checks if all provided scopes are valid
func ValidateScopes(scopes []string) error {
	validScopes := ValidScopes()

	for _, scope := range scopes {
		if !validScopes[scope] {
			return fmt.Errorf("invalid scope: %s", scope)
		}
	}

	return nil
}

// HasScope checks if a user has a required scope
// Supports wildcard admin scope
func HasScope(userScopes []string, required Scope) bool {
	requiredStr := string(required)

	for _, scope := range userScopes {
		if scope == requiredStr {
			return true
		}

		if scope == string(ScopeAdmin) {
			return true
		}

		// write implies read
		if required == ScopeCasesRead && scope == string(ScopeCasesWrite) {
			return true
		}
		if required == ScopeFilesRead && scope == string(ScopeFilesWrite) {
			return true
		}
	}

	return false
}

// HasAnyScope checks if a user has at least one of the required scopes
func HasAnyScope(userScopes []string, requiredScopes []Scope) bool {
	for _, required := range requiredScopes {
		if HasScope(userScopes, required) {
			return true
		}
	}
	return false
}

// HasAllScopes checks if a user has all of the required scopes
func HasAllScopes(userScopes []string, requiredScopes []Scope) bool {
	for _, required := range requiredScopes {
		if !HasScope(userScopes, required) {
			return false
		}
	}
	return true
}

// ValidateScopeString validates a single scope string
func ValidateScopeString(scope string) error {
	if !ValidScopes()[scope] {
		return errors.New("invalid scope")
	}
	return nil
}
