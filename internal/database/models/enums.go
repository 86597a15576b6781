package models

import "fmt"

// Role is the account-level role of a user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// MemberRole is a user's role inside one workspace.
type MemberRole string

const (
	MemberRoleOwner   MemberRole = "owner"
	MemberRoleManager MemberRole = "manager"
	MemberRoleEditor  MemberRole = "editor"
	MemberRoleViewer  MemberRole = "viewer"
)

func (r MemberRole) Valid() bool {
	switch r {
	case MemberRoleOwner, MemberRoleManager, MemberRoleEditor, MemberRoleViewer:
		return true
	}
	return false
}

// Assignable reports whether the role may be granted through member
// management. Ownership only moves through a transfer.
func (r MemberRole) Assignable() bool {
	return r.Valid() && r != MemberRoleOwner
}

func ParseMemberRole(s string) (MemberRole, error) {
	r := MemberRole(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown member role %q", s)
	}
	return r, nil
}

type BlogStatus string

const (
	BlogStatusDraft     BlogStatus = "draft"
	BlogStatusPublished BlogStatus = "published"
	BlogStatusArchived  BlogStatus = "archived"
)

func (s BlogStatus) Valid() bool {
	switch s {
	case BlogStatusDraft, BlogStatusPublished, BlogStatusArchived:
		return true
	}
	return false
}

func ParseBlogStatus(s string) (BlogStatus, error) {
	st := BlogStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown blog status %q", s)
	}
	return st, nil
}

type TokenType string

const (
	TokenTypeAccess            TokenType = "access"
	TokenTypeEmailVerification TokenType = "email_verification"
	TokenTypePasswordReset     TokenType = "password_reset"
)

func (t TokenType) Valid() bool {
	switch t {
	case TokenTypeAccess, TokenTypeEmailVerification, TokenTypePasswordReset:
		return true
	}
	return false
}

func ParseTokenType(s string) (TokenType, error) {
	tt := TokenType(s)
	if !tt.Valid() {
		return "", fmt.Errorf("unknown token type %q", s)
	}
	return tt, nil
}
