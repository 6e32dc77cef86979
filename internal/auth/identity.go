package auth

import "errors"

// AccessScope is the connecting application's visibility as asserted by the
// identity provider. Only private applications may auto-provision accounts.
type AccessScope string

const (
	ScopePrivate AccessScope = "private"
	ScopePublic  AccessScope = "public"
)

// Role is an organization role carried in the identity claims.
type Role string

const (
	RoleMember     Role = "Member"
	RoleAdmin      Role = "Admin"
	RoleSuperAdmin Role = "Super Admin"
)

// Organization is one membership entry of an identity, in the order the
// provider sent it.
type Organization struct {
	ID   string
	Role Role
}

var (
	ErrMissingExternalID = errors.New("identity: missing external id")
	ErrMissingEmail      = errors.New("identity: missing email")
)

// Identity represents a verified external identity for one login event.
// It contains facts only, no decisions, and is never mutated after the
// provider builds it.
type Identity struct {
	ExternalID    string // stable provider-scoped user identifier (sub)
	Email         string // fallback matching key, not unique upstream
	GivenName     string
	FamilyName    string
	Organizations []Organization
	AppOwner      bool // owner/administrator of the connecting application
	AccessScope   AccessScope
}

// Validate checks the fields every login depends on.
func (i *Identity) Validate() error {
	if i.ExternalID == "" {
		return ErrMissingExternalID
	}
	if i.Email == "" {
		return ErrMissingEmail
	}
	return nil
}
