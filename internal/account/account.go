package account

import "time"

// Account is a locally persisted user row.
//
// ExternalID is empty until the account is linked to an SSO identity and is
// never reassigned afterwards. Email, Username, GivenName and FamilyName are
// soft fields overwritten on every login; everything else is set at creation.
type Account struct {
	ID         string
	ExternalID string

	Username   string
	Email      string
	GivenName  string
	FamilyName string

	// CredentialHash satisfies the local password policy but is never
	// checked: login is SSO only.
	CredentialHash string
	HashVersion    string

	Locale   string
	Timezone string
	City     string
	Country  string

	Suspended bool
	Confirmed bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SoftFields are the attributes rewritten from the identity on every login.
type SoftFields struct {
	Username   string
	Email      string
	GivenName  string
	FamilyName string
}

// Defaults are the creation-only attributes applied to provisioned accounts.
type Defaults struct {
	Locale   string
	Timezone string
	City     string
	Country  string
}
