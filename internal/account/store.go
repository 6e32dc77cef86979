package account

import "context"

// Store is the persistence contract of the login flow. Every call touches a
// single row. Lookups, soft-field updates and linking are safe to retry;
// Insert is not.
type Store interface {
	// FindIDByExternalID returns ErrNotFound when no account is linked to
	// externalID.
	FindIDByExternalID(ctx context.Context, externalID string) (string, error)

	// FindIDByEmail looks only at accounts with no external id yet and
	// returns ErrNotFound when none has the email. Emails are compared
	// case-insensitively; the oldest match wins.
	FindIDByEmail(ctx context.Context, email string) (string, error)

	// Insert creates the account and returns its id. A second account with
	// the same external id fails with ErrDuplicateExternalID.
	Insert(ctx context.Context, a *Account) (string, error)

	// UpdateSoftFields reports false when the account does not exist.
	UpdateSoftFields(ctx context.Context, id string, f SoftFields) (bool, error)

	// LinkExternalID sets the external id only if it is still unset and
	// reports whether the row was written.
	LinkExternalID(ctx context.Context, id string, externalID string) (bool, error)

	Get(ctx context.Context, id string) (*Account, error)
}

// AdminRegistry is the site-wide ordered set of administrator account ids.
// Membership is only ever added; demotion is not handled here.
type AdminRegistry interface {
	// AddAdmin is an atomic add-if-absent and reports whether the id was new.
	AddAdmin(ctx context.Context, accountID string) (bool, error)
	IsAdmin(ctx context.Context, accountID string) (bool, error)
	// ListAdmins returns ids in the order they were granted.
	ListAdmins(ctx context.Context) ([]string, error)
}
