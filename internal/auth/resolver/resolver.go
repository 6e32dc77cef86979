package resolver

import (
	"context"
	"errors"

	"sso-service/internal/account"
	"sso-service/internal/auth"
)

// ErrNoAccount means neither the external id nor the email matched a local
// account. It is the normal signal to move on to provisioning.
var ErrNoAccount = errors.New("resolver: no matching account")

// Match is a resolved local account. ByEmail is set when the account was
// found through the email fallback and still needs linking.
type Match struct {
	AccountID string
	ByEmail   bool
}

// Resolver determines which local account an external identity belongs to.
// It only queries; linking happens during sync.
type Resolver struct {
	store account.Store
}

func New(store account.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve looks the identity up by external id first and by email second.
// Store failures are returned as they are and never read as a miss.
func (r *Resolver) Resolve(ctx context.Context, identity *auth.Identity) (Match, error) {
	if identity == nil {
		return Match{}, errors.New("resolver: identity is nil")
	}

	// 1. Stable match on the external id
	id, err := r.store.FindIDByExternalID(ctx, identity.ExternalID)
	if err == nil {
		return Match{AccountID: id}, nil
	}
	if !errors.Is(err, account.ErrNotFound) {
		return Match{}, err
	}

	// 2. Email fallback, unlinked accounts only. An account already linked
	// to another external id is never taken over.
	id, err = r.store.FindIDByEmail(ctx, identity.Email)
	if err == nil {
		return Match{AccountID: id, ByEmail: true}, nil
	}
	if !errors.Is(err, account.ErrNotFound) {
		return Match{}, err
	}

	return Match{}, ErrNoAccount
}
