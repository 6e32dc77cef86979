// Package profilesync writes the identity's current soft fields onto the
// local account on every login.
package profilesync

import (
	"context"
	"errors"
	"fmt"

	"sso-service/internal/account"
	"sso-service/internal/auth"
)

// ErrNoAccount is returned when Sync is called without a resolved account.
// Callers must resolve or provision first.
var ErrNoAccount = errors.New("profilesync: account id is required")

// PartialFailure collects the writes that failed during one sync. It never
// blocks a login.
type PartialFailure struct {
	AccountID string
	Errs      []error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("profilesync: account %s: %v", e.AccountID, errors.Join(e.Errs...))
}

func (e *PartialFailure) Unwrap() []error {
	return e.Errs
}

type Synchronizer struct {
	store  account.Store
	admins account.AdminRegistry
}

func New(store account.Store, admins account.AdminRegistry) *Synchronizer {
	return &Synchronizer{
		store:  store,
		admins: admins,
	}
}

// Sync overwrites the soft fields, links the external id when link is set
// and re-evaluates admin status. Every step runs even if an earlier one
// failed; failures come back as a *PartialFailure.
func (s *Synchronizer) Sync(
	ctx context.Context,
	accountID string,
	identity *auth.Identity,
	link bool,
) error {
	if accountID == "" {
		return ErrNoAccount
	}

	var errs []error

	ok, err := s.store.UpdateSoftFields(ctx, accountID, account.SoftFields{
		Username:   identity.ExternalID,
		Email:      identity.Email,
		GivenName:  identity.GivenName,
		FamilyName: identity.FamilyName,
	})
	switch {
	case err != nil:
		errs = append(errs, err)
	case !ok:
		errs = append(errs, fmt.Errorf("update soft fields: %w", account.ErrNotFound))
	}

	if link {
		ok, err := s.store.LinkExternalID(ctx, accountID, identity.ExternalID)
		switch {
		case err != nil:
			errs = append(errs, err)
		case !ok:
			errs = append(errs, errors.New("link external id: account missing or already linked"))
		}
	}

	// Demotion is not handled: a user classified as admin once stays in
	// the registry.
	if auth.Classify(identity) == auth.PrivilegeAdmin {
		if _, err := s.admins.AddAdmin(ctx, accountID); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return &PartialFailure{AccountID: accountID, Errs: errs}
	}
	return nil
}
