package provisioner

import (
	"context"
	"errors"
	"fmt"

	"sso-service/internal/account"
	"sso-service/internal/auth"
	"sso-service/internal/auth/credentials"
	"sso-service/internal/logger"
)

// ErrAccessDenied is returned when the identity may not get a new account.
var ErrAccessDenied = errors.New("provisioner: access denied")

// Policy controls just-in-time account creation. Only identities from a
// private application are ever provisioned; AutoProvision can switch
// creation off entirely.
type Policy struct {
	AutoProvision bool
	BcryptCost    int
	Defaults      account.Defaults
}

// DefaultPolicy provisions accounts for private applications only.
func DefaultPolicy() Policy {
	return Policy{
		AutoProvision: true,
		BcryptCost:    12,
		Defaults: account.Defaults{
			Locale:   "en",
			Timezone: "99",
			City:     "Sydney",
			Country:  "AU",
		},
	}
}

// Provisioner creates local accounts for identities the resolver could not
// match.
type Provisioner struct {
	store  account.Store
	admins account.AdminRegistry
	policy Policy
}

func New(store account.Store, admins account.AdminRegistry, policy Policy) *Provisioner {
	return &Provisioner{
		store:  store,
		admins: admins,
		policy: policy,
	}
}

// Provision inserts a new account for identity and returns its id.
//
// The external id is written with the row itself, so a concurrent first
// login for the same identity fails on the unique constraint with
// account.ErrDuplicateExternalID instead of creating a second account. That
// error is returned unretried.
func (p *Provisioner) Provision(ctx context.Context, identity *auth.Identity) (string, error) {
	if !p.Allowed(identity) {
		return "", ErrAccessDenied
	}

	a, err := p.build(identity)
	if err != nil {
		return "", err
	}

	id, err := p.store.Insert(ctx, a)
	if err != nil {
		return "", err
	}

	admin := auth.Classify(identity) == auth.PrivilegeAdmin
	if admin {
		// Not transactional with the insert; the next sync re-adds it.
		if _, err := p.admins.AddAdmin(ctx, id); err != nil {
			logger.Warn("admin registry update failed after provisioning", map[string]any{
				"account_id": id,
				"error":      err.Error(),
			})
		}
	}

	logger.Info("account provisioned", map[string]any{
		"account_id":  id,
		"external_id": identity.ExternalID,
		"admin":       admin,
	})

	return id, nil
}

// Allowed reports whether the policy lets identity get a new account.
func (p *Provisioner) Allowed(identity *auth.Identity) bool {
	return p.policy.AutoProvision && identity.AccessScope == auth.ScopePrivate
}

func (p *Provisioner) build(identity *auth.Identity) (*account.Account, error) {
	hash, version, err := credentials.PlaceholderHash(p.policy.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("provisioner: %w", err)
	}

	d := p.policy.Defaults
	return &account.Account{
		ExternalID:     identity.ExternalID,
		Username:       identity.ExternalID,
		Email:          identity.Email,
		GivenName:      identity.GivenName,
		FamilyName:     identity.FamilyName,
		CredentialHash: hash,
		HashVersion:    version,
		Locale:         d.Locale,
		Timezone:       d.Timezone,
		City:           d.City,
		Country:        d.Country,
		Suspended:      false,
		Confirmed:      true,
	}, nil
}
