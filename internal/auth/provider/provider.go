package provider

import (
	"context"

	"sso-service/internal/auth"
)

// IdentityProvider is the contract for the upstream SSO provider.
// Implementations verify the assertion and return identity facts only;
// account lookup, provisioning and sessions belong to the login flow.
type IdentityProvider interface {
	// Name returns the provider identifier used in logs.
	Name() string

	// AuthCodeURL returns the authorization URL. State and PKCE
	// parameters are provided by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode redeems the authorization code and returns the
	// verified identity.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (*auth.Identity, error)
}
