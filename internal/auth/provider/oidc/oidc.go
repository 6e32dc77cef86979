// Package oidc implements the upstream SSO provider over OpenID Connect.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"sso-service/internal/auth"
	"sso-service/internal/logger"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const providerName = "oidc"

var (
	ErrMissingIDToken = errors.New("oidc: token response has no id_token")
	ErrMissingClaims  = errors.New("oidc: id_token missing sub or email")
)

type Options struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// PublicBaseURL replaces the scheme and host of the discovered
	// authorization endpoint. Browsers reach the issuer there while the
	// service talks to it on Issuer.
	PublicBaseURL string
}

// Provider verifies ID tokens from the configured issuer and maps their
// claims to an auth.Identity.
type Provider struct {
	oauthConfig *oauth2.Config
	verifier    *gooidc.IDTokenVerifier
}

// New initializes the provider using OIDC discovery on opts.Issuer.
func New(ctx context.Context, opts Options) (*Provider, error) {
	if opts.Issuer == "" || opts.ClientID == "" || opts.RedirectURL == "" {
		return nil, errors.New("oidc: issuer, client id and redirect url are required")
	}

	discovered, err := gooidc.NewProvider(ctx, opts.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc: discovery failed: %w", err)
	}

	ep := discovered.Endpoint()
	if opts.PublicBaseURL != "" {
		ep.AuthURL, err = rebase(ep.AuthURL, opts.PublicBaseURL)
		if err != nil {
			return nil, err
		}
	}

	return &Provider{
		oauthConfig: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Endpoint:     ep,
			Scopes:       []string{gooidc.ScopeOpenID, "email", "profile"},
		},
		verifier: discovered.Verifier(&gooidc.Config{ClientID: opts.ClientID}),
	}, nil
}

func (p *Provider) Name() string {
	return providerName
}

// AuthCodeURL builds the authorization URL with PKCE parameters.
func (p *Provider) AuthCodeURL(state string, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode redeems the code, verifies the ID token and returns the
// identity it asserts.
func (p *Provider) ExchangeCode(
	ctx context.Context,
	code string,
	codeVerifier string,
) (*auth.Identity, error) {

	token, err := p.oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		logger.Error("oidc token exchange failed", map[string]any{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("oidc: token exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, ErrMissingIDToken
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		logger.Error("oidc id_token verification failed", map[string]any{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("oidc: verify id_token: %w", err)
	}

	var c Claims
	if err := idToken.Claims(&c); err != nil {
		return nil, fmt.Errorf("oidc: parse claims: %w", err)
	}

	identity, err := c.Identity()
	if err != nil {
		return nil, err
	}

	logger.Info("oidc identity verified", map[string]any{
		"issuer":        idToken.Issuer,
		"external_id":   identity.ExternalID,
		"organizations": len(identity.Organizations),
		"app_owner":     identity.AppOwner,
		"access_scope":  identity.AccessScope,
	})

	return identity, nil
}

// Claims is the subset of ID token claims the service reads.
type Claims struct {
	Subject       string              `json:"sub"`
	Email         string              `json:"email"`
	GivenName     string              `json:"given_name"`
	FamilyName    string              `json:"family_name"`
	Organizations []OrganizationClaim `json:"organizations"`
	AppOwner      bool                `json:"app_owner"`
	AccessScope   string              `json:"access_scope"`
}

type OrganizationClaim struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Identity converts the claims. Organization order is preserved. A missing
// or unrecognised access_scope is treated as public, which never
// provisions.
func (c Claims) Identity() (*auth.Identity, error) {
	if c.Subject == "" || c.Email == "" {
		return nil, ErrMissingClaims
	}

	orgs := make([]auth.Organization, 0, len(c.Organizations))
	for _, o := range c.Organizations {
		orgs = append(orgs, auth.Organization{ID: o.ID, Role: auth.Role(o.Role)})
	}

	scope := auth.ScopePublic
	if strings.EqualFold(c.AccessScope, string(auth.ScopePrivate)) {
		scope = auth.ScopePrivate
	}

	return &auth.Identity{
		ExternalID:    c.Subject,
		Email:         c.Email,
		GivenName:     c.GivenName,
		FamilyName:    c.FamilyName,
		Organizations: orgs,
		AppOwner:      c.AppOwner,
		AccessScope:   scope,
	}, nil
}

func rebase(endpoint, base string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("oidc: parse auth url: %w", err)
	}
	b, err := url.Parse(base)
	if err != nil || b.Scheme == "" || b.Host == "" {
		return "", fmt.Errorf("oidc: invalid public base url %q", base)
	}
	u.Scheme = b.Scheme
	u.Host = b.Host
	return u.String(), nil
}
