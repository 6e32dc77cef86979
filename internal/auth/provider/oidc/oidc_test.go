package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"sso-service/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimsIdentity(t *testing.T) {
	c := Claims{
		Subject:    "ext-1",
		Email:      "u@y.com",
		GivenName:  "Una",
		FamilyName: "Young",
		Organizations: []OrganizationClaim{
			{ID: "1", Role: "Admin"},
			{ID: "2", Role: "Member"},
		},
		AppOwner:    true,
		AccessScope: "Private",
	}

	identity, err := c.Identity()
	require.NoError(t, err)
	assert.Equal(t, "ext-1", identity.ExternalID)
	assert.Equal(t, "u@y.com", identity.Email)
	assert.Equal(t, []auth.Organization{
		{ID: "1", Role: auth.RoleAdmin},
		{ID: "2", Role: auth.RoleMember},
	}, identity.Organizations)
	assert.True(t, identity.AppOwner)
	assert.Equal(t, auth.ScopePrivate, identity.AccessScope)
}

func TestClaimsIdentity_ScopeDefaultsToPublic(t *testing.T) {
	for _, scope := range []string{"", "public", "partner"} {
		identity, err := Claims{Subject: "s", Email: "e@x.com", AccessScope: scope}.Identity()
		require.NoError(t, err)
		assert.Equal(t, auth.ScopePublic, identity.AccessScope, scope)
	}
}

func TestClaimsIdentity_MissingRequired(t *testing.T) {
	_, err := Claims{Email: "e@x.com"}.Identity()
	assert.ErrorIs(t, err, ErrMissingClaims)

	_, err = Claims{Subject: "s"}.Identity()
	assert.ErrorIs(t, err, ErrMissingClaims)
}

func newDiscoveryServer(t *testing.T) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                srv.URL,
			"authorization_endpoint":                srv.URL + "/protocol/openid-connect/auth",
			"token_endpoint":                        srv.URL + "/protocol/openid-connect/token",
			"jwks_uri":                              srv.URL + "/protocol/openid-connect/certs",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_AuthCodeURL(t *testing.T) {
	srv := newDiscoveryServer(t)

	p, err := New(context.Background(), Options{
		Issuer:        srv.URL,
		ClientID:      "sso-service",
		RedirectURL:   "http://localhost:8080/sso/callback",
		PublicBaseURL: "https://login.example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "oidc", p.Name())

	u, err := url.Parse(p.AuthCodeURL("state-1", "challenge-1"))
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "login.example.com", u.Host)
	assert.Equal(t, "/protocol/openid-connect/auth", u.Path)

	q := u.Query()
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "challenge-1", q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, "sso-service", q.Get("client_id"))
}

func TestNew_RequiresOptions(t *testing.T) {
	_, err := New(context.Background(), Options{Issuer: "http://issuer"})
	assert.Error(t, err)
}

func TestRebase(t *testing.T) {
	got, err := rebase("http://keycloak:8080/realms/sso/auth?x=1", "https://sso.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://sso.example.com/realms/sso/auth?x=1", got)

	_, err = rebase("http://keycloak/auth", "not a url")
	assert.Error(t, err)
}
