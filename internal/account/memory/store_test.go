package memory

import (
	"context"
	"testing"

	"sso-service/internal/account"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	id, err := s.Insert(ctx, &account.Account{ExternalID: "ext-1", Email: "U@y.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := s.FindIDByExternalID(ctx, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	unlinked, err := s.Insert(ctx, &account.Account{Email: "v@y.com"})
	require.NoError(t, err)

	got, err = s.FindIDByEmail(ctx, "V@Y.com")
	require.NoError(t, err)
	assert.Equal(t, unlinked, got)

	_, err = s.FindIDByExternalID(ctx, "ext-2")
	assert.ErrorIs(t, err, account.ErrNotFound)

	_, err = s.FindIDByEmail(ctx, "nobody@y.com")
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestStore_InsertDuplicateExternalID(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Insert(ctx, &account.Account{ExternalID: "ext-1", Email: "a@x.com"})
	require.NoError(t, err)

	_, err = s.Insert(ctx, &account.Account{ExternalID: "ext-1", Email: "b@x.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, account.ErrDuplicateExternalID)
	assert.True(t, account.IsPersistence(err))
	assert.Equal(t, 1, s.Count())
}

func TestStore_EmailLookupReturnsOldest(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	first, err := s.Insert(ctx, &account.Account{Email: "a@x.com"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, &account.Account{Email: "a@x.com"})
	require.NoError(t, err)

	got, err := s.FindIDByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestStore_LinkExternalIDOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	id, err := s.Insert(ctx, &account.Account{Email: "a@x.com"})
	require.NoError(t, err)

	ok, err := s.LinkExternalID(ctx, id, "ext-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.LinkExternalID(ctx, id, "ext-2")
	require.NoError(t, err)
	assert.False(t, ok, "a linked external id must never be reassigned")

	row, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ext-1", row.ExternalID)

	ok, err = s.LinkExternalID(ctx, "missing", "ext-3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_UpdateSoftFields(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	id, err := s.Insert(ctx, &account.Account{
		ExternalID:     "ext-1",
		Email:          "a@x.com",
		GivenName:      "Ann",
		CredentialHash: "hash",
		Confirmed:      true,
	})
	require.NoError(t, err)

	ok, err := s.UpdateSoftFields(ctx, id, account.SoftFields{
		Username:  "ext-1",
		Email:     "b@x.com",
		GivenName: "Anna",
	})
	require.NoError(t, err)
	assert.True(t, ok)

	row, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", row.Email)
	assert.Equal(t, "Anna", row.GivenName)
	assert.Equal(t, "hash", row.CredentialHash)
	assert.True(t, row.Confirmed)

	ok, err = s.UpdateSoftFields(ctx, "missing", account.SoftFields{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_AdminRegistry(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	added, err := s.AddAdmin(ctx, "b")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddAdmin(ctx, "a")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddAdmin(ctx, "b")
	require.NoError(t, err)
	assert.False(t, added)

	admins, err := s.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, admins)

	isAdmin, err := s.IsAdmin(ctx, "a")
	require.NoError(t, err)
	assert.True(t, isAdmin)

	isAdmin, err = s.IsAdmin(ctx, "c")
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestStore_EmailLookupSkipsLinkedAccounts(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Insert(ctx, &account.Account{ExternalID: "ext-A", Email: "shared@x.com"})
	require.NoError(t, err)

	_, err = s.FindIDByEmail(ctx, "shared@x.com")
	assert.ErrorIs(t, err, account.ErrNotFound)

	unlinked, err := s.Insert(ctx, &account.Account{Email: "shared@x.com"})
	require.NoError(t, err)

	got, err := s.FindIDByEmail(ctx, "shared@x.com")
	require.NoError(t, err)
	assert.Equal(t, unlinked, got)
}
