package profilesync

import (
	"context"
	"errors"
	"testing"

	"sso-service/internal/account"
	"sso-service/internal/account/memory"
	"sso-service/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct {
	*memory.Store
}

func (brokenStore) UpdateSoftFields(ctx context.Context, id string, f account.SoftFields) (bool, error) {
	return false, &account.PersistenceError{Op: "update soft fields", Err: errors.New("timeout")}
}

func seed(t *testing.T, store *memory.Store, a *account.Account) string {
	t.Helper()
	id, err := store.Insert(context.Background(), a)
	require.NoError(t, err)
	return id
}

func TestSync_OverwritesSoftFieldsOnly(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	id := seed(t, store, &account.Account{
		ExternalID:     "ext-1",
		Email:          "old@y.com",
		GivenName:      "Old",
		CredentialHash: "hash",
		Confirmed:      true,
		Locale:         "en",
	})

	err := New(store, store).Sync(ctx, id, &auth.Identity{
		ExternalID: "ext-1",
		Email:      "new@y.com",
		GivenName:  "New",
		FamilyName: "Name",
	}, false)
	require.NoError(t, err)

	row, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new@y.com", row.Email)
	assert.Equal(t, "New", row.GivenName)
	assert.Equal(t, "Name", row.FamilyName)
	assert.Equal(t, "ext-1", row.Username)
	assert.Equal(t, "hash", row.CredentialHash)
	assert.True(t, row.Confirmed)
	assert.Equal(t, "en", row.Locale)
}

func TestSync_LinksEmailMatchedAccount(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	id := seed(t, store, &account.Account{Email: "a@x.com"})

	err := New(store, store).Sync(ctx, id, &auth.Identity{ExternalID: "ext-9", Email: "a@x.com"}, true)
	require.NoError(t, err)

	got, err := store.FindIDByExternalID(ctx, "ext-9")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestSync_LinkRefusedWhenAlreadyLinked(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	id := seed(t, store, &account.Account{ExternalID: "ext-1", Email: "a@x.com"})

	err := New(store, store).Sync(ctx, id, &auth.Identity{ExternalID: "ext-2", Email: "a@x.com"}, true)

	var pf *PartialFailure
	require.ErrorAs(t, err, &pf)
	assert.Len(t, pf.Errs, 1)

	row, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ext-1", row.ExternalID)
	assert.Equal(t, "ext-2", row.Username, "soft fields are still written")
}

func TestSync_ReAddsAdmin(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	id := seed(t, store, &account.Account{ExternalID: "ext-1", Email: "a@x.com"})

	err := New(store, store).Sync(ctx, id, &auth.Identity{
		ExternalID: "ext-1",
		Email:      "a@x.com",
		AppOwner:   true,
	}, false)
	require.NoError(t, err)

	isAdmin, err := store.IsAdmin(ctx, id)
	require.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestSync_NoDemotion(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	id := seed(t, store, &account.Account{ExternalID: "ext-1", Email: "a@x.com"})
	_, err := store.AddAdmin(ctx, id)
	require.NoError(t, err)

	err = New(store, store).Sync(ctx, id, &auth.Identity{
		ExternalID:    "ext-1",
		Email:         "a@x.com",
		Organizations: []auth.Organization{{ID: "1", Role: auth.RoleMember}},
	}, false)
	require.NoError(t, err)

	isAdmin, err := store.IsAdmin(ctx, id)
	require.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestSync_WriteFailureIsPartial(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	id := seed(t, mem, &account.Account{Email: "a@x.com"})

	err := New(brokenStore{mem}, mem).Sync(ctx, id, &auth.Identity{ExternalID: "ext-1", Email: "a@x.com"}, true)

	var pf *PartialFailure
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, id, pf.AccountID)
	assert.True(t, account.IsPersistence(err))

	// linking still ran
	got, err := mem.FindIDByExternalID(ctx, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestSync_RequiresAccountID(t *testing.T) {
	store := memory.NewStore()
	err := New(store, store).Sync(context.Background(), "", &auth.Identity{ExternalID: "ext-1"}, false)
	assert.ErrorIs(t, err, ErrNoAccount)
	assert.Zero(t, store.Count())
}
