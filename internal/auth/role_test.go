package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		identity Identity
		want     Privilege
	}{
		{
			name:     "no organizations",
			identity: Identity{},
			want:     PrivilegeUser,
		},
		{
			name: "single admin organization",
			identity: Identity{Organizations: []Organization{
				{ID: "1", Role: RoleAdmin},
			}},
			want: PrivilegeAdmin,
		},
		{
			name: "super admin counts as admin",
			identity: Identity{Organizations: []Organization{
				{ID: "1", Role: RoleSuperAdmin},
			}},
			want: PrivilegeAdmin,
		},
		{
			name: "later member overrides earlier admin",
			identity: Identity{Organizations: []Organization{
				{ID: "1", Role: RoleAdmin},
				{ID: "2", Role: RoleMember},
			}},
			want: PrivilegeUser,
		},
		{
			name: "later admin overrides earlier member",
			identity: Identity{Organizations: []Organization{
				{ID: "1", Role: RoleMember},
				{ID: "2", Role: RoleAdmin},
			}},
			want: PrivilegeAdmin,
		},
		{
			name: "app owner wins regardless of organizations",
			identity: Identity{
				AppOwner: true,
				Organizations: []Organization{
					{ID: "1", Role: RoleAdmin},
					{ID: "2", Role: RoleMember},
				},
			},
			want: PrivilegeAdmin,
		},
		{
			name: "unknown role is not admin",
			identity: Identity{Organizations: []Organization{
				{ID: "1", Role: "Owner"},
			}},
			want: PrivilegeUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(&tt.identity))
		})
	}
}

// An earlier admin membership is not enough; only the last entry counts.
func TestClassify_LastOrganizationDecides(t *testing.T) {
	identity := &Identity{Organizations: []Organization{
		{ID: "1", Role: RoleSuperAdmin},
		{ID: "2", Role: RoleAdmin},
		{ID: "3", Role: RoleMember},
	}}

	assert.Equal(t, PrivilegeUser, Classify(identity),
		"an earlier admin membership must not survive a later non-admin one")
}

// Role strings are matched exactly as the provider sends them.
func TestClassify_RoleStringsAreExact(t *testing.T) {
	tests := []struct {
		role Role
		want Privilege
	}{
		{role: "Super Admin", want: PrivilegeAdmin},
		{role: "Admin", want: PrivilegeAdmin},
		{role: "SuperAdmin", want: PrivilegeUser},
		{role: "super admin", want: PrivilegeUser},
		{role: "admin", want: PrivilegeUser},
		{role: " Admin", want: PrivilegeUser},
	}

	for _, tt := range tests {
		identity := &Identity{Organizations: []Organization{{ID: "1", Role: tt.role}}}
		assert.Equal(t, tt.want, Classify(identity), string(tt.role))
	}
}

func TestIdentityValidate(t *testing.T) {
	assert.ErrorIs(t, (&Identity{Email: "a@x.com"}).Validate(), ErrMissingExternalID)
	assert.ErrorIs(t, (&Identity{ExternalID: "ext-1"}).Validate(), ErrMissingEmail)
	assert.NoError(t, (&Identity{ExternalID: "ext-1", Email: "a@x.com"}).Validate())
}
