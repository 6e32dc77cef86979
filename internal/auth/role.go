package auth

// Privilege is the local administrative level derived from an identity.
type Privilege string

const (
	PrivilegeUser  Privilege = "user"
	PrivilegeAdmin Privilege = "admin"
)

// Classify derives the local privilege of an identity.
//
// The application owner is always an admin. Otherwise the organizations are
// walked in order and every entry overwrites the result, so only the last
// organization decides: [Admin, Member] is a user, [Member, Admin] an admin.
// Existing installations depend on this ordering.
func Classify(identity *Identity) Privilege {
	if identity.AppOwner {
		return PrivilegeAdmin
	}

	privilege := PrivilegeUser
	for _, org := range identity.Organizations {
		if org.Role == RoleAdmin || org.Role == RoleSuperAdmin {
			privilege = PrivilegeAdmin
		} else {
			privilege = PrivilegeUser
		}
	}

	return privilege
}
