package enums

import "fmt"

// UserRole is the permission tier carried in the access token. Guests hold
// no role; they are identified by session token only.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleAdmin    UserRole = "admin"
)

var userRoles = map[UserRole]struct{}{
	UserRoleCustomer: {},
	UserRoleAdmin:    {},
}

func (u UserRole) String() string { return string(u) }

func (u UserRole) IsValid() bool {
	_, ok := userRoles[u]
	return ok
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	role := UserRole(value)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", value)
	}
	return role, nil
}
