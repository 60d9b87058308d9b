package enums

import "fmt"

// UserRole is the capability level granted to an account.
type UserRole string

const (
	UserRoleCliente  UserRole = "cliente"
	UserRoleAdmin    UserRole = "admin"
	UserRoleCobranza UserRole = "cobranza"
)

var validUserRoles = []UserRole{
	UserRoleCliente,
	UserRoleAdmin,
	UserRoleCobranza,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// CanVerifyPayments reports whether the role may approve or reject payments.
func (u UserRole) CanVerifyPayments() bool {
	return u == UserRoleAdmin || u == UserRoleCobranza
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
