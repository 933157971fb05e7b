package auth

import (
	"errors"
	"strings"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

var (
	// ErrUnauthenticated covers every credential failure: missing, malformed,
	// badly signed, expired, or pointing at an account that no longer exists.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means the identity is valid but its role is not allowed.
	ErrForbidden = errors.New("forbidden")
)

// Identity is the resolved caller of a request.
type Identity struct {
	UserID   uint
	Role     models.Role
	FullName string
}

// RoleSet is an allow-list of roles encoded as a bitmask over models.Role.
type RoleSet uint32

// Roles builds an allow-list. Invalid roles are ignored.
func Roles(roles ...models.Role) RoleSet {
	var set RoleSet
	for _, role := range roles {
		if role.Valid() {
			set |= 1 << role
		}
	}
	return set
}

// Contains reports whether role is in the allow-list.
func (s RoleSet) Contains(role models.Role) bool {
	return role.Valid() && s&(1<<role) != 0
}

// Members lists the allowed roles in ascending order.
func (s RoleSet) Members() []models.Role {
	members := make([]models.Role, 0, len(models.AllRoles()))
	for _, role := range models.AllRoles() {
		if s.Contains(role) {
			members = append(members, role)
		}
	}
	return members
}

func (s RoleSet) String() string {
	members := s.Members()
	names := make([]string, 0, len(members))
	for _, role := range members {
		names = append(names, role.String())
	}
	return strings.Join(names, ",")
}

// Allow is the access gate: nil when the identity's role is in the set,
// ErrForbidden otherwise.
func Allow(identity Identity, allowed RoleSet) error {
	if !allowed.Contains(identity.Role) {
		return ErrForbidden
	}
	return nil
}
