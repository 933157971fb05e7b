package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Role is the closed set of account roles. The zero value is not a valid role.
type Role uint8

const (
	RoleStudent Role = iota + 1
	RoleModerator
	RoleManager
	RoleEditor
	RoleAdmin
	RoleSuperAdmin
)

var roleNames = [...]string{
	RoleStudent:    "student",
	RoleModerator:  "moderator",
	RoleManager:    "manager",
	RoleEditor:     "editor",
	RoleAdmin:      "admin",
	RoleSuperAdmin: "super_admin",
}

// AllRoles lists every valid role in ascending order.
func AllRoles() []Role {
	return []Role{RoleStudent, RoleModerator, RoleManager, RoleEditor, RoleAdmin, RoleSuperAdmin}
}

// ParseRole converts the persisted or wire representation into a Role.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, role := range AllRoles() {
		if roleNames[role] == normalized {
			return role, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", value)
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return r >= RoleStudent && r <= RoleSuperAdmin
}

func (r Role) String() string {
	if !r.Valid() {
		return "unknown"
	}
	return roleNames[r]
}

// MarshalText encodes the role by name so JSON payloads carry strings.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", r)
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role name.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value stores the role by name.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", r)
	}
	return r.String(), nil
}

// Scan reads a role stored by name.
func (r *Role) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	case nil:
		return fmt.Errorf("role must not be null")
	default:
		return fmt.Errorf("unsupported role type %T", value)
	}
}

// GormDataType keeps the column textual across dialects.
func (Role) GormDataType() string {
	return "string"
}
