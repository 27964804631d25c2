package domain

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleClient Role = "client"
	RoleCoach  Role = "coach"
	RoleAdmin  Role = "admin"
)

// DefaultRole is assigned when registration omits a role.
const DefaultRole = RoleClient

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleCoach, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole accepts a role name case-insensitively. Empty yields DefaultRole.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultRole, nil
	}
	if r := Role(s); r.Valid() {
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}
