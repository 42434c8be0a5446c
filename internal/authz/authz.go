// Package authz holds the actor model and the capability check used before
// every mutating content operation.
package authz

import (
	"github.com/google/uuid"
)

const (
	RoleSuperAdmin = "superadmin"
	RoleStaff      = "staff"
	RoleStudent    = "student"
	RoleParent     = "parent"
)

// Roles lists every role a school user can hold.
var Roles = []string{RoleSuperAdmin, RoleStaff, RoleStudent, RoleParent}

// ValidRole reports whether role is a known role identifier.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID       uuid.UUID
	SchoolID string
	Role     string
}

// Checker decides whether an actor holds moderation authority in its school.
type Checker interface {
	CanModerate(actor Actor) bool
}

// ModeratorRoleSource resolves the moderator roles configured for a school.
type ModeratorRoleSource interface {
	ModeratorRoles(schoolID string) []string
}

// RoleChecker grants moderation to actors whose role is listed as a moderator
// role for their school.
type RoleChecker struct {
	source ModeratorRoleSource
}

func NewRoleChecker(source ModeratorRoleSource) *RoleChecker {
	return &RoleChecker{source: source}
}

func (c *RoleChecker) CanModerate(actor Actor) bool {
	if actor.ID == uuid.Nil {
		return false
	}
	for _, r := range c.source.ModeratorRoles(actor.SchoolID) {
		if r == actor.Role {
			return true
		}
	}
	return false
}

// StaticChecker grants moderation to a fixed set of roles regardless of school.
type StaticChecker []string

func (s StaticChecker) CanModerate(actor Actor) bool {
	for _, r := range s {
		if r == actor.Role {
			return true
		}
	}
	return false
}
