package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeSource map[string][]string

func (f fakeSource) ModeratorRoles(schoolID string) []string { return f[schoolID] }

func TestRoleChecker_CanModerate(t *testing.T) {
	checker := NewRoleChecker(fakeSource{
		"school-a": {RoleSuperAdmin},
		"school-b": {RoleSuperAdmin, RoleStaff},
	})
	id := uuid.New()

	assert.True(t, checker.CanModerate(Actor{ID: id, SchoolID: "school-a", Role: RoleSuperAdmin}))
	assert.False(t, checker.CanModerate(Actor{ID: id, SchoolID: "school-a", Role: RoleStaff}))
	assert.True(t, checker.CanModerate(Actor{ID: id, SchoolID: "school-b", Role: RoleStaff}))
	assert.False(t, checker.CanModerate(Actor{ID: id, SchoolID: "unknown", Role: RoleSuperAdmin}))
	assert.False(t, checker.CanModerate(Actor{SchoolID: "school-a", Role: RoleSuperAdmin}), "anonymous actor")
}

func TestValidRole(t *testing.T) {
	for _, r := range Roles {
		assert.True(t, ValidRole(r))
	}
	assert.False(t, ValidRole("teacher"))
	assert.False(t, ValidRole(""))
}
