// Package access maps platform roles to capability flags.
//
// The table is static. A nil or unknown role maps to the zero Capabilities,
// so callers that could not resolve a role get no permissions at all.
package access

import (
	"fmt"
	"strings"
)

// Role is a platform-wide role stored on the user profile.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
	RolePartner  Role = "partner"
)

// DefaultRole is assigned to profiles provisioned on first sign-in.
const DefaultRole = RoleEmployee

// Valid reports whether r is one of the known platform roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee, RolePartner:
		return true
	}
	return false
}

// ParseRole normalises s and returns the matching role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// TeamRole is a role scoped to one team. It is independent of the platform role.
type TeamRole string

const (
	TeamRoleAdmin   TeamRole = "admin"
	TeamRoleManager TeamRole = "manager"
	TeamRoleMember  TeamRole = "member"
)

// Valid reports whether r is one of the known team roles.
func (r TeamRole) Valid() bool {
	switch r {
	case TeamRoleAdmin, TeamRoleManager, TeamRoleMember:
		return true
	}
	return false
}

// CanManageMembers reports whether the team role may add or remove members.
func (r TeamRole) CanManageMembers() bool {
	return r == TeamRoleAdmin || r == TeamRoleManager
}

// ParseTeamRole normalises s and returns the matching team role.
// An empty string yields TeamRoleMember.
func ParseTeamRole(s string) (TeamRole, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TeamRoleMember, nil
	}
	r := TeamRole(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown team role %q", s)
	}
	return r, nil
}

// Capability names a single permission flag.
type Capability string

const (
	ManageUsers    Capability = "manage_users"
	ManageTeams    Capability = "manage_teams"
	ManageProjects Capability = "manage_projects"
	ViewAllTasks   Capability = "view_all_tasks"
)

// Capabilities is the set of permission flags granted to a role.
type Capabilities struct {
	ManageUsers    bool `json:"can_manage_users"`
	ManageTeams    bool `json:"can_manage_teams"`
	ManageProjects bool `json:"can_manage_projects"`
	ViewAllTasks   bool `json:"can_view_all_tasks"`
}

var table = map[Role]Capabilities{
	RoleAdmin: {
		ManageUsers:    true,
		ManageTeams:    true,
		ManageProjects: true,
		ViewAllTasks:   true,
	},
	// Manager authority covers only teams the manager belongs to.
	RoleManager: {
		ManageTeams:    true,
		ManageProjects: true,
	},
	RoleEmployee: {},
	RolePartner:  {},
}

// For returns the capabilities granted to role.
func For(role *Role) Capabilities {
	if role == nil {
		return Capabilities{}
	}
	return table[*role]
}

// Allows reports whether c is granted.
func (c Capabilities) Allows(capability Capability) bool {
	switch capability {
	case ManageUsers:
		return c.ManageUsers
	case ManageTeams:
		return c.ManageTeams
	case ManageProjects:
		return c.ManageProjects
	case ViewAllTasks:
		return c.ViewAllTasks
	}
	return false
}
