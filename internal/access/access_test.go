package access

import "testing"

func rolePtr(r Role) *Role { return &r }

func TestFor(t *testing.T) {
	tests := []struct {
		name string
		role *Role
		want Capabilities
	}{
		{"nil role", nil, Capabilities{}},
		{"unknown role", rolePtr("superuser"), Capabilities{}},
		{"admin", rolePtr(RoleAdmin), Capabilities{ManageUsers: true, ManageTeams: true, ManageProjects: true, ViewAllTasks: true}},
		{"manager", rolePtr(RoleManager), Capabilities{ManageTeams: true, ManageProjects: true}},
		{"employee", rolePtr(RoleEmployee), Capabilities{}},
		{"partner", rolePtr(RolePartner), Capabilities{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := For(tt.role); got != tt.want {
				t.Errorf("For() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCapabilities_Allows(t *testing.T) {
	admin := For(rolePtr(RoleAdmin))
	for _, c := range []Capability{ManageUsers, ManageTeams, ManageProjects, ViewAllTasks} {
		if !admin.Allows(c) {
			t.Errorf("admin should allow %s", c)
		}
	}

	manager := For(rolePtr(RoleManager))
	if manager.Allows(ManageUsers) {
		t.Error("manager should not allow manage_users")
	}
	if !manager.Allows(ManageProjects) {
		t.Error("manager should allow manage_projects")
	}
	if manager.Allows(ViewAllTasks) {
		t.Error("manager should not allow view_all_tasks")
	}

	if admin.Allows("delete_everything") {
		t.Error("unknown capability should never be allowed")
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("  Manager ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != RoleManager {
		t.Errorf("expected manager, got %q", r)
	}

	if _, err := ParseRole("owner"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestParseTeamRole(t *testing.T) {
	r, err := ParseTeamRole("")
	if err != nil || r != TeamRoleMember {
		t.Errorf("empty team role should default to member, got %q, %v", r, err)
	}
	if _, err := ParseTeamRole("partner"); err == nil {
		t.Error("partner is not a team role")
	}
}

func TestTeamRole_CanManageMembers(t *testing.T) {
	if !TeamRoleAdmin.CanManageMembers() || !TeamRoleManager.CanManageMembers() {
		t.Error("admin and manager should manage members")
	}
	if TeamRoleMember.CanManageMembers() {
		t.Error("member should not manage members")
	}
}
