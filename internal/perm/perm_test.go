package perm

import (
	"testing"

	"tasklync-cli/internal/model"
)

func TestCan_InsightsAreAdminOnly(t *testing.T) {
	if !Can(model.RoleAdmin, ViewInsights) {
		t.Fatalf("admin should see insights")
	}
	for _, r := range []model.Role{model.RoleMember, model.RolePending, ""} {
		if Can(r, ViewInsights) {
			t.Fatalf("%q should not see insights", r)
		}
	}
}

func TestCan_OnlyPendingSelectsWorkspace(t *testing.T) {
	if !Can(model.RolePending, SelectWorkspace) {
		t.Fatalf("pending should get join/create")
	}
	if Can(model.RoleAdmin, SelectWorkspace) || Can(model.RoleMember, SelectWorkspace) {
		t.Fatalf("resolved roles should not get onboarding")
	}
}

func TestCapabilities_Member(t *testing.T) {
	got := Capabilities(model.RoleMember)
	if len(got) != 1 || got[0] != MoveTasks {
		t.Fatalf("member capabilities: %v", got)
	}
}

func TestCan_UnknownRoleHasNothing(t *testing.T) {
	if len(Capabilities(model.Role("owner"))) != 0 {
		t.Fatalf("unknown role should have no capabilities")
	}
}
