package rbac

import "testing"

func TestRoleFromString(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{in: "admin", want: RoleAdmin},
		{in: "manager", want: RoleManager},
		{in: "staff", want: RoleStaff},
		{in: "", want: RoleStaff},
		{in: "superuser", want: RoleStaff},
	}

	for _, tt := range tests {
		if got := RoleFromString(tt.in); got != tt.want {
			t.Fatalf("RoleFromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRoleHierarchy(t *testing.T) {
	if !RoleAdmin.AtLeast(RoleManager) || !RoleManager.AtLeast(RoleStaff) {
		t.Fatalf("expected admin > manager > staff ordering")
	}
	if RoleStaff.AtLeast(RoleManager) {
		t.Fatalf("staff must not satisfy a manager requirement")
	}
}

func TestCrossTenantAlwaysNotFound(t *testing.T) {
	resources := []Resource{ResourceContact, ResourceLead, ResourceDeal, ResourceTask, ResourceUser}
	actions := []Action{ActionView, ActionUpdate, ActionDelete}

	for _, res := range resources {
		for _, act := range actions {
			got := Authorize(Request{
				Role:              RoleAdmin,
				Action:            act,
				Resource:          res,
				CallerID:          1,
				CallerCompanyID:   1,
				ResourceCompanyID: 2,
			})
			if got != DenyNotFound {
				t.Fatalf("resource %v action %v: cross-tenant admin got %v, want DenyNotFound", res, act, got)
			}
		}
	}
}

func TestAuthorizeTable(t *testing.T) {
	const (
		caller  = 10
		someone = 20
	)

	tests := []struct {
		name     string
		role     Role
		action   Action
		resource Resource
		assigned uint
		target   uint
		want     Decision
	}{
		{name: "staff views contact", role: RoleStaff, action: ActionView, resource: ResourceContact, want: Allow},
		{name: "staff updates contact", role: RoleStaff, action: ActionUpdate, resource: ResourceContact, want: Allow},
		{name: "staff deletes contact", role: RoleStaff, action: ActionDelete, resource: ResourceContact, want: DenyForbidden},
		{name: "admin deletes contact", role: RoleAdmin, action: ActionDelete, resource: ResourceContact, want: Allow},

		{name: "staff creates lead", role: RoleStaff, action: ActionCreate, resource: ResourceLead, want: Allow},
		{name: "staff updates own lead", role: RoleStaff, action: ActionUpdate, resource: ResourceLead, assigned: caller, want: Allow},
		{name: "staff updates foreign lead", role: RoleStaff, action: ActionUpdate, resource: ResourceLead, assigned: someone, want: DenyForbidden},
		{name: "manager updates foreign lead", role: RoleManager, action: ActionUpdate, resource: ResourceLead, assigned: someone, want: Allow},
		{name: "manager deletes lead", role: RoleManager, action: ActionDelete, resource: ResourceLead, want: DenyForbidden},

		{name: "staff creates deal", role: RoleStaff, action: ActionCreate, resource: ResourceDeal, want: DenyForbidden},
		{name: "manager creates deal", role: RoleManager, action: ActionCreate, resource: ResourceDeal, want: Allow},
		{name: "staff deletes deal", role: RoleStaff, action: ActionDelete, resource: ResourceDeal, want: DenyForbidden},
		{name: "admin deletes deal", role: RoleAdmin, action: ActionDelete, resource: ResourceDeal, want: Allow},
		{name: "staff updates own deal", role: RoleStaff, action: ActionUpdate, resource: ResourceDeal, assigned: caller, want: Allow},

		{name: "staff deletes own task", role: RoleStaff, action: ActionDelete, resource: ResourceTask, assigned: caller, want: Allow},
		{name: "staff deletes foreign task", role: RoleStaff, action: ActionDelete, resource: ResourceTask, assigned: someone, want: DenyForbidden},
		{name: "manager deletes foreign task", role: RoleManager, action: ActionDelete, resource: ResourceTask, assigned: someone, want: DenyForbidden},
		{name: "admin deletes foreign task", role: RoleAdmin, action: ActionDelete, resource: ResourceTask, assigned: someone, want: Allow},

		{name: "staff lists users", role: RoleStaff, action: ActionView, resource: ResourceUser, want: DenyForbidden},
		{name: "manager lists users", role: RoleManager, action: ActionView, resource: ResourceUser, want: Allow},
		{name: "manager updates user", role: RoleManager, action: ActionUpdate, resource: ResourceUser, target: someone, want: DenyForbidden},
		{name: "admin updates user", role: RoleAdmin, action: ActionUpdate, resource: ResourceUser, target: someone, want: Allow},
		{name: "admin deletes user", role: RoleAdmin, action: ActionDelete, resource: ResourceUser, target: someone, want: Allow},
		{name: "admin deletes self", role: RoleAdmin, action: ActionDelete, resource: ResourceUser, target: caller, want: DenyForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Authorize(Request{
				Role:               tt.role,
				Action:             tt.action,
				Resource:           tt.resource,
				CallerID:           caller,
				CallerCompanyID:    1,
				ResourceCompanyID:  1,
				ResourceAssignedTo: tt.assigned,
				TargetUserID:       tt.target,
			})
			if got != tt.want {
				t.Fatalf("Authorize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssigneePolicy(t *testing.T) {
	const caller, other = 10, 20

	if !CanAssign(RoleManager, caller, other) {
		t.Fatalf("manager must be able to assign to others")
	}
	if CanAssign(RoleStaff, caller, other) {
		t.Fatalf("staff must not assign to others")
	}
	if !CanAssign(RoleStaff, caller, caller) || !CanAssign(RoleStaff, caller, 0) {
		t.Fatalf("staff must be able to self-assign or leave unassigned")
	}

	// Lead create: silently pinned to caller.
	if got := NormalizeCreateAssignee(RoleStaff, caller, other); got != caller {
		t.Fatalf("staff lead create assignee = %d, want %d", got, caller)
	}
	if got := NormalizeCreateAssignee(RoleManager, caller, other); got != other {
		t.Fatalf("manager lead create assignee = %d, want %d", got, other)
	}
	if got := NormalizeCreateAssignee(RoleManager, caller, 0); got != caller {
		t.Fatalf("manager lead create default assignee = %d, want %d", got, caller)
	}

	// Task create: foreign assignment rejected, not reassigned.
	if _, ok := CheckTaskCreateAssignee(RoleStaff, caller, other); ok {
		t.Fatalf("staff task create for someone else must be rejected")
	}
	if got, ok := CheckTaskCreateAssignee(RoleStaff, caller, 0); !ok || got != caller {
		t.Fatalf("staff task create unassigned = (%d,%v), want (%d,true)", got, ok, caller)
	}
	if got, ok := CheckTaskCreateAssignee(RoleAdmin, caller, other); !ok || got != other {
		t.Fatalf("admin task create = (%d,%v), want (%d,true)", got, ok, other)
	}
}
