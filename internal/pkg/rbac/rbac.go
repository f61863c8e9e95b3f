// Package rbac decides whether a user may perform an action on a CRM
// resource. Roles form a strict hierarchy (admin > manager > staff) and the
// authorization rules are a closed, static table: there is no dynamic
// permission storage and no string matching at decision time.
package rbac

// Role is the closed set of tenant roles.
type Role uint8

const (
	RoleStaff Role = iota
	RoleManager
	RoleAdmin
)

// RoleFromString maps a stored role value to the enum. Unknown or empty
// values resolve to RoleStaff, the lowest-privilege role; the default is
// deliberate and visible here rather than implicit in a nullable join.
func RoleFromString(s string) Role {
	switch s {
	case "admin":
		return RoleAdmin
	case "manager":
		return RoleManager
	default:
		return RoleStaff
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleManager:
		return "manager"
	default:
		return "staff"
	}
}

// AtLeast reports whether r sits at or above min in the hierarchy.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// Resource identifies the kind of record being accessed.
type Resource uint8

const (
	ResourceContact Resource = iota
	ResourceLead
	ResourceDeal
	ResourceTask
	ResourceUser
)

// Action is the operation being attempted.
type Action uint8

const (
	ActionView Action = iota
	ActionCreate
	ActionUpdate
	ActionDelete
)

// Decision is the outcome of an authorization check.
type Decision uint8

const (
	// Allow grants the operation.
	Allow Decision = iota
	// DenyForbidden is a same-tenant role denial, surfaced as 403.
	DenyForbidden
	// DenyNotFound is a cross-tenant denial. It must be surfaced as 404 so
	// a denied caller learns nothing about the resource's existence.
	DenyNotFound
)

// Request carries everything Authorize needs. ResourceCompanyID is zero for
// create and list operations, where no concrete record exists yet.
type Request struct {
	Role              Role
	Action            Action
	Resource          Resource
	CallerID          uint
	CallerCompanyID   uint
	ResourceCompanyID uint
	// ResourceAssignedTo is the assignee on the existing record, if any.
	ResourceAssignedTo uint
	// TargetUserID is the subject user for ResourceUser operations.
	TargetUserID uint
}

// Authorize applies the tenant-match check followed by the static role
// table. Tenant mismatch always wins and yields DenyNotFound regardless of
// role, so cross-tenant probing cannot distinguish "exists" from "missing".
func Authorize(req Request) Decision {
	if req.ResourceCompanyID != 0 && req.ResourceCompanyID != req.CallerCompanyID {
		return DenyNotFound
	}

	switch req.Resource {
	case ResourceContact:
		return authorizeContact(req)
	case ResourceLead:
		return authorizeLead(req)
	case ResourceDeal:
		return authorizeDeal(req)
	case ResourceTask:
		return authorizeTask(req)
	case ResourceUser:
		return authorizeUser(req)
	}
	return DenyForbidden
}

func authorizeContact(req Request) Decision {
	switch req.Action {
	case ActionView, ActionCreate, ActionUpdate:
		// Any role inside the owning tenant.
		return Allow
	case ActionDelete:
		return requireRole(req.Role, RoleAdmin)
	}
	return DenyForbidden
}

func authorizeLead(req Request) Decision {
	switch req.Action {
	case ActionView, ActionCreate:
		return Allow
	case ActionUpdate:
		return allowSelfAssignedOrRole(req, RoleManager)
	case ActionDelete:
		return requireRole(req.Role, RoleAdmin)
	}
	return DenyForbidden
}

func authorizeDeal(req Request) Decision {
	switch req.Action {
	case ActionView:
		return Allow
	case ActionCreate:
		return requireRole(req.Role, RoleManager)
	case ActionUpdate:
		return allowSelfAssignedOrRole(req, RoleManager)
	case ActionDelete:
		return requireRole(req.Role, RoleAdmin)
	}
	return DenyForbidden
}

func authorizeTask(req Request) Decision {
	switch req.Action {
	case ActionView, ActionCreate:
		return Allow
	case ActionUpdate:
		return allowSelfAssignedOrRole(req, RoleManager)
	case ActionDelete:
		// Self-assigned staff may delete their own tasks; otherwise admin.
		if req.ResourceAssignedTo != 0 && req.ResourceAssignedTo == req.CallerID {
			return Allow
		}
		return requireRole(req.Role, RoleAdmin)
	}
	return DenyForbidden
}

func authorizeUser(req Request) Decision {
	switch req.Action {
	case ActionView:
		return requireRole(req.Role, RoleManager)
	case ActionCreate, ActionUpdate:
		return requireRole(req.Role, RoleAdmin)
	case ActionDelete:
		if !req.Role.AtLeast(RoleAdmin) {
			return DenyForbidden
		}
		// Admins can never delete themselves.
		if req.TargetUserID != 0 && req.TargetUserID == req.CallerID {
			return DenyForbidden
		}
		return Allow
	}
	return DenyForbidden
}

func requireRole(have, want Role) Decision {
	if have.AtLeast(want) {
		return Allow
	}
	return DenyForbidden
}

func allowSelfAssignedOrRole(req Request, want Role) Decision {
	if req.Role.AtLeast(want) {
		return Allow
	}
	if req.ResourceAssignedTo != 0 && req.ResourceAssignedTo == req.CallerID {
		return Allow
	}
	return DenyForbidden
}
