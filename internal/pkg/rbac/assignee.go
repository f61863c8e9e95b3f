package rbac

// Assignee policy for Lead/Deal/Task create and update.
//
// Managers and admins may assign work to anyone in their tenant. Staff may
// only hold work themselves. The create/update asymmetry is intentional and
// mirrors the per-resource policy: lead creation quietly pins the record to
// the caller, while task creation and every update reject foreign
// assignment outright.

// CanAssign reports whether the caller may set the assignee field to the
// requested user. Zero means "unassigned" and is always permitted.
func CanAssign(role Role, callerID, requestedAssignee uint) bool {
	if role.AtLeast(RoleManager) {
		return true
	}
	return requestedAssignee == 0 || requestedAssignee == callerID
}

// NormalizeCreateAssignee resolves the assignee for a lead or deal create.
// Non-manager callers are silently pinned to themselves no matter what they
// requested; managers keep their choice, defaulting to self when unset.
func NormalizeCreateAssignee(role Role, callerID, requestedAssignee uint) uint {
	if !role.AtLeast(RoleManager) {
		return callerID
	}
	if requestedAssignee == 0 {
		return callerID
	}
	return requestedAssignee
}

// CheckTaskCreateAssignee enforces the strict side of the asymmetry: a
// non-manager creating a task for someone else is rejected, not reassigned.
// Returns the effective assignee and whether the request is permitted.
func CheckTaskCreateAssignee(role Role, callerID, requestedAssignee uint) (uint, bool) {
	if !CanAssign(role, callerID, requestedAssignee) {
		return 0, false
	}
	if requestedAssignee == 0 {
		return callerID, true
	}
	return requestedAssignee, true
}
