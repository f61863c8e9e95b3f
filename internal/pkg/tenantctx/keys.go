package tenantctx

// Shared Locals/session keys used across controllers and middlewares
const (
	ContextKey       = "TENANT_CONTEXT"
	KeyUserID        = "user_id"
	KeyUserName      = "user_name"
	KeyCompanyID     = "company_id"
	KeyFromProtected = "from_protected"
)
