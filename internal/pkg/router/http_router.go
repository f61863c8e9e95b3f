package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/launchcrm/launchcrm/app/controllers"
	"github.com/launchcrm/launchcrm/app/repository"
	"github.com/launchcrm/launchcrm/internal/pkg/cache"
	"github.com/launchcrm/launchcrm/internal/pkg/constants"
	"github.com/launchcrm/launchcrm/internal/pkg/env"
	"github.com/launchcrm/launchcrm/internal/pkg/middleware"
	"github.com/launchcrm/launchcrm/internal/pkg/rbac"
	"github.com/launchcrm/launchcrm/internal/pkg/session"
	"github.com/launchcrm/launchcrm/internal/pkg/subscription"
	"github.com/launchcrm/launchcrm/internal/pkg/tenant"
)

type HttpRouter struct {
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	globals := repository.GetGlobalFactory().GetGlobalRepositories()
	store := cache.NewStore()
	directory := tenant.NewDirectory(globals.Company, store)
	gate := subscription.NewGate(globals.Company, store)
	suffix := env.GetEnv("TENANT_DOMAIN_SUFFIX", ".launchcrm.test")

	h.registerPublicRoutes(app)
	h.registerTenantRoutes(app, directory, gate, suffix)
}

// registerPublicRoutes mounts the main-domain surface: onboarding, the
// plan catalog, and provider webhooks.
func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/register", limiter.New(limiter.Config{Max: 10}), controllers.HandleRegister)
	app.Get("/plans", controllers.HandleListPlans)

	// Billing provider webhooks (signature-verified in the controller)
	app.Post(constants.WebhookStripeRoute, controllers.HandleStripeWebhook)
}

// registerTenantRoutes mounts everything served on tenant subdomains. The
// order of the middleware chain is the product's security model: tenant
// resolution, then authentication, then the subscription gate, then
// per-resource authorization inside the handlers.
func (h HttpRouter) registerTenantRoutes(app *fiber.App, directory *tenant.Directory, gate *subscription.Gate, suffix string) {
	globals := repository.GetGlobalFactory().GetGlobalRepositories()

	t := app.Group("", middleware.TenantMiddleware(directory, suffix),
		middleware.AuthContextMiddleware(globals.Account))

	// Session endpoints: no auth, no subscription gate.
	t.Post("/login", limiter.New(limiter.Config{Max: 20}), controllers.HandleLogin)
	t.Post("/logout", controllers.HandleLogout)
	t.Get("/verify/:token", controllers.HandleVerifyEmail)

	// Invitation acceptance happens before the user can log in.
	t.Get("/invitations/:token", controllers.HandleGetInvitation)
	t.Post("/invitations/:token/complete", controllers.HandleAcceptInvitation)

	// Authenticated but not subscription-gated: profile and billing
	// management stay reachable for an expired tenant, otherwise nobody
	// could fix the subscription.
	authed := t.Group("", middleware.RequireAuth)
	authed.Get("/me", controllers.HandleMe)

	billingAdmin := authed.Group("/billing", middleware.RequireRole(rbac.RoleAdmin))
	billingAdmin.Get("/", controllers.HandleBillingStatus)
	billingAdmin.Get("/plans", controllers.HandleListPlans)
	billingAdmin.Post("/subscribe", controllers.HandleSubscribe)
	billingAdmin.Post("/cancel", controllers.HandleCancelSubscription)
	billingAdmin.Post("/change-plan", controllers.HandleChangePlan)
	billingAdmin.Get("/invoices", controllers.HandleListInvoices)
	billingAdmin.Post("/sync", controllers.HandleSyncSubscription)

	// Everything below needs an active subscription or trial.
	gated := authed.Group("", middleware.SubscriptionRequired(gate))

	gated.Get("/dashboard", controllers.HandleDashboard)

	gated.Get("/contacts", controllers.HandleListContacts)
	gated.Post("/contacts", controllers.HandleCreateContact)
	gated.Get("/contacts/:id", controllers.HandleGetContact)
	gated.Put("/contacts/:id", controllers.HandleUpdateContact)
	gated.Delete("/contacts/:id", controllers.HandleDeleteContact)

	gated.Get("/leads", controllers.HandleListLeads)
	gated.Post("/leads", controllers.HandleCreateLead)
	gated.Get("/leads/:id", controllers.HandleGetLead)
	gated.Put("/leads/:id", controllers.HandleUpdateLead)
	gated.Delete("/leads/:id", controllers.HandleDeleteLead)
	gated.Post("/leads/:id/convert", controllers.HandleConvertLead)

	gated.Get("/deals", controllers.HandleListDeals)
	gated.Post("/deals", controllers.HandleCreateDeal)
	gated.Get("/deals/:id", controllers.HandleGetDeal)
	gated.Put("/deals/:id", controllers.HandleUpdateDeal)
	gated.Delete("/deals/:id", controllers.HandleDeleteDeal)
	gated.Post("/deals/:id/close", controllers.HandleCloseDeal)

	gated.Get("/tasks", controllers.HandleListTasks)
	gated.Post("/tasks", controllers.HandleCreateTask)
	gated.Get("/tasks/:id", controllers.HandleGetTask)
	gated.Put("/tasks/:id", controllers.HandleUpdateTask)
	gated.Delete("/tasks/:id", controllers.HandleDeleteTask)
	gated.Post("/tasks/:id/complete", controllers.HandleCompleteTask)
	gated.Post("/tasks/:id/incomplete", controllers.HandleReopenTask)

	gated.Get("/users", controllers.HandleListUsers)
	gated.Get("/users/:id", controllers.HandleGetUser)
	gated.Put("/users/:id", controllers.HandleUpdateUser)
	gated.Delete("/users/:id", controllers.HandleDeleteUser)
	gated.Put("/users/:id/role", controllers.HandleChangeRole)
	gated.Post("/users/:id/activate", controllers.HandleActivateUser)
	gated.Post("/users/:id/deactivate", controllers.HandleDeactivateUser)

	gated.Post("/team/invitations", controllers.HandleInviteUser)
	gated.Get("/team/invitations", controllers.HandleListInvitations)

	gated.Get("/compliance/export", controllers.HandleExportMyData)
	gated.Get("/compliance/export/download", controllers.HandleDownloadExport)
	gated.Post("/compliance/export/:id", controllers.HandleExportUserData)
	gated.Post("/compliance/anonymize/:id", controllers.HandleAnonymizeUser)
	gated.Delete("/compliance/account", controllers.HandleDeleteMyAccount)
	gated.Post("/compliance/consent", controllers.HandleRecordConsent)
	gated.Get("/compliance/consents", controllers.HandleConsentHistory)

	retention := gated.Group("/retention", middleware.RequireRole(rbac.RoleAdmin))
	retention.Get("/policies", controllers.HandleRetentionPolicies)
	retention.Post("/cleanup", controllers.HandleRetentionCleanup)
}
