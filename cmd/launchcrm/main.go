package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/launchcrm/launchcrm/app/controllers"
	"github.com/launchcrm/launchcrm/app/repository"
	"github.com/launchcrm/launchcrm/internal/pkg/billing"
	"github.com/launchcrm/launchcrm/internal/pkg/cache"
	"github.com/launchcrm/launchcrm/internal/pkg/compliance"
	"github.com/launchcrm/launchcrm/internal/pkg/database"
	"github.com/launchcrm/launchcrm/internal/pkg/env"
	"github.com/launchcrm/launchcrm/internal/pkg/exportstore"
	"github.com/launchcrm/launchcrm/internal/pkg/metrics/counter"
	"github.com/launchcrm/launchcrm/internal/pkg/router"
	"github.com/launchcrm/launchcrm/internal/pkg/statistics"
	"github.com/launchcrm/launchcrm/internal/pkg/subscription"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	setupServices()

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName:   "launchcrm",
		BodyLimit: 4 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app)

	startRetentionWorker()
	startUsageFlusher()

	return app
}

// startUsageFlusher drains the per-tenant request counters into the
// database every few minutes.
func startUsageFlusher() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if err := counter.FlushAll(); err != nil {
				log.Printf("usage counter flush failed: %v", err)
			}
		}
	}()
}

// setupServices wires the billing and compliance services into the
// controllers.
func setupServices() {
	db := database.GetDB()
	globals := repository.GetGlobalFactory().GetGlobalRepositories()

	gate := subscription.NewGate(globals.Company, cache.NewStore())
	billingSvc := billing.NewService(
		billing.NewStripeProvider(),
		billing.NewRepository(db),
		gate,
	)
	controllers.SetBillingService(billingSvc)
	controllers.SetStatisticsService(statistics.New(cache.NewStore()))

	var uploader compliance.Uploader
	storeCfg, err := exportstore.LoadConfig()
	if err != nil {
		log.Fatalf("export store configuration invalid: %v", err)
	}
	if storeCfg.IsEnabled() {
		client, err := exportstore.NewClient(storeCfg)
		if err != nil {
			log.Fatalf("export store unavailable: %v", err)
		}
		uploader = client
	}
	controllers.SetComplianceService(
		compliance.NewService(db, globals.Account, uploader, storeCfg))
}

// startRetentionWorker purges expired data across all tenants once a day.
func startRetentionWorker() {
	retentionDays := 365
	if v := env.GetEnv("RETENTION_DAYS", ""); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &retentionDays); err != nil {
			log.Printf("invalid RETENTION_DAYS %q, using default: %v", v, err)
		}
	}
	policy := compliance.DefaultPolicy(retentionDays)
	controllers.SetRetentionPolicy(policy)

	db := database.GetDB()
	globals := repository.GetGlobalFactory().GetGlobalRepositories()
	svc := compliance.NewService(db, globals.Account, nil, nil)

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := svc.CleanupExpiredData(context.Background(), policy); err != nil {
				log.Printf("retention cleanup failed: %v", err)
			}
		}
	}()
}
