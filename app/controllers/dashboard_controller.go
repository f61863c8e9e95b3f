package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/launchcrm/launchcrm/app/repository"
	"github.com/launchcrm/launchcrm/internal/pkg/tenantctx"
)

// HandleDashboard returns record counts and the open pipeline for the
// tenant's landing view.
func HandleDashboard(c *fiber.Ctx) error {
	repos := tenantctx.Repos(c)

	contacts, err := repos.Contacts.Count()
	if err != nil {
		return errInternal(c, "failed to load dashboard")
	}
	leads, err := repos.Leads.Count()
	if err != nil {
		return errInternal(c, "failed to load dashboard")
	}
	deals, err := repos.Deals.Count()
	if err != nil {
		return errInternal(c, "failed to load dashboard")
	}
	tasks, err := repos.Tasks.Count()
	if err != nil {
		return errInternal(c, "failed to load dashboard")
	}

	openDeals, err := repos.Deals.List(repository.ListOptions{Status: "open", Limit: 100})
	if err != nil {
		return errInternal(c, "failed to load dashboard")
	}
	var pipelineValue, expectedValue float64
	for i := range openDeals {
		pipelineValue += openDeals[i].Value
		expectedValue += openDeals[i].ExpectedValue()
	}

	return c.JSON(fiber.Map{
		"counts": fiber.Map{
			"contacts": contacts,
			"leads":    leads,
			"deals":    deals,
			"tasks":    tasks,
		},
		"pipeline": fiber.Map{
			"open_deals":     len(openDeals),
			"total_value":    pipelineValue,
			"expected_value": expectedValue,
		},
		"stats": statsService.CompanyStats(repos),
	})
}
