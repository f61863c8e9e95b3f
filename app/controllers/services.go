package controllers

import (
	"github.com/launchcrm/launchcrm/internal/pkg/billing"
	"github.com/launchcrm/launchcrm/internal/pkg/compliance"
	"github.com/launchcrm/launchcrm/internal/pkg/statistics"
)

var (
	billingService    *billing.Service
	complianceService *compliance.Service
	statsService      *statistics.Service
	retentionPolicy   compliance.Policy
)

// SetBillingService wires the subscription lifecycle manager into the
// billing and webhook handlers. Called once during startup.
func SetBillingService(s *billing.Service) {
	billingService = s
}

// SetComplianceService wires the compliance workflows into their handlers.
// Called once during startup.
func SetComplianceService(s *compliance.Service) {
	complianceService = s
}

// SetStatisticsService wires the dashboard aggregates into their handlers.
// Called once during startup.
func SetStatisticsService(s *statistics.Service) {
	statsService = s
}

// SetRetentionPolicy installs the platform-wide retention windows used by
// the retention endpoints. Called once during startup.
func SetRetentionPolicy(p compliance.Policy) {
	retentionPolicy = p
}
