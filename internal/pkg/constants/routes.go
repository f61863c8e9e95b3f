package constants

// Static route constants
const (
	ComplianceExportRoute   = "/compliance/export"
	ComplianceDownloadRoute = "/compliance/export/download"
	WebhookStripeRoute      = "/webhooks/stripe"
)
