package billing

import (
	"context"

	"github.com/launchcrm/launchcrm/app/models"
)

// Provider abstracts the payment provider. All calls are blocking I/O with
// no automatic retry: a failure aborts the surrounding operation.
type Provider interface {
	CreateCustomer(ctx context.Context, company *models.Company) (*Customer, error)
	CreateSubscription(ctx context.Context, customerID, priceID string, trialDays int64) (*ProviderSubscription, error)
	CancelSubscription(ctx context.Context, customerID string, atPeriodEnd bool) (*ProviderSubscription, error)
	UpdateSubscription(ctx context.Context, customerID, newPriceID string) (*ProviderSubscription, error)
	ListSubscriptions(ctx context.Context, customerID string) ([]ProviderSubscription, error)
	ListInvoices(ctx context.Context, customerID string) ([]Invoice, error)
	// VerifyWebhook checks the delivery signature and normalizes the
	// payload. Returns ErrSignature on authenticity failure.
	VerifyWebhook(payload []byte, signatureHeader string) (*Event, error)
}

// GateInvalidator is the subscription gate surface the lifecycle manager
// needs: synchronous cache invalidation on every isActive-affecting
// transition.
type GateInvalidator interface {
	Invalidate(ctx context.Context, companyID uint) error
}
