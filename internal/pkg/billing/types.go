package billing

import (
	"errors"
	"time"
)

var (
	// ErrProvider marks a failed billing-provider call. The local mutation
	// is aborted with no partial writes; callers treat it as terminal.
	ErrProvider = errors.New("billing: provider call failed")
	// ErrSignature marks a webhook whose authenticity check failed. The
	// payload must be rejected before any processing.
	ErrSignature = errors.New("billing: webhook signature verification failed")
	// ErrNoCustomer is returned for operations that need an existing
	// provider customer reference.
	ErrNoCustomer = errors.New("billing: company has no provider customer")
	// ErrNoActiveSubscription is returned when cancel/change-plan finds
	// nothing to operate on.
	ErrNoActiveSubscription = errors.New("billing: no active subscription found")
)

// Customer is the provider-neutral customer shape.
type Customer struct {
	ID    string
	Name  string
	Email string
}

// ProviderSubscription is the provider-neutral subscription shape the
// service normalizes provider responses and webhook payloads into.
type ProviderSubscription struct {
	ID                string
	CustomerID        string
	Status            string
	PriceID           string
	Quantity          int64
	TrialEnd          *time.Time
	CancelAt          *time.Time
	CurrentPeriodEnd  *time.Time
	CancelAtPeriodEnd bool
}

// Invoice is the provider-neutral invoice shape.
type Invoice struct {
	ID         string
	Number     string
	Status     string
	AmountDue  int64
	AmountPaid int64
	Currency   string
	CreatedAt  time.Time
	HostedURL  string
}

// Webhook event types the lifecycle manager reacts to. Values follow the
// provider's naming so raw payloads remain greppable against stored rows.
const (
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventInvoicePaid         = "invoice.payment_succeeded"
	EventInvoiceFailed       = "invoice.payment_failed"
	EventCustomerUpdated     = "customer.updated"
)

// Event is a verified, normalized webhook delivery.
type Event struct {
	ID           string
	Type         string
	CustomerID   string
	Subscription *ProviderSubscription
	Customer     *Customer
	InvoiceID    string
	AmountDue    int64
	AmountPaid   int64
	Payload      []byte
}
