package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/launchcrm/launchcrm/app/models"
	"github.com/launchcrm/launchcrm/internal/pkg/env"
	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

// ProviderName tags local rows created from Stripe data.
const ProviderName = "stripe"

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProvider creates a Stripe-backed provider from the environment.
func NewStripeProvider() *StripeProvider {
	api := &client.API{}
	api.Init(env.GetEnv("STRIPE_SECRET_KEY", ""), nil)
	return &StripeProvider{
		api:           api,
		webhookSecret: env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
	}
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, company *models.Company) (*Customer, error) {
	params := &stripe.CustomerParams{
		Name:        stripe.String(company.Name),
		Email:       stripe.String(company.Email),
		Description: stripe.String(fmt.Sprintf("Customer for %s", company.Name)),
	}
	params.Context = ctx
	params.AddMetadata("company_id", fmt.Sprintf("%d", company.ID))

	cust, err := p.api.Customers.New(params)
	if err != nil {
		log.Errorf("[Billing] customer creation failed for company %d: %v", company.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return &Customer{ID: cust.ID, Name: cust.Name, Email: cust.Email}, nil
}

func (p *StripeProvider) CreateSubscription(ctx context.Context, customerID, priceID string, trialDays int64) (*ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
	}
	params.Context = ctx
	if trialDays > 0 {
		params.TrialPeriodDays = stripe.Int64(trialDays)
	}

	sub, err := p.api.Subscriptions.New(params)
	if err != nil {
		log.Errorf("[Billing] subscription creation failed for customer %s: %v", customerID, err)
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return normalizeStripeSubscription(sub), nil
}

func (p *StripeProvider) CancelSubscription(ctx context.Context, customerID string, atPeriodEnd bool) (*ProviderSubscription, error) {
	current, err := p.firstActiveSubscription(ctx, customerID)
	if err != nil {
		return nil, err
	}

	var sub *stripe.Subscription
	if atPeriodEnd {
		params := &stripe.SubscriptionParams{
			CancelAtPeriodEnd: stripe.Bool(true),
		}
		params.Context = ctx
		sub, err = p.api.Subscriptions.Update(current.ID, params)
	} else {
		params := &stripe.SubscriptionCancelParams{}
		params.Context = ctx
		sub, err = p.api.Subscriptions.Cancel(current.ID, params)
	}
	if err != nil {
		log.Errorf("[Billing] subscription cancellation failed for customer %s: %v", customerID, err)
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return normalizeStripeSubscription(sub), nil
}

func (p *StripeProvider) UpdateSubscription(ctx context.Context, customerID, newPriceID string) (*ProviderSubscription, error) {
	current, err := p.firstActiveSubscription(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if current.Items == nil || len(current.Items.Data) == 0 {
		return nil, fmt.Errorf("%w: subscription %s has no items", ErrProvider, current.ID)
	}

	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(current.Items.Data[0].ID),
				Price: stripe.String(newPriceID),
			},
		},
		ProrationBehavior: stripe.String("create_prorations"),
	}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Update(current.ID, params)
	if err != nil {
		log.Errorf("[Billing] subscription update failed for customer %s: %v", customerID, err)
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return normalizeStripeSubscription(sub), nil
}

func (p *StripeProvider) ListSubscriptions(ctx context.Context, customerID string) ([]ProviderSubscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx

	var subs []ProviderSubscription
	iter := p.api.Subscriptions.List(params)
	for iter.Next() {
		subs = append(subs, *normalizeStripeSubscription(iter.Subscription()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return subs, nil
}

func (p *StripeProvider) ListInvoices(ctx context.Context, customerID string) ([]Invoice, error) {
	params := &stripe.InvoiceListParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx

	var invoices []Invoice
	iter := p.api.Invoices.List(params)
	for iter.Next() {
		inv := iter.Invoice()
		invoices = append(invoices, Invoice{
			ID:         inv.ID,
			Number:     inv.Number,
			Status:     string(inv.Status),
			AmountDue:  inv.AmountDue,
			AmountPaid: inv.AmountPaid,
			Currency:   string(inv.Currency),
			CreatedAt:  time.Unix(inv.Created, 0),
			HostedURL:  inv.HostedInvoiceURL,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return invoices, nil
}

// VerifyWebhook checks the Stripe-Signature header and normalizes the
// event payload. Signature failures are ErrSignature; the event is never
// inspected before the signature passes.
func (p *StripeProvider) VerifyWebhook(payload []byte, signatureHeader string) (*Event, error) {
	stripeEvent, err := webhook.ConstructEvent(payload, signatureHeader, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignature, err)
	}

	event := &Event{
		ID:      stripeEvent.ID,
		Type:    string(stripeEvent.Type),
		Payload: payload,
	}

	switch event.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("parse subscription payload: %w", err)
		}
		event.Subscription = normalizeStripeSubscription(&sub)
		event.CustomerID = event.Subscription.CustomerID
	case EventInvoicePaid, EventInvoiceFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(stripeEvent.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("parse invoice payload: %w", err)
		}
		if inv.Customer != nil {
			event.CustomerID = inv.Customer.ID
		}
		event.InvoiceID = inv.ID
		event.AmountDue = inv.AmountDue
		event.AmountPaid = inv.AmountPaid
	case EventCustomerUpdated:
		var cust stripe.Customer
		if err := json.Unmarshal(stripeEvent.Data.Raw, &cust); err != nil {
			return nil, fmt.Errorf("parse customer payload: %w", err)
		}
		event.CustomerID = cust.ID
		event.Customer = &Customer{ID: cust.ID, Name: cust.Name, Email: cust.Email}
	}

	return event, nil
}

func (p *StripeProvider) firstActiveSubscription(ctx context.Context, customerID string) (*stripe.Subscription, error) {
	if customerID == "" {
		return nil, ErrNoCustomer
	}
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx

	iter := p.api.Subscriptions.List(params)
	for iter.Next() {
		return iter.Subscription(), nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return nil, ErrNoActiveSubscription
}

func normalizeStripeSubscription(sub *stripe.Subscription) *ProviderSubscription {
	out := &ProviderSubscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		TrialEnd:          tsToTime(sub.TrialEnd),
		CancelAt:          tsToTime(sub.CancelAt),
		CurrentPeriodEnd:  tsToTime(sub.CurrentPeriodEnd),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		out.Quantity = item.Quantity
		if item.Price != nil {
			out.PriceID = item.Price.ID
		}
	}
	return out
}

func tsToTime(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0)
	return &t
}
