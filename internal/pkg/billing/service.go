package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/launchcrm/launchcrm/app/models"
	"gorm.io/gorm"
)

// DefaultSubscriptionName labels the single subscription a company holds.
const DefaultSubscriptionName = "default"

// Service is the subscription lifecycle manager. It talks to the payment
// provider first and writes locally only after the provider call succeeded,
// so a provider outage never produces phantom local state. Every mutation
// that can change the gate's answer invalidates the gate before returning.
type Service struct {
	provider Provider
	repo     Repository
	gate     GateInvalidator
}

// NewService creates the lifecycle manager.
func NewService(provider Provider, repo Repository, gate GateInvalidator) *Service {
	return &Service{provider: provider, repo: repo, gate: gate}
}

// EnsureCustomer makes sure the company has a provider customer, creating
// one on first use. The provider reference is stored on the company row.
func (s *Service) EnsureCustomer(ctx context.Context, company *models.Company) error {
	if company.StripeCustomerID != "" {
		return nil
	}

	customer, err := s.provider.CreateCustomer(ctx, company)
	if err != nil {
		return err
	}

	company.StripeCustomerID = customer.ID
	if err := s.repo.SaveCompany(company); err != nil {
		return fmt.Errorf("save customer reference: %w", err)
	}

	log.Infof("[Billing] created provider customer %s for company %d", customer.ID, company.ID)
	return nil
}

// Subscribe starts a paid subscription for the company. The provider call
// happens first; on failure nothing is written locally.
func (s *Service) Subscribe(ctx context.Context, company *models.Company, priceID string, trialDays int64) (*models.Subscription, error) {
	if err := s.EnsureCustomer(ctx, company); err != nil {
		return nil, err
	}

	psub, err := s.provider.CreateSubscription(ctx, company.StripeCustomerID, priceID, trialDays)
	if err != nil {
		return nil, err
	}

	return s.applySubscription(ctx, company, psub)
}

// Cancel ends the company's active subscription. With atPeriodEnd the
// subscription runs out its paid window; otherwise it stops immediately
// and the next gate check fails.
func (s *Service) Cancel(ctx context.Context, company *models.Company, atPeriodEnd bool) (*models.Subscription, error) {
	if company.StripeCustomerID == "" {
		return nil, ErrNoCustomer
	}

	psub, err := s.provider.CancelSubscription(ctx, company.StripeCustomerID, atPeriodEnd)
	if err != nil {
		return nil, err
	}

	return s.applySubscription(ctx, company, psub)
}

// ChangePlan swaps the subscription to a new price with proration.
func (s *Service) ChangePlan(ctx context.Context, company *models.Company, newPriceID string) (*models.Subscription, error) {
	if company.StripeCustomerID == "" {
		return nil, ErrNoCustomer
	}

	psub, err := s.provider.UpdateSubscription(ctx, company.StripeCustomerID, newPriceID)
	if err != nil {
		return nil, err
	}

	return s.applySubscription(ctx, company, psub)
}

// SyncStatus re-reads all of the company's subscriptions from the provider
// and reconciles the local mirror. Used on demand when webhook delivery is
// in doubt.
func (s *Service) SyncStatus(ctx context.Context, company *models.Company) error {
	if company.StripeCustomerID == "" {
		return ErrNoCustomer
	}

	psubs, err := s.provider.ListSubscriptions(ctx, company.StripeCustomerID)
	if err != nil {
		return err
	}

	for i := range psubs {
		if _, err := s.applySubscription(ctx, company, &psubs[i]); err != nil {
			return err
		}
	}
	return nil
}

// Invoices returns the company's invoice history from the provider.
func (s *Service) Invoices(ctx context.Context, company *models.Company) ([]Invoice, error) {
	if company.StripeCustomerID == "" {
		return nil, ErrNoCustomer
	}
	return s.provider.ListInvoices(ctx, company.StripeCustomerID)
}

// Subscriptions returns the local subscription mirror for a company.
func (s *Service) Subscriptions(company *models.Company) ([]models.Subscription, error) {
	return s.repo.ListSubscriptionsByCompany(company.ID)
}

// HandleWebhook processes one provider delivery end to end: signature
// verification, duplicate suppression, state sync, gate invalidation.
// Replayed deliveries that were already processed are acknowledged without
// re-applying their effects.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := s.provider.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		return err
	}

	record := &models.BillingWebhookEvent{
		Provider:        ProviderName,
		ProviderEventID: event.ID,
		EventType:       event.Type,
		PayloadJSON:     string(event.Payload),
		SignatureValid:  true,
	}
	created, stored, err := s.repo.CreateWebhookEventIfNotExists(record)
	if err != nil {
		return fmt.Errorf("record webhook event: %w", err)
	}
	if !created && stored.ProcessedAt != nil {
		log.Infof("[Billing] duplicate webhook %s (%s) ignored", event.ID, event.Type)
		return nil
	}

	if err := s.dispatchEvent(ctx, event); err != nil {
		if markErr := s.repo.MarkWebhookProcessed(stored.ID, err.Error()); markErr != nil {
			log.Errorf("[Billing] failed to mark webhook %s: %v", event.ID, markErr)
		}
		return err
	}

	return s.repo.MarkWebhookProcessed(stored.ID, "")
}

func (s *Service) dispatchEvent(ctx context.Context, event *Event) error {
	company, err := s.companyForEvent(event)
	if err != nil {
		return err
	}
	if company == nil {
		// Deliveries for customers we do not know (deleted tenants, test
		// events) are acknowledged so the provider stops retrying.
		log.Warnf("[Billing] webhook %s (%s) references unknown customer %q, acknowledging",
			event.ID, event.Type, event.CustomerID)
		return nil
	}

	switch event.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		_, err := s.applySubscription(ctx, company, event.Subscription)
		return err
	case EventInvoiceFailed:
		company.StripeStatus = models.SubscriptionStatusPastDue
		if err := s.repo.SaveCompany(company); err != nil {
			return err
		}
		s.invalidateGate(ctx, company.ID)
		log.Warnf("[Billing] payment failed for company %d (invoice %s, due %d)",
			company.ID, event.InvoiceID, event.AmountDue)
		return nil
	case EventInvoicePaid:
		log.Infof("[Billing] payment succeeded for company %d (invoice %s, paid %d)",
			company.ID, event.InvoiceID, event.AmountPaid)
		return nil
	case EventCustomerUpdated:
		if event.Customer != nil && event.Customer.Email != "" {
			company.Email = event.Customer.Email
			return s.repo.SaveCompany(company)
		}
		return nil
	default:
		log.Infof("[Billing] unhandled webhook type %s, acknowledging", event.Type)
		return nil
	}
}

func (s *Service) companyForEvent(event *Event) (*models.Company, error) {
	if event.CustomerID == "" {
		return nil, nil
	}
	company, err := s.repo.GetCompanyByStripeCustomerID(event.CustomerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return company, nil
}

// applySubscription writes the provider's view of a subscription into the
// local mirror and the company's denormalized billing columns, then drops
// the gate cache. The upsert keyed on the provider subscription id makes
// this safe to apply any number of times in any order.
func (s *Service) applySubscription(ctx context.Context, company *models.Company, psub *ProviderSubscription) (*models.Subscription, error) {
	if psub == nil {
		return nil, nil
	}

	sub := &models.Subscription{
		CompanyID:    company.ID,
		Name:         DefaultSubscriptionName,
		StripeID:     psub.ID,
		StripeStatus: psub.Status,
		StripePrice:  psub.PriceID,
		Quantity:     int(psub.Quantity),
		TrialEndsAt:  psub.TrialEnd,
		EndsAt:       subscriptionEndsAt(psub),
	}
	if sub.Quantity == 0 {
		sub.Quantity = 1
	}
	if err := s.repo.UpsertSubscription(sub); err != nil {
		return nil, fmt.Errorf("upsert subscription: %w", err)
	}

	company.StripeStatus = psub.Status
	company.StripePriceID = psub.PriceID
	switch psub.Status {
	case models.SubscriptionStatusActive:
		company.SubscribedUntil = psub.CurrentPeriodEnd
	case models.SubscriptionStatusTrialing:
		company.TrialEndsAt = psub.TrialEnd
	case models.SubscriptionStatusCanceled, models.SubscriptionStatusEnded:
		if !psub.CancelAtPeriodEnd {
			company.SubscribedUntil = sub.EndsAt
		}
	}
	if err := s.repo.SaveCompany(company); err != nil {
		return nil, fmt.Errorf("save company billing state: %w", err)
	}

	s.invalidateGate(ctx, company.ID)
	return sub, nil
}

func (s *Service) invalidateGate(ctx context.Context, companyID uint) {
	if s.gate == nil {
		return
	}
	if err := s.gate.Invalidate(ctx, companyID); err != nil {
		log.Warnf("[Billing] gate invalidation failed for company %d: %v", companyID, err)
	}
}

func subscriptionEndsAt(psub *ProviderSubscription) *time.Time {
	if psub.CancelAtPeriodEnd && psub.CurrentPeriodEnd != nil {
		return psub.CurrentPeriodEnd
	}
	if psub.CancelAt != nil {
		return psub.CancelAt
	}
	if psub.Status == models.SubscriptionStatusCanceled || psub.Status == models.SubscriptionStatusEnded {
		now := time.Now()
		return &now
	}
	return nil
}
