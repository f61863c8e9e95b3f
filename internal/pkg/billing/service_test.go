package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/launchcrm/launchcrm/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeProvider struct {
	failAll      bool
	customers    int
	subs         map[string]*ProviderSubscription
	subCounter   int
	verifyEvent  *Event
	verifyErr    error
	cancelCalled bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{subs: map[string]*ProviderSubscription{}}
}

func (p *fakeProvider) CreateCustomer(_ context.Context, company *models.Company) (*Customer, error) {
	if p.failAll {
		return nil, ErrProvider
	}
	p.customers++
	return &Customer{ID: fmt.Sprintf("cus_%d", p.customers), Name: company.Name, Email: company.Email}, nil
}

func (p *fakeProvider) CreateSubscription(_ context.Context, customerID, priceID string, trialDays int64) (*ProviderSubscription, error) {
	if p.failAll {
		return nil, ErrProvider
	}
	p.subCounter++
	end := time.Now().Add(30 * 24 * time.Hour)
	sub := &ProviderSubscription{
		ID:               fmt.Sprintf("sub_%d", p.subCounter),
		CustomerID:       customerID,
		Status:           models.SubscriptionStatusActive,
		PriceID:          priceID,
		Quantity:         1,
		CurrentPeriodEnd: &end,
	}
	if trialDays > 0 {
		trialEnd := time.Now().Add(time.Duration(trialDays) * 24 * time.Hour)
		sub.Status = models.SubscriptionStatusTrialing
		sub.TrialEnd = &trialEnd
	}
	p.subs[customerID] = sub
	return sub, nil
}

func (p *fakeProvider) CancelSubscription(_ context.Context, customerID string, atPeriodEnd bool) (*ProviderSubscription, error) {
	if p.failAll {
		return nil, ErrProvider
	}
	p.cancelCalled = true
	sub, ok := p.subs[customerID]
	if !ok {
		return nil, ErrNoActiveSubscription
	}
	out := *sub
	if atPeriodEnd {
		out.CancelAtPeriodEnd = true
	} else {
		out.Status = models.SubscriptionStatusCanceled
		out.CurrentPeriodEnd = nil
	}
	return &out, nil
}

func (p *fakeProvider) UpdateSubscription(_ context.Context, customerID, newPriceID string) (*ProviderSubscription, error) {
	if p.failAll {
		return nil, ErrProvider
	}
	sub, ok := p.subs[customerID]
	if !ok {
		return nil, ErrNoActiveSubscription
	}
	out := *sub
	out.PriceID = newPriceID
	return &out, nil
}

func (p *fakeProvider) ListSubscriptions(_ context.Context, customerID string) ([]ProviderSubscription, error) {
	if p.failAll {
		return nil, ErrProvider
	}
	if sub, ok := p.subs[customerID]; ok {
		return []ProviderSubscription{*sub}, nil
	}
	return nil, nil
}

func (p *fakeProvider) ListInvoices(_ context.Context, _ string) ([]Invoice, error) {
	if p.failAll {
		return nil, ErrProvider
	}
	return []Invoice{{ID: "in_1", Status: "paid", AmountPaid: 4900}}, nil
}

func (p *fakeProvider) VerifyWebhook(_ []byte, _ string) (*Event, error) {
	if p.verifyErr != nil {
		return nil, p.verifyErr
	}
	return p.verifyEvent, nil
}

type fakeRepository struct {
	companies     map[string]*models.Company
	subscriptions map[string]*models.Subscription
	events        map[string]*models.BillingWebhookEvent
	nextEventID   uint
	upsertCalls   int
	saveCalls     int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		companies:     map[string]*models.Company{},
		subscriptions: map[string]*models.Subscription{},
		events:        map[string]*models.BillingWebhookEvent{},
	}
}

func (r *fakeRepository) GetCompanyByStripeCustomerID(customerID string) (*models.Company, error) {
	if c, ok := r.companies[customerID]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) SaveCompany(company *models.Company) error {
	r.saveCalls++
	if company.StripeCustomerID != "" {
		r.companies[company.StripeCustomerID] = company
	}
	return nil
}

func (r *fakeRepository) UpsertSubscription(sub *models.Subscription) error {
	r.upsertCalls++
	if existing, ok := r.subscriptions[sub.StripeID]; ok {
		sub.ID = existing.ID
	} else {
		sub.ID = uint(len(r.subscriptions) + 1)
	}
	stored := *sub
	r.subscriptions[sub.StripeID] = &stored
	return nil
}

func (r *fakeRepository) GetSubscriptionByStripeID(stripeID string) (*models.Subscription, error) {
	if s, ok := r.subscriptions[stripeID]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) ListSubscriptionsByCompany(companyID uint) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, s := range r.subscriptions {
		if s.CompanyID == companyID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	key := event.Provider + ":" + event.ProviderEventID
	if existing, ok := r.events[key]; ok {
		return false, existing, nil
	}
	r.nextEventID++
	event.ID = r.nextEventID
	stored := *event
	r.events[key] = &stored
	return true, &stored, nil
}

func (r *fakeRepository) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range r.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeGate struct {
	invalidated []uint
}

func (g *fakeGate) Invalidate(_ context.Context, companyID uint) error {
	g.invalidated = append(g.invalidated, companyID)
	return nil
}

func newTestService() (*Service, *fakeProvider, *fakeRepository, *fakeGate) {
	provider := newFakeProvider()
	repo := newFakeRepository()
	gate := &fakeGate{}
	return NewService(provider, repo, gate), provider, repo, gate
}

func TestSubscribeCreatesCustomerAndLocalMirror(t *testing.T) {
	svc, _, repo, gate := newTestService()
	company := &models.Company{ID: 7, Name: "Acme", Email: "billing@acme.test"}

	sub, err := svc.Subscribe(context.Background(), company, "price_pro", 0)
	require.NoError(t, err)

	assert.Equal(t, "cus_1", company.StripeCustomerID)
	assert.Equal(t, models.SubscriptionStatusActive, sub.StripeStatus)
	assert.Equal(t, uint(7), sub.CompanyID)
	assert.Equal(t, "price_pro", company.StripePriceID)
	require.NotNil(t, company.SubscribedUntil)
	assert.True(t, company.IsSubscribed())
	assert.Equal(t, []uint{7}, gate.invalidated)
	assert.Len(t, repo.subscriptions, 1)
}

func TestSubscribeWithTrial(t *testing.T) {
	svc, _, _, _ := newTestService()
	company := &models.Company{ID: 3, Name: "Trialers"}

	sub, err := svc.Subscribe(context.Background(), company, "price_basic", 14)
	require.NoError(t, err)

	assert.Equal(t, models.SubscriptionStatusTrialing, sub.StripeStatus)
	require.NotNil(t, company.TrialEndsAt)
	assert.True(t, company.IsOnTrial())
}

func TestSubscribeProviderFailureWritesNothing(t *testing.T) {
	svc, provider, repo, gate := newTestService()
	provider.failAll = true
	company := &models.Company{ID: 9, Name: "Acme"}

	_, err := svc.Subscribe(context.Background(), company, "price_pro", 0)
	require.ErrorIs(t, err, ErrProvider)

	assert.Empty(t, company.StripeCustomerID)
	assert.Zero(t, repo.saveCalls)
	assert.Zero(t, repo.upsertCalls)
	assert.Empty(t, gate.invalidated)
}

func TestCancelImmediateInvalidatesGate(t *testing.T) {
	svc, _, _, gate := newTestService()
	company := &models.Company{ID: 4, Name: "Acme"}

	_, err := svc.Subscribe(context.Background(), company, "price_pro", 0)
	require.NoError(t, err)
	gate.invalidated = nil

	sub, err := svc.Cancel(context.Background(), company, false)
	require.NoError(t, err)

	assert.Equal(t, models.SubscriptionStatusCanceled, sub.StripeStatus)
	assert.Equal(t, models.SubscriptionStatusCanceled, company.StripeStatus)
	assert.False(t, company.IsSubscribed())
	assert.Equal(t, []uint{4}, gate.invalidated)
}

func TestCancelAtPeriodEndKeepsPaidWindow(t *testing.T) {
	svc, _, _, _ := newTestService()
	company := &models.Company{ID: 4, Name: "Acme"}

	_, err := svc.Subscribe(context.Background(), company, "price_pro", 0)
	require.NoError(t, err)
	paidUntil := *company.SubscribedUntil

	sub, err := svc.Cancel(context.Background(), company, true)
	require.NoError(t, err)

	require.NotNil(t, sub.EndsAt)
	assert.WithinDuration(t, paidUntil, *sub.EndsAt, time.Second)
	assert.True(t, company.IsSubscribed(), "access lasts until the period ends")
}

func TestCancelWithoutCustomer(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Cancel(context.Background(), &models.Company{ID: 1}, false)
	assert.ErrorIs(t, err, ErrNoCustomer)
}

func TestChangePlanUpdatesPrice(t *testing.T) {
	svc, _, _, gate := newTestService()
	company := &models.Company{ID: 2, Name: "Acme"}

	_, err := svc.Subscribe(context.Background(), company, "price_basic", 0)
	require.NoError(t, err)
	gate.invalidated = nil

	sub, err := svc.ChangePlan(context.Background(), company, "price_enterprise")
	require.NoError(t, err)

	assert.Equal(t, "price_enterprise", sub.StripePrice)
	assert.Equal(t, "price_enterprise", company.StripePriceID)
	assert.Equal(t, []uint{2}, gate.invalidated)
}

func subscriptionEvent(id string, company *models.Company, status string) *Event {
	end := time.Now().Add(30 * 24 * time.Hour)
	return &Event{
		ID:         id,
		Type:       EventSubscriptionUpdated,
		CustomerID: company.StripeCustomerID,
		Subscription: &ProviderSubscription{
			ID:               "sub_hook",
			CustomerID:       company.StripeCustomerID,
			Status:           status,
			PriceID:          "price_pro",
			Quantity:         1,
			CurrentPeriodEnd: &end,
		},
		Payload: []byte(`{}`),
	}
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	svc, provider, repo, _ := newTestService()
	provider.verifyErr = fmt.Errorf("%w: bad header", ErrSignature)

	err := svc.HandleWebhook(context.Background(), []byte(`{}`), "t=1,v1=bogus")
	require.ErrorIs(t, err, ErrSignature)
	assert.Empty(t, repo.events, "unverified payloads are never stored")
}

func TestHandleWebhookReplayIsIdempotent(t *testing.T) {
	svc, provider, repo, gate := newTestService()
	company := &models.Company{ID: 5, Name: "Acme", StripeCustomerID: "cus_5"}
	repo.companies["cus_5"] = company
	provider.verifyEvent = subscriptionEvent("evt_1", company, models.SubscriptionStatusActive)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(`{}`), "sig"))
	upsertsAfterFirst := repo.upsertCalls
	invalidationsAfterFirst := len(gate.invalidated)

	// Same event id delivered again.
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(`{}`), "sig"))

	assert.Equal(t, upsertsAfterFirst, repo.upsertCalls, "replay must not re-apply state")
	assert.Equal(t, invalidationsAfterFirst, len(gate.invalidated))
	assert.Len(t, repo.events, 1)
}

func TestHandleWebhookSubscriptionDeleted(t *testing.T) {
	svc, provider, repo, gate := newTestService()
	until := time.Now().Add(20 * 24 * time.Hour)
	company := &models.Company{ID: 6, Name: "Acme", StripeCustomerID: "cus_6", SubscribedUntil: &until}
	repo.companies["cus_6"] = company

	event := subscriptionEvent("evt_del", company, models.SubscriptionStatusCanceled)
	event.Type = EventSubscriptionDeleted
	event.Subscription.CurrentPeriodEnd = nil
	provider.verifyEvent = event

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(`{}`), "sig"))

	assert.Equal(t, models.SubscriptionStatusCanceled, company.StripeStatus)
	assert.False(t, company.IsSubscribed())
	assert.Equal(t, []uint{6}, gate.invalidated)
}

func TestHandleWebhookInvoiceFailedMarksPastDue(t *testing.T) {
	svc, provider, repo, gate := newTestService()
	company := &models.Company{ID: 8, Name: "Acme", StripeCustomerID: "cus_8"}
	repo.companies["cus_8"] = company
	provider.verifyEvent = &Event{
		ID:         "evt_fail",
		Type:       EventInvoiceFailed,
		CustomerID: "cus_8",
		InvoiceID:  "in_9",
		AmountDue:  4900,
		Payload:    []byte(`{}`),
	}

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(`{}`), "sig"))

	assert.Equal(t, models.SubscriptionStatusPastDue, company.StripeStatus)
	assert.Equal(t, []uint{8}, gate.invalidated)
}

func TestHandleWebhookUnknownCustomerAcknowledged(t *testing.T) {
	svc, provider, repo, _ := newTestService()
	provider.verifyEvent = &Event{
		ID:         "evt_ghost",
		Type:       EventSubscriptionUpdated,
		CustomerID: "cus_unknown",
		Subscription: &ProviderSubscription{
			ID:         "sub_ghost",
			CustomerID: "cus_unknown",
			Status:     models.SubscriptionStatusActive,
		},
		Payload: []byte(`{}`),
	}

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(`{}`), "sig"))

	assert.Zero(t, repo.upsertCalls)
	key := ProviderName + ":evt_ghost"
	require.Contains(t, repo.events, key)
	assert.NotNil(t, repo.events[key].ProcessedAt, "acknowledged so the provider stops retrying")
}

func TestHandleWebhookDispatchErrorRecorded(t *testing.T) {
	svc, provider, repo, _ := newTestService()
	company := &models.Company{ID: 11, Name: "Acme", StripeCustomerID: "cus_11"}
	repo.companies["cus_11"] = company
	provider.verifyEvent = subscriptionEvent("evt_err", company, models.SubscriptionStatusActive)

	brokenRepo := &erroringRepository{fakeRepository: repo}
	svc.repo = brokenRepo

	err := svc.HandleWebhook(context.Background(), []byte(`{}`), "sig")
	require.Error(t, err)

	key := ProviderName + ":evt_err"
	require.Contains(t, repo.events, key)
	assert.NotEmpty(t, repo.events[key].ProcessingError)
}

type erroringRepository struct {
	*fakeRepository
}

func (r *erroringRepository) UpsertSubscription(_ *models.Subscription) error {
	return errors.New("db unavailable")
}

func TestSyncStatusReconciles(t *testing.T) {
	svc, provider, repo, _ := newTestService()
	company := &models.Company{ID: 12, Name: "Acme"}

	_, err := svc.Subscribe(context.Background(), company, "price_pro", 0)
	require.NoError(t, err)

	// Provider-side change that no webhook delivered.
	provider.subs[company.StripeCustomerID].Status = models.SubscriptionStatusPastDue

	require.NoError(t, svc.SyncStatus(context.Background(), company))

	subs, err := repo.ListSubscriptionsByCompany(12)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, models.SubscriptionStatusPastDue, subs[0].StripeStatus)
}
