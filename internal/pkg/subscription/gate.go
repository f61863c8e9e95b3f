// Package subscription implements the gate that decides whether a tenant
// currently has feature access.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/launchcrm/launchcrm/app/repository"
	"github.com/launchcrm/launchcrm/internal/pkg/cache"
	"gorm.io/gorm"
)

// ErrSubscriptionRequired marks a blocked tenant. Surfaced as HTTP 402
// with status "subscription_expired", never as a generic error.
var ErrSubscriptionRequired = errors.New("subscription: expired")

// StatusTTL is deliberately short: subscription status changes more often
// than tenant metadata and cancellations must bite promptly even if an
// explicit invalidation is missed.
const StatusTTL = 60 * time.Second

// Gate answers "is this tenant's subscription active" with a cached,
// explicitly invalidated answer.
type Gate struct {
	companies repository.CompanyRepository
	store     cache.Store
}

// NewGate creates a subscription gate.
func NewGate(companies repository.CompanyRepository, store cache.Store) *Gate {
	return &Gate{companies: companies, store: store}
}

func statusKey(companyID uint) string {
	return fmt.Sprintf("tenant:%d:subscribed", companyID)
}

// IsActive reports whether the company is subscribed or trialing. The
// cached value is authoritative within StatusTTL; lifecycle mutations call
// Invalidate synchronously so a cancellation is visible immediately.
func (g *Gate) IsActive(ctx context.Context, companyID uint) (bool, error) {
	_ = ctx

	if active, found, err := g.store.GetBool(statusKey(companyID)); err == nil && found {
		return active, nil
	} else if err != nil {
		log.Warnf("[Subscription] cache read failed for company %d: %v", companyID, err)
	}

	company, err := g.companies.GetByID(companyID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	active := company.IsSubscribed() || company.IsOnTrial()
	if err := g.store.SetBool(statusKey(companyID), active, StatusTTL); err != nil {
		log.Warnf("[Subscription] cache write failed for company %d: %v", companyID, err)
	}
	return active, nil
}

// Invalidate drops the cached status for a company. Every subscription
// lifecycle mutation must call this before returning to its caller, so no
// stale "active" read can outlive a cancellation.
func (g *Gate) Invalidate(ctx context.Context, companyID uint) error {
	_ = ctx
	return g.store.Delete(statusKey(companyID))
}
