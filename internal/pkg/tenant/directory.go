// Package tenant resolves a request's subdomain to its company record.
package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/launchcrm/launchcrm/app/models"
	"github.com/launchcrm/launchcrm/app/repository"
	"github.com/launchcrm/launchcrm/internal/pkg/cache"
	"gorm.io/gorm"
)

// ErrTenantNotFound is returned for subdomains that resolve to nothing.
// The HTTP layer must turn this into a plain 404 so callers cannot probe
// which subdomains used to exist.
var ErrTenantNotFound = errors.New("tenant: not found")

// ResolutionTTL bounds how stale cached tenant metadata may get. Metadata
// edits are not proactively invalidated; callers accept eventual
// consistency inside this window.
const ResolutionTTL = 5 * time.Minute

// Directory resolves subdomains to companies, cache first.
type Directory struct {
	companies repository.CompanyRepository
	store     cache.Store
}

// NewDirectory creates a tenant directory over the company repository and
// cache store.
func NewDirectory(companies repository.CompanyRepository, store cache.Store) *Directory {
	return &Directory{companies: companies, store: store}
}

func cacheKey(subdomain string) string {
	return fmt.Sprintf("tenant:%s", subdomain)
}

// Resolve maps a subdomain to its company. Cache hits skip the database;
// misses load from the store and repopulate the cache with ResolutionTTL.
func (d *Directory) Resolve(ctx context.Context, subdomain string) (*models.Company, error) {
	_ = ctx
	if subdomain == "" {
		return nil, ErrTenantNotFound
	}

	if cached, err := d.store.Get(cacheKey(subdomain)); err == nil {
		var company models.Company
		if err := json.Unmarshal([]byte(cached), &company); err == nil {
			return &company, nil
		}
		// Corrupt entry: drop it and fall through to the database.
		_ = d.store.Delete(cacheKey(subdomain))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warnf("[Tenant] cache read failed for %s: %v", subdomain, err)
	}

	company, err := d.companies.GetBySubdomain(subdomain)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(company); err == nil {
		if err := d.store.Set(cacheKey(subdomain), string(data), ResolutionTTL); err != nil {
			log.Warnf("[Tenant] cache write failed for %s: %v", subdomain, err)
		}
	}

	return company, nil
}

// ExtractSubdomain strips the configured tenant suffix from a request
// host. An empty result means the main domain (public routes).
func ExtractSubdomain(host, suffix string) string {
	if suffix == "" || len(host) <= len(suffix) {
		return ""
	}
	if host[len(host)-len(suffix):] != suffix {
		return ""
	}
	return host[:len(host)-len(suffix)]
}
