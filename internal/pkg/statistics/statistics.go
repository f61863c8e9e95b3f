// Package statistics serves the slow-moving dashboard aggregates, cache
// first. Counts are computed through the tenant-scoped repositories so the
// company binding is never hand-written here.
package statistics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/launchcrm/launchcrm/app/models"
	"github.com/launchcrm/launchcrm/app/repository"
	"github.com/launchcrm/launchcrm/internal/pkg/cache"
)

const (
	cacheKeyLeadsDaily = "statistics:company:%d:leads:daily:%s" // date YYYY-MM-DD
	cacheKeyWonDeals   = "statistics:company:%d:deals:won"
	cacheKeyOpenTasks  = "statistics:company:%d:tasks:open"
	CacheExpiration    = 30 * time.Minute
)

// CompanyStats are the dashboard aggregates for one tenant.
type CompanyStats struct {
	NewLeadsToday int64 `json:"new_leads_today"`
	WonDeals      int64 `json:"won_deals"`
	OpenTasks     int64 `json:"open_tasks"`
}

// Service computes and caches per-tenant aggregates.
type Service struct {
	store cache.Store
}

// New creates a statistics service over the given cache store.
func New(store cache.Store) *Service {
	return &Service{store: store}
}

// CompanyStats returns the cached aggregates for the repositories' tenant.
// A miss recomputes from the database.
func (s *Service) CompanyStats(repos *repository.TenantRepositories) CompanyStats {
	return CompanyStats{
		NewLeadsToday: s.newLeadsToday(repos),
		WonDeals:      s.wonDeals(repos),
		OpenTasks:     s.openTasks(repos),
	}
}

// Invalidate drops the cached aggregates after a mutation that changes them.
func (s *Service) Invalidate(companyID uint) {
	today := time.Now().Format("2006-01-02")
	for _, key := range []string{
		fmt.Sprintf(cacheKeyLeadsDaily, companyID, today),
		fmt.Sprintf(cacheKeyWonDeals, companyID),
		fmt.Sprintf(cacheKeyOpenTasks, companyID),
	} {
		if err := s.store.Delete(key); err != nil {
			log.Warnf("[Statistics] failed to invalidate %s: %v", key, err)
		}
	}
}

func (s *Service) newLeadsToday(repos *repository.TenantRepositories) int64 {
	today := time.Now().Format("2006-01-02")
	key := fmt.Sprintf(cacheKeyLeadsDaily, repos.CompanyID, today)

	return s.cachedCount(key, func() (int64, error) {
		todayStart, _ := time.Parse("2006-01-02", today)
		return repos.Leads.CountCreatedBetween(todayStart, todayStart.Add(24*time.Hour))
	})
}

func (s *Service) wonDeals(repos *repository.TenantRepositories) int64 {
	key := fmt.Sprintf(cacheKeyWonDeals, repos.CompanyID)

	return s.cachedCount(key, func() (int64, error) {
		return repos.Deals.CountByStatus(models.DealStatusClosedWon)
	})
}

func (s *Service) openTasks(repos *repository.TenantRepositories) int64 {
	key := fmt.Sprintf(cacheKeyOpenTasks, repos.CompanyID)

	return s.cachedCount(key, func() (int64, error) {
		return repos.Tasks.CountOpen()
	})
}

// cachedCount reads a counter through the cache. Count failures degrade to
// zero rather than failing the dashboard.
func (s *Service) cachedCount(key string, compute func() (int64, error)) int64 {
	if val, err := s.store.Get(key); err == nil {
		if count, perr := strconv.ParseInt(val, 10, 64); perr == nil {
			return count
		}
	}

	count, err := compute()
	if err != nil {
		log.Warnf("[Statistics] failed to compute %s: %v", key, err)
		return 0
	}
	if err := s.store.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
		log.Warnf("[Statistics] failed to cache %s: %v", key, err)
	}
	return count
}
