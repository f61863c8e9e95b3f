package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/launchcrm/launchcrm/app/models"
	"github.com/launchcrm/launchcrm/internal/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mapStore struct {
	values map[string]string
	bools  map[string]bool
}

func newMapStore() *mapStore {
	return &mapStore{values: map[string]string{}, bools: map[string]bool{}}
}

func (s *mapStore) Get(key string) (string, error) {
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return "", cache.ErrCacheMiss
}

func (s *mapStore) Set(key, value string, _ time.Duration) error {
	s.values[key] = value
	return nil
}

func (s *mapStore) GetBool(key string) (bool, bool, error) {
	v, ok := s.bools[key]
	return v, ok, nil
}

func (s *mapStore) SetBool(key string, value bool, _ time.Duration) error {
	s.bools[key] = value
	return nil
}

func (s *mapStore) Delete(key string) error {
	delete(s.values, key)
	delete(s.bools, key)
	return nil
}

type stubCompanyRepo struct {
	companies map[uint]*models.Company
	queries   int
}

func (r *stubCompanyRepo) Create(*models.Company) error { return nil }

func (r *stubCompanyRepo) GetByID(id uint) (*models.Company, error) {
	r.queries++
	if c, ok := r.companies[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCompanyRepo) GetBySubdomain(string) (*models.Company, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCompanyRepo) GetByStripeCustomerID(string) (*models.Company, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubCompanyRepo) SubdomainExists(string) (bool, error) { return false, nil }
func (r *stubCompanyRepo) Update(*models.Company) error         { return nil }

func subscribedCompany(id uint) *models.Company {
	until := time.Now().Add(15 * 24 * time.Hour)
	return &models.Company{ID: id, Name: "Acme", SubscribedUntil: &until}
}

func trialCompany(id uint) *models.Company {
	trial := time.Now().Add(7 * 24 * time.Hour)
	return &models.Company{ID: id, Name: "Acme", TrialEndsAt: &trial}
}

func expiredCompany(id uint) *models.Company {
	past := time.Now().Add(-24 * time.Hour)
	return &models.Company{ID: id, Name: "Acme", SubscribedUntil: &past, TrialEndsAt: &past}
}

func TestIsActiveSubscribed(t *testing.T) {
	repo := &stubCompanyRepo{companies: map[uint]*models.Company{1: subscribedCompany(1)}}
	gate := NewGate(repo, newMapStore())

	active, err := gate.IsActive(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestIsActiveTrial(t *testing.T) {
	repo := &stubCompanyRepo{companies: map[uint]*models.Company{2: trialCompany(2)}}
	gate := NewGate(repo, newMapStore())

	active, err := gate.IsActive(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestIsActiveExpired(t *testing.T) {
	repo := &stubCompanyRepo{companies: map[uint]*models.Company{3: expiredCompany(3)}}
	gate := NewGate(repo, newMapStore())

	active, err := gate.IsActive(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestIsActiveCachesBothOutcomes(t *testing.T) {
	repo := &stubCompanyRepo{companies: map[uint]*models.Company{
		1: subscribedCompany(1),
		3: expiredCompany(3),
	}}
	store := newMapStore()
	gate := NewGate(repo, store)

	for i := 0; i < 3; i++ {
		active, err := gate.IsActive(context.Background(), 1)
		require.NoError(t, err)
		assert.True(t, active)
	}
	for i := 0; i < 3; i++ {
		active, err := gate.IsActive(context.Background(), 3)
		require.NoError(t, err)
		assert.False(t, active)
	}
	assert.Equal(t, 2, repo.queries, "one database read per company, rest from cache")
}

func TestIsActiveUnknownCompany(t *testing.T) {
	gate := NewGate(&stubCompanyRepo{companies: map[uint]*models.Company{}}, newMapStore())

	active, err := gate.IsActive(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestInvalidateForcesRecompute(t *testing.T) {
	company := subscribedCompany(5)
	repo := &stubCompanyRepo{companies: map[uint]*models.Company{5: company}}
	store := newMapStore()
	gate := NewGate(repo, store)

	active, err := gate.IsActive(context.Background(), 5)
	require.NoError(t, err)
	require.True(t, active)

	// Cancellation lands in the database; the cache still says active.
	past := time.Now().Add(-time.Hour)
	company.SubscribedUntil = &past

	active, err = gate.IsActive(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, active, "stale cached answer before invalidation")

	require.NoError(t, gate.Invalidate(context.Background(), 5))

	active, err = gate.IsActive(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, active, "invalidation makes the cancellation visible immediately")
}
