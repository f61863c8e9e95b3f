package tenant

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
	gets   int
	sets   int
}

func newMapStore() *mapStore {
	return &mapStore{values: map[string]string{}, bools: map[string]bool{}}
}

func (s *mapStore) Get(key string) (string, error) {
	s.gets++
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return "", cache.ErrCacheMiss
}

func (s *mapStore) Set(key, value string, _ time.Duration) error {
	s.sets++
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
	bySubdomain map[string]*models.Company
	queries     int
}

func (r *stubCompanyRepo) Create(*models.Company) error { return nil }
func (r *stubCompanyRepo) GetByID(uint) (*models.Company, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCompanyRepo) GetBySubdomain(subdomain string) (*models.Company, error) {
	r.queries++
	if c, ok := r.bySubdomain[subdomain]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCompanyRepo) GetByStripeCustomerID(string) (*models.Company, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubCompanyRepo) SubdomainExists(string) (bool, error) { return false, nil }
func (r *stubCompanyRepo) Update(*models.Company) error         { return nil }

func TestResolveCachesCompany(t *testing.T) {
	store := newMapStore()
	repo := &stubCompanyRepo{bySubdomain: map[string]*models.Company{
		"acme": {ID: 1, Name: "Acme", Subdomain: "acme"},
	}}
	dir := NewDirectory(repo, store)

	first, err := dir.Resolve(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.ID)
	assert.Equal(t, 1, repo.queries)

	second, err := dir.Resolve(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, uint(1), second.ID)
	assert.Equal(t, 1, repo.queries, "second resolve must be served from cache")
}

func TestResolveUnknownSubdomain(t *testing.T) {
	dir := NewDirectory(&stubCompanyRepo{bySubdomain: map[string]*models.Company{}}, newMapStore())

	_, err := dir.Resolve(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestResolveEmptySubdomain(t *testing.T) {
	dir := NewDirectory(&stubCompanyRepo{}, newMapStore())

	_, err := dir.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestResolveCorruptCacheFallsBack(t *testing.T) {
	store := newMapStore()
	store.values["tenant:acme"] = "{not json"
	repo := &stubCompanyRepo{bySubdomain: map[string]*models.Company{
		"acme": {ID: 1, Name: "Acme", Subdomain: "acme"},
	}}
	dir := NewDirectory(repo, store)

	company, err := dir.Resolve(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, uint(1), company.ID)
	assert.Equal(t, 1, repo.queries)
}

func TestResolveMissIsNotCached(t *testing.T) {
	store := newMapStore()
	repo := &stubCompanyRepo{bySubdomain: map[string]*models.Company{}}
	dir := NewDirectory(repo, store)

	_, err := dir.Resolve(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrTenantNotFound)

	_, err = dir.Resolve(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrTenantNotFound)
	assert.Equal(t, 2, repo.queries, "negative results go back to the database")
}

func TestExtractSubdomain(t *testing.T) {
	tests := []struct {
		name   string
		host   string
		suffix string
		want   string
	}{
		{"tenant host", "acme.launchcrm.test", ".launchcrm.test", "acme"},
		{"main domain", "launchcrm.test", ".launchcrm.test", ""},
		{"unrelated host", "evil.example.com", ".launchcrm.test", ""},
		{"empty suffix", "acme.launchcrm.test", "", ""},
		{"nested label", "a.b.launchcrm.test", ".launchcrm.test", "a.b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSubdomain(tt.host, tt.suffix))
		})
	}
}
