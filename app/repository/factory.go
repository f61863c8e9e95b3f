package repository

import (
	"sync"

	"gorm.io/gorm"
)

// GlobalRepositories holds the repositories that are not tenant-scoped.
// Tenant-scoped repositories are never kept here: they are constructed per
// request via ForCompany so the company binding can never outlive a request.
type GlobalRepositories struct {
	Company CompanyRepository
	Account AccountRepository
	Plan    PlanRepository
}

// NewGlobalRepositories creates all platform-level repositories.
func NewGlobalRepositories(db *gorm.DB) *GlobalRepositories {
	return &GlobalRepositories{
		Company: NewCompanyRepository(db),
		Account: NewAccountRepository(db),
		Plan:    NewPlanRepository(db),
	}
}

// Factory manages the global repository instances as singletons.
type Factory struct {
	db    *gorm.DB
	repos *GlobalRepositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetGlobalRepositories returns a singleton instance of the global repositories
func (f *Factory) GetGlobalRepositories() *GlobalRepositories {
	f.once.Do(func() {
		f.repos = NewGlobalRepositories(f.db)
	})
	return f.repos
}

// ForCompany binds a fresh set of tenant-scoped repositories to a company.
func (f *Factory) ForCompany(companyID uint) *TenantRepositories {
	return ForCompany(f.db, companyID)
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}
