package repository

import (
	"time"

	"github.com/launchcrm/launchcrm/app/models"
	"gorm.io/gorm"
)

// ContactRepository defines tenant-scoped contact operations. Every
// implementation filters by the company captured at construction time.
type ContactRepository interface {
	Create(contact *models.Contact) error
	GetByID(id uint) (*models.Contact, error)
	List(opts ListOptions) ([]models.Contact, error)
	Update(contact *models.Contact) error
	Delete(id uint) error
	Count() (int64, error)
}

// LeadRepository defines tenant-scoped lead operations
type LeadRepository interface {
	Create(lead *models.Lead) error
	GetByID(id uint) (*models.Lead, error)
	List(opts ListOptions) ([]models.Lead, error)
	ListByAssignee(userID uint) ([]models.Lead, error)
	Update(lead *models.Lead) error
	Delete(id uint) error
	Count() (int64, error)
	CountCreatedBetween(from, to time.Time) (int64, error)
}

// DealRepository defines tenant-scoped deal operations
type DealRepository interface {
	Create(deal *models.Deal) error
	GetByID(id uint) (*models.Deal, error)
	List(opts ListOptions) ([]models.Deal, error)
	ListByAssignee(userID uint) ([]models.Deal, error)
	Update(deal *models.Deal) error
	Delete(id uint) error
	Count() (int64, error)
	CountByStatus(status string) (int64, error)
}

// TaskRepository defines tenant-scoped task operations
type TaskRepository interface {
	Create(task *models.Task) error
	GetByID(id uint) (*models.Task, error)
	List(opts ListOptions) ([]models.Task, error)
	ListByAssignee(userID uint) ([]models.Task, error)
	Update(task *models.Task) error
	Delete(id uint) error
	Count() (int64, error)
	CountOpen() (int64, error)
}

// TeamRepository defines tenant-scoped access to the company's own users
// and role assignments.
type TeamRepository interface {
	GetUserByID(id uint) (*models.User, error)
	ListUsers(offset, limit int) ([]models.User, error)
	UpdateUser(user *models.User) error
	AnonymizeUser(id uint, placeholderName, placeholderEmail string) error
	DeleteUser(id uint) error
	CountUsers() (int64, error)
	GetRole(userID uint) (string, error)
	SetRole(userID uint, role string) error
	RemoveRole(userID uint) error
	ListInvitations(offset, limit int) ([]models.Invitation, error)
	CreateInvitation(inv *models.Invitation) error
}

// CompanyRepository defines platform-level tenant lookup. Company is the
// tenant itself and therefore not subject to tenant scoping.
type CompanyRepository interface {
	Create(company *models.Company) error
	GetByID(id uint) (*models.Company, error)
	GetBySubdomain(subdomain string) (*models.Company, error)
	GetByStripeCustomerID(customerID string) (*models.Company, error)
	SubdomainExists(subdomain string) (bool, error)
	Update(company *models.Company) error
}

// AccountRepository defines the cross-tenant user lookups needed before a
// tenant context exists (login, invitation acceptance).
type AccountRepository interface {
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	GetUserByActivationToken(token string) (*models.User, error)
	EmailExists(email string) (bool, error)
	UpdateUser(user *models.User) error
	GetInvitationByToken(token string) (*models.Invitation, error)
	ConsumeInvitation(id uint) (bool, error)
	SetRole(userID, companyID uint, role string) error
	GetRole(userID, companyID uint) (string, error)
	RecordConsent(record *models.ConsentRecord) error
	ListConsents(userID uint) ([]models.ConsentRecord, error)
}

// PlanRepository defines access to the global plan catalog.
type PlanRepository interface {
	GetActive() ([]models.Plan, error)
	GetByID(id uint) (*models.Plan, error)
	GetByStripePriceID(priceID string) (*models.Plan, error)
}

// ListOptions is the common pagination/filter envelope for tenant-scoped
// list queries.
type ListOptions struct {
	Offset  int
	Limit   int
	Search  string
	Status  string
	OrderBy string
}

// TenantRepositories bundles every tenant-scoped repository for one
// request. Obtain it via ForCompany; there is no other constructor, which
// is what makes an unscoped query against tenant-owned entities
// structurally impossible.
type TenantRepositories struct {
	CompanyID uint

	Contacts ContactRepository
	Leads    LeadRepository
	Deals    DealRepository
	Tasks    TaskRepository
	Team     TeamRepository
}

// ForCompany binds every tenant-scoped repository to one company id.
func ForCompany(db *gorm.DB, companyID uint) *TenantRepositories {
	return &TenantRepositories{
		CompanyID: companyID,
		Contacts:  newContactRepository(db, companyID),
		Leads:     newLeadRepository(db, companyID),
		Deals:     newDealRepository(db, companyID),
		Tasks:     newTaskRepository(db, companyID),
		Team:      newTeamRepository(db, companyID),
	}
}
