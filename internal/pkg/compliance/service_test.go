package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/launchcrm/launchcrm/app/models"
	"github.com/launchcrm/launchcrm/app/repository"
	"github.com/launchcrm/launchcrm/internal/pkg/exportstore"
)

type fakeTeamRepo struct {
	user *models.User
	role string

	anonymizedID    uint
	anonymizedName  string
	anonymizedEmail string
	anonymizeErr    error
}

func (r *fakeTeamRepo) GetUserByID(id uint) (*models.User, error) {
	if r.user == nil || r.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return r.user, nil
}

func (r *fakeTeamRepo) ListUsers(int, int) ([]models.User, error) { return nil, nil }
func (r *fakeTeamRepo) UpdateUser(*models.User) error             { return nil }

func (r *fakeTeamRepo) AnonymizeUser(id uint, name, email string) error {
	if r.anonymizeErr != nil {
		return r.anonymizeErr
	}
	r.anonymizedID = id
	r.anonymizedName = name
	r.anonymizedEmail = email
	return nil
}

func (r *fakeTeamRepo) DeleteUser(uint) error        { return nil }
func (r *fakeTeamRepo) CountUsers() (int64, error)   { return 0, nil }
func (r *fakeTeamRepo) GetRole(uint) (string, error) { return r.role, nil }
func (r *fakeTeamRepo) SetRole(uint, string) error   { return nil }
func (r *fakeTeamRepo) RemoveRole(uint) error        { return nil }
func (r *fakeTeamRepo) ListInvitations(int, int) ([]models.Invitation, error) {
	return nil, nil
}
func (r *fakeTeamRepo) CreateInvitation(*models.Invitation) error { return nil }

type fakeLeadRepo struct {
	assigned []models.Lead
}

func (r *fakeLeadRepo) Create(*models.Lead) error          { return nil }
func (r *fakeLeadRepo) GetByID(uint) (*models.Lead, error) { return nil, nil }
func (r *fakeLeadRepo) List(repository.ListOptions) ([]models.Lead, error) {
	return nil, nil
}
func (r *fakeLeadRepo) ListByAssignee(uint) ([]models.Lead, error) { return r.assigned, nil }
func (r *fakeLeadRepo) Update(*models.Lead) error                  { return nil }
func (r *fakeLeadRepo) Delete(uint) error                          { return nil }
func (r *fakeLeadRepo) Count() (int64, error)                      { return 0, nil }
func (r *fakeLeadRepo) CountCreatedBetween(_, _ time.Time) (int64, error) {
	return 0, nil
}

type fakeDealRepo struct {
	assigned []models.Deal
}

func (r *fakeDealRepo) Create(*models.Deal) error          { return nil }
func (r *fakeDealRepo) GetByID(uint) (*models.Deal, error) { return nil, nil }
func (r *fakeDealRepo) List(repository.ListOptions) ([]models.Deal, error) {
	return nil, nil
}
func (r *fakeDealRepo) ListByAssignee(uint) ([]models.Deal, error) { return r.assigned, nil }
func (r *fakeDealRepo) Update(*models.Deal) error                  { return nil }
func (r *fakeDealRepo) Delete(uint) error                          { return nil }
func (r *fakeDealRepo) Count() (int64, error)                      { return 0, nil }
func (r *fakeDealRepo) CountByStatus(string) (int64, error)        { return 0, nil }

type fakeTaskRepo struct {
	assigned []models.Task
}

func (r *fakeTaskRepo) Create(*models.Task) error          { return nil }
func (r *fakeTaskRepo) GetByID(uint) (*models.Task, error) { return nil, nil }
func (r *fakeTaskRepo) List(repository.ListOptions) ([]models.Task, error) {
	return nil, nil
}
func (r *fakeTaskRepo) ListByAssignee(uint) ([]models.Task, error) { return r.assigned, nil }
func (r *fakeTaskRepo) Update(*models.Task) error                  { return nil }
func (r *fakeTaskRepo) Delete(uint) error                          { return nil }
func (r *fakeTaskRepo) Count() (int64, error)                      { return 0, nil }
func (r *fakeTaskRepo) CountOpen() (int64, error)                  { return 0, nil }

type fakeAccountRepo struct {
	consents []models.ConsentRecord
}

func (r *fakeAccountRepo) CreateUser(*models.User) error { return nil }
func (r *fakeAccountRepo) GetUserByEmail(string) (*models.User, error) {
	return nil, nil
}
func (r *fakeAccountRepo) GetUserByID(uint) (*models.User, error) { return nil, nil }
func (r *fakeAccountRepo) GetUserByActivationToken(string) (*models.User, error) {
	return nil, nil
}
func (r *fakeAccountRepo) EmailExists(string) (bool, error) { return false, nil }
func (r *fakeAccountRepo) UpdateUser(*models.User) error    { return nil }
func (r *fakeAccountRepo) GetInvitationByToken(string) (*models.Invitation, error) {
	return nil, nil
}
func (r *fakeAccountRepo) ConsumeInvitation(uint) (bool, error)      { return false, nil }
func (r *fakeAccountRepo) SetRole(uint, uint, string) error          { return nil }
func (r *fakeAccountRepo) GetRole(uint, uint) (string, error)        { return "", nil }
func (r *fakeAccountRepo) RecordConsent(*models.ConsentRecord) error { return nil }
func (r *fakeAccountRepo) ListConsents(uint) ([]models.ConsentRecord, error) {
	return r.consents, nil
}

type fakeUploader struct {
	key         string
	contentType string
	data        []byte
}

func (u *fakeUploader) Upload(_ context.Context, key string, data []byte, contentType string) (*exportstore.UploadResult, error) {
	u.key = key
	u.contentType = contentType
	u.data = data
	return &exportstore.UploadResult{}, nil
}

func (u *fakeUploader) Download(context.Context, string) ([]byte, error) {
	return u.data, nil
}

func testService(team *fakeTeamRepo, leads *fakeLeadRepo, deals *fakeDealRepo, tasks *fakeTaskRepo,
	accounts *fakeAccountRepo, store Uploader, cfg *exportstore.Config) *Service {
	svc := NewService(nil, accounts, store, cfg)
	svc.scope = func(companyID uint) *repository.TenantRepositories {
		return &repository.TenantRepositories{
			CompanyID: companyID,
			Leads:     leads,
			Deals:     deals,
			Tasks:     tasks,
			Team:      team,
		}
	}
	return svc
}

func TestExportUserDataAssemblesBundle(t *testing.T) {
	team := &fakeTeamRepo{
		user: &models.User{ID: 9, CompanyID: 3, Name: "Jane Doe", Email: "jane@example.com"},
		role: "manager",
	}
	leads := &fakeLeadRepo{assigned: []models.Lead{{ID: 1, CompanyID: 3, AssignedTo: 9}}}
	deals := &fakeDealRepo{assigned: []models.Deal{{ID: 2, CompanyID: 3, AssignedTo: 9}}}
	tasks := &fakeTaskRepo{assigned: []models.Task{{ID: 4, CompanyID: 3, AssignedTo: 9}}}
	accounts := &fakeAccountRepo{consents: []models.ConsentRecord{{UserID: 9, Purpose: "newsletter"}}}
	uploader := &fakeUploader{}
	cfg := &exportstore.Config{BucketName: "exports", Enabled: true}

	svc := testService(team, leads, deals, tasks, accounts, uploader, cfg)
	export, err := svc.ExportUserData(context.Background(), 3, 9)
	require.NoError(t, err)

	assert.Equal(t, uint(3), export.CompanyID)
	assert.Equal(t, "manager", export.Role)
	assert.Len(t, export.Leads, 1)
	assert.Len(t, export.Deals, 1)
	assert.Len(t, export.Tasks, 1)
	assert.Len(t, export.Consents, 1)

	// The bundle was persisted under the tenant's key prefix.
	assert.Equal(t, uploader.key, export.ObjectKey)
	assert.Contains(t, export.ObjectKey, "company-3/user-9")
	assert.Equal(t, "application/json", uploader.contentType)
	assert.Contains(t, string(uploader.data), "jane@example.com")
}

func TestExportUserDataUnknownUser(t *testing.T) {
	svc := testService(&fakeTeamRepo{}, &fakeLeadRepo{}, &fakeDealRepo{}, &fakeTaskRepo{},
		&fakeAccountRepo{}, nil, nil)

	_, err := svc.ExportUserData(context.Background(), 3, 9)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestExportUserDataWithoutStoreStaysInline(t *testing.T) {
	team := &fakeTeamRepo{user: &models.User{ID: 9, CompanyID: 3}}
	svc := testService(team, &fakeLeadRepo{}, &fakeDealRepo{}, &fakeTaskRepo{},
		&fakeAccountRepo{}, nil, nil)

	export, err := svc.ExportUserData(context.Background(), 3, 9)
	require.NoError(t, err)
	assert.Empty(t, export.ObjectKey)
}

func TestAnonymizeUserScrubsWithPlaceholders(t *testing.T) {
	team := &fakeTeamRepo{user: &models.User{ID: 9, CompanyID: 3}}
	svc := testService(team, &fakeLeadRepo{}, &fakeDealRepo{}, &fakeTaskRepo{},
		&fakeAccountRepo{}, nil, nil)

	require.NoError(t, svc.AnonymizeUser(context.Background(), 3, 9))
	assert.Equal(t, uint(9), team.anonymizedID)
	assert.Equal(t, "Deleted User 9", team.anonymizedName)
	assert.Equal(t, "user-9@anonymized.invalid", team.anonymizedEmail)
}

func TestAnonymizeUserUnknownUser(t *testing.T) {
	team := &fakeTeamRepo{anonymizeErr: gorm.ErrRecordNotFound}
	svc := testService(team, &fakeLeadRepo{}, &fakeDealRepo{}, &fakeTaskRepo{},
		&fakeAccountRepo{}, nil, nil)

	err := svc.AnonymizeUser(context.Background(), 3, 9)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDownloadExportWithoutStore(t *testing.T) {
	svc := testService(&fakeTeamRepo{}, &fakeLeadRepo{}, &fakeDealRepo{}, &fakeTaskRepo{},
		&fakeAccountRepo{}, nil, nil)

	_, err := svc.DownloadExport(context.Background(), "exports/key.json")
	assert.ErrorIs(t, err, ErrExportUnavailable)
}
