package controllers

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchcrm/launchcrm/app/models"
)

type stubAccountRepo struct {
	consumeOK  bool
	consumeErr error
	calls      []string

	createdUser *models.User
	roleUserID  uint
	roleCompany uint
	role        string
}

func (s *stubAccountRepo) CreateUser(user *models.User) error {
	s.calls = append(s.calls, "create")
	user.ID = 99
	s.createdUser = user
	return nil
}

func (s *stubAccountRepo) GetUserByEmail(string) (*models.User, error) { return nil, nil }
func (s *stubAccountRepo) GetUserByID(uint) (*models.User, error)      { return nil, nil }
func (s *stubAccountRepo) GetUserByActivationToken(string) (*models.User, error) {
	return nil, nil
}
func (s *stubAccountRepo) EmailExists(string) (bool, error)   { return false, nil }
func (s *stubAccountRepo) UpdateUser(*models.User) error      { return nil }
func (s *stubAccountRepo) GetInvitationByToken(string) (*models.Invitation, error) {
	return nil, nil
}

func (s *stubAccountRepo) ConsumeInvitation(id uint) (bool, error) {
	s.calls = append(s.calls, "consume")
	return s.consumeOK, s.consumeErr
}

func (s *stubAccountRepo) SetRole(userID, companyID uint, role string) error {
	s.calls = append(s.calls, "role")
	s.roleUserID = userID
	s.roleCompany = companyID
	s.role = role
	return nil
}

func (s *stubAccountRepo) GetRole(uint, uint) (string, error)           { return "", nil }
func (s *stubAccountRepo) RecordConsent(*models.ConsentRecord) error    { return nil }
func (s *stubAccountRepo) ListConsents(uint) ([]models.ConsentRecord, error) {
	return nil, nil
}

func TestCheckInvitation(t *testing.T) {
	now := time.Now()
	valid := &models.Invitation{CompanyID: 1, ExpiresAt: now.Add(time.Hour)}
	expired := &models.Invitation{CompanyID: 1, ExpiresAt: now.Add(-time.Hour)}
	accepted := &models.Invitation{CompanyID: 1, ExpiresAt: now.Add(time.Hour), AcceptedAt: &now}
	acceptedThenExpired := &models.Invitation{CompanyID: 1, ExpiresAt: now.Add(-time.Hour), AcceptedAt: &now}

	tests := []struct {
		name      string
		inv       *models.Invitation
		companyID uint
		want      invitationStatus
	}{
		{"valid", valid, 1, invitationValid},
		{"nil", nil, 1, invitationUnknown},
		{"foreign tenant", valid, 2, invitationUnknown},
		{"expired", expired, 1, invitationExpired},
		{"accepted", accepted, 1, invitationAccepted},
		{"accepted wins over expired", acceptedThenExpired, 1, invitationAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkInvitation(tt.inv, tt.companyID))
		})
	}
}

func TestInvitationProblemResponses(t *testing.T) {
	tests := []struct {
		name       string
		status     invitationStatus
		wantStatus int
		wantError  string
	}{
		{"unknown is a plain 404", invitationUnknown, fiber.StatusNotFound, "not_found"},
		{"expired is reported", invitationExpired, fiber.StatusBadRequest, "invitation_expired"},
		{"reuse is reported", invitationAccepted, fiber.StatusBadRequest, "invitation_already_accepted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/check", func(c *fiber.Ctx) error {
				return invitationProblem(c, tt.status)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/check", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), tt.wantError)
		})
	}
}

func TestFinalizeInvitationConsumesBeforeCreating(t *testing.T) {
	accounts := &stubAccountRepo{consumeOK: true}
	inv := &models.Invitation{ID: 7, CompanyID: 3, Email: "new@example.com", Role: "manager"}
	user := &models.User{CompanyID: 3, Name: "New User", Email: "new@example.com"}

	require.NoError(t, finalizeInvitation(accounts, inv, user))

	assert.Equal(t, []string{"consume", "create", "role"}, accounts.calls)
	assert.Equal(t, uint(99), accounts.roleUserID)
	assert.Equal(t, uint(3), accounts.roleCompany)
	assert.Equal(t, "manager", accounts.role)
}

func TestFinalizeInvitationLosesRaceCleanly(t *testing.T) {
	accounts := &stubAccountRepo{consumeOK: false}
	inv := &models.Invitation{ID: 7, CompanyID: 3, Email: "new@example.com", Role: "staff"}
	user := &models.User{CompanyID: 3, Name: "New User", Email: "new@example.com"}

	err := finalizeInvitation(accounts, inv, user)
	assert.ErrorIs(t, err, errInvitationConsumed)

	// The losing request must not have touched the users table.
	assert.Equal(t, []string{"consume"}, accounts.calls)
	assert.Nil(t, accounts.createdUser)
}
