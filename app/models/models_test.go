package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanySubscriptionWindows(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	subscribed := Company{SubscribedUntil: &future}
	assert.True(t, subscribed.IsSubscribed())
	assert.False(t, subscribed.HasExpired())

	trialing := Company{TrialEndsAt: &future}
	assert.True(t, trialing.IsOnTrial())
	assert.False(t, trialing.HasExpired())

	expired := Company{SubscribedUntil: &past, TrialEndsAt: &past}
	assert.True(t, expired.HasExpired())

	blank := Company{}
	assert.True(t, blank.HasExpired())
}

func TestCreateUserHashesPassword(t *testing.T) {
	u, err := CreateUser(1, "Jane Doe", "jane@example.com", "s3cret-pass")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret-pass", u.Password)
	assert.True(t, u.CheckPassword("s3cret-pass"))
	assert.False(t, u.CheckPassword("wrong"))
	assert.True(t, u.IsActive)
}

func TestCreateUserRejectsInvalidInput(t *testing.T) {
	_, err := CreateUser(1, "J", "jane@example.com", "s3cret-pass")
	assert.Error(t, err)

	_, err = CreateUser(1, "Jane Doe", "not-an-email", "s3cret-pass")
	assert.Error(t, err)
}

func TestActivationTokenIsRandom(t *testing.T) {
	a := &User{}
	b := &User{}
	require.NoError(t, a.GenerateActivationToken())
	require.NoError(t, b.GenerateActivationToken())

	assert.Len(t, a.ActivationToken, 48)
	assert.NotEqual(t, a.ActivationToken, b.ActivationToken)
	assert.False(t, a.IsVerified())
}

func TestInvitationLifecycle(t *testing.T) {
	inv := &Invitation{Email: "new@example.com", Role: "staff"}
	require.NoError(t, inv.GenerateToken())

	assert.Len(t, inv.Token, 64)
	assert.False(t, inv.IsExpired())
	assert.False(t, inv.IsAccepted())

	inv.ExpiresAt = time.Now().Add(-time.Minute)
	assert.True(t, inv.IsExpired())

	now := time.Now()
	inv.AcceptedAt = &now
	assert.True(t, inv.IsAccepted())
}

func TestDealExpectedValue(t *testing.T) {
	d := Deal{Value: 1000, Probability: 30}
	assert.InDelta(t, 300.0, d.ExpectedValue(), 0.001)

	closed := Deal{Status: DealStatusClosedWon}
	assert.True(t, closed.IsWon())
	assert.True(t, closed.IsClosed())

	open := Deal{Status: DealStatusOpen}
	assert.False(t, open.IsClosed())
}

func TestTaskOverdue(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	overdue := Task{DueDate: &past, Status: TaskStatusPending}
	assert.True(t, overdue.IsOverdue())

	done := Task{DueDate: &past, Status: TaskStatusCompleted}
	assert.False(t, done.IsOverdue())

	noDue := Task{Status: TaskStatusPending}
	assert.False(t, noDue.IsOverdue())
}

func TestSubscriptionGracePeriod(t *testing.T) {
	future := time.Now().Add(10 * 24 * time.Hour)
	past := time.Now().Add(-time.Hour)

	grace := Subscription{StripeStatus: SubscriptionStatusCanceled, EndsAt: &future}
	assert.True(t, grace.IsOnGracePeriod())
	assert.False(t, grace.IsCancelled())

	ended := Subscription{StripeStatus: SubscriptionStatusCanceled, EndsAt: &past}
	assert.False(t, ended.IsOnGracePeriod())
	assert.True(t, ended.IsCancelled())

	active := Subscription{StripeStatus: SubscriptionStatusActive}
	assert.True(t, active.IsActive())
}

func TestContactFullName(t *testing.T) {
	c := Contact{FirstName: "Ada", LastName: "Lovelace"}
	assert.Equal(t, "Ada Lovelace", c.FullName())

	solo := Contact{FirstName: "Cher"}
	assert.Equal(t, "Cher", solo.FullName())
}
