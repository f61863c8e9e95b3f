package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicyCapsWebhookWindow(t *testing.T) {
	p := DefaultPolicy(365)

	assert.Equal(t, 365, p.SoftDeletedRecordDays)
	assert.Equal(t, 365, p.InvitationDays)
	assert.Equal(t, 90, p.WebhookEventDays)
	assert.Zero(t, p.CompanyID)
}

func TestDefaultPolicyShortWindowKeepsWebhookDays(t *testing.T) {
	p := DefaultPolicy(30)
	assert.Equal(t, 30, p.WebhookEventDays)
}

func TestForCompanyScopesPolicy(t *testing.T) {
	p := DefaultPolicy(180).ForCompany(42)

	assert.Equal(t, uint(42), p.CompanyID)
	assert.Equal(t, 180, p.SoftDeletedRecordDays)
}
