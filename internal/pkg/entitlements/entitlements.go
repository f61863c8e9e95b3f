package entitlements

import (
	"encoding/json"

	"github.com/launchcrm/launchcrm/app/models"
)

// Entitlements are the usage limits a company's plan grants. Zero means
// unlimited.
type Entitlements struct {
	MaxUsers          int `json:"max_users"`
	MaxContacts       int `json:"max_contacts"`
	MaxOpenInvitation int `json:"max_open_invitations"`
}

// TrialEntitlements caps companies that have not picked a plan yet.
var TrialEntitlements = Entitlements{
	MaxUsers:          5,
	MaxContacts:       500,
	MaxOpenInvitation: 10,
}

// ForPlan reads the limits from the plan's feature blob. Plans without
// limits configured are unlimited.
func ForPlan(plan *models.Plan) Entitlements {
	if plan == nil {
		return TrialEntitlements
	}
	var e Entitlements
	if plan.FeaturesJSON != "" {
		// A malformed blob falls back to unlimited rather than locking
		// the customer out of a paid feature.
		_ = json.Unmarshal([]byte(plan.FeaturesJSON), &e)
	}
	return e
}

// CanAddUser reports whether one more seat fits under the limit.
func (e Entitlements) CanAddUser(currentUsers int64) bool {
	return e.MaxUsers == 0 || currentUsers < int64(e.MaxUsers)
}

// CanAddContact reports whether one more contact fits under the limit.
func (e Entitlements) CanAddContact(currentContacts int64) bool {
	return e.MaxContacts == 0 || currentContacts < int64(e.MaxContacts)
}
