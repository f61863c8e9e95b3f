package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestExportTokenRoundTrip(t *testing.T) {
	token, err := GenerateExportToken(7, 3, "exports/2026/08/company-3/user-7-x.json", time.Hour, testSecret)
	require.NoError(t, err)

	claims, err := VerifyExportToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, uint(3), claims.CompanyID)
	assert.Equal(t, "exports/2026/08/company-3/user-7-x.json", claims.ObjectKey)
}

func TestExportTokenRequiresSecret(t *testing.T) {
	_, err := GenerateExportToken(1, 1, "key", time.Hour, "")
	assert.Error(t, err)

	token, err := GenerateExportToken(1, 1, "key", time.Hour, testSecret)
	require.NoError(t, err)
	_, err = VerifyExportToken(token, "")
	assert.Error(t, err)
}

func TestExportTokenWrongSecretFails(t *testing.T) {
	token, err := GenerateExportToken(1, 1, "key", time.Hour, testSecret)
	require.NoError(t, err)

	_, err = VerifyExportToken(token, "other-secret")
	assert.Error(t, err)
}

func TestExportTokenTamperedPayloadFails(t *testing.T) {
	token, err := GenerateExportToken(1, 1, "key", time.Hour, testSecret)
	require.NoError(t, err)

	parts := strings.SplitN(token, ".", 2)
	require.Len(t, parts, 2)
	tampered := parts[0] + "x." + parts[1]

	_, err = VerifyExportToken(tampered, testSecret)
	assert.Error(t, err)
}

func TestExportTokenExpired(t *testing.T) {
	token, err := GenerateExportToken(1, 1, "key", -time.Minute, testSecret)
	require.NoError(t, err)

	_, err = VerifyExportToken(token, testSecret)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestExportTokenGarbageFails(t *testing.T) {
	for _, token := range []string{"", "no-dot", "a.b", "!!.!!"} {
		_, err := VerifyExportToken(token, testSecret)
		assert.Error(t, err, "token %q should not verify", token)
	}
}
