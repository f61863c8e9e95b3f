package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ExportTokenClaims authorize one download of a stored compliance export.
// The token is self-contained so the download endpoint needs no session.
type ExportTokenClaims struct {
	UserID    uint   `json:"user_id"`
	CompanyID uint   `json:"company_id"`
	ObjectKey string `json:"object_key"`
	ExpiresAt int64  `json:"exp"`
}

// GenerateExportToken signs a download grant for one export object.
func GenerateExportToken(userID, companyID uint, objectKey string, ttl time.Duration, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret is required for token generation")
	}
	claims := ExportTokenClaims{
		UserID:    userID,
		CompanyID: companyID,
		ObjectKey: objectKey,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	sig := mac.Sum(nil)
	token := fmt.Sprintf("%s.%s", base64.RawURLEncoding.EncodeToString(payload), base64.RawURLEncoding.EncodeToString(sig))
	return token, nil
}

// VerifyExportToken validates the signature and expiry and returns the
// claims.
func VerifyExportToken(token, secret string) (*ExportTokenClaims, error) {
	if secret == "" {
		return nil, errors.New("secret is required for token verification")
	}
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return nil, errors.New("invalid token format")
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, errors.New("invalid payload encoding")
	}
	sigBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, errors.New("invalid signature encoding")
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payloadBytes)
	expected := mac.Sum(nil)
	if !hmac.Equal(sigBytes, expected) {
		return nil, errors.New("invalid token signature")
	}
	var claims ExportTokenClaims
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		return nil, errors.New("invalid payload")
	}
	if time.Now().Unix() > claims.ExpiresAt {
		return nil, errors.New("token expired")
	}
	return &claims, nil
}
