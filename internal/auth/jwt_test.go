package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	m := NewJWTManager("test-secret", time.Minute)

	token, err := m.GenerateAccessToken("vendor-1", RoleVendor)
	require.NoError(t, err)

	claims, err := m.ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, "vendor-1", claims.AccountID)
	assert.Equal(t, RoleVendor, claims.Role)
}

func TestGenerateRejectsUnknownRole(t *testing.T) {
	m := NewJWTManager("test-secret", time.Minute)
	_, err := m.GenerateAccessToken("x", Role("admin"))
	assert.Error(t, err)
}

func TestParseRejectsBadTokens(t *testing.T) {
	m := NewJWTManager("test-secret", time.Minute)
	other := NewJWTManager("other-secret", time.Minute)

	foreign, err := other.GenerateAccessToken("company-1", RoleCompany)
	require.NoError(t, err)
	_, err = m.ParseAndValidate(foreign)
	assert.Error(t, err, "token signed with another secret must fail")

	expired := NewJWTManager("test-secret", -time.Minute)
	old, err := expired.GenerateAccessToken("company-1", RoleCompany)
	require.NoError(t, err)
	_, err = m.ParseAndValidate(old)
	assert.Error(t, err, "expired token must fail")

	noRole := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{AccountID: "company-1"})
	signed, err := noRole.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = m.ParseAndValidate(signed)
	assert.Error(t, err, "token without a role must fail")
}
