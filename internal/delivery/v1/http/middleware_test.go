package http

import (
	"testing"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestParseBearerToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"user_id": float64(7), "role": "user"}, testSecret)

	identity, err := parseBearerToken("Bearer "+token, testSecret)
	require.NoError(t, err)
	assert.EqualValues(t, 7, identity.UserID)
	assert.Equal(t, domain.RoleUser, identity.Role)
	assert.False(t, identity.IsAdmin())
}

func TestParseBearerToken_AdminRole(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"user_id": float64(1), "role": "admin"}, testSecret)

	identity, err := parseBearerToken("Bearer "+token, testSecret)
	require.NoError(t, err)
	assert.True(t, identity.IsAdmin())
}

func TestParseBearerToken_UnknownRoleDefaultsToUser(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"user_id": float64(1), "role": "superuser"}, testSecret)

	identity, err := parseBearerToken("Bearer "+token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, identity.Role)
}

func TestParseBearerToken_Rejections(t *testing.T) {
	valid := signToken(t, jwt.MapClaims{"user_id": float64(7)}, testSecret)
	wrongKey := signToken(t, jwt.MapClaims{"user_id": float64(7)}, "other-secret")
	noUserID := signToken(t, jwt.MapClaims{"role": "user"}, testSecret)

	cases := []struct {
		name   string
		header string
	}{
		{"empty header", ""},
		{"no bearer prefix", valid},
		{"garbage token", "Bearer garbage"},
		{"wrong signing key", "Bearer " + wrongKey},
		{"missing user_id claim", "Bearer " + noUserID},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseBearerToken(tc.header, testSecret)
			assert.Error(t, err)
		})
	}
}
