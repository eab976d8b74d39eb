package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HungtdFPI/TaskforceAF/internal/models"
	appErrors "github.com/HungtdFPI/TaskforceAF/pkg/errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "warning-portal", TTL: time.Hour})

	token, expires, err := svc.IssueToken(lecturerHN)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, lecturerHN, claims.Actor())
	assert.Equal(t, "warning-portal", claims.Issuer)
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "warning-portal"})
	sign := func(claims jwt.Claims, method jwt.SigningMethod, key interface{}) string {
		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}
	valid := jwt.RegisteredClaims{
		Issuer:    "warning-portal",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	cases := map[string]string{
		"garbage": "not-a-token",
		"wrong secret": sign(&models.JWTClaims{UserID: "gv-1", Role: models.RoleLecturer, RegisteredClaims: valid},
			jwt.SigningMethodHS256, []byte("other")),
		"wrong issuer": sign(&models.JWTClaims{UserID: "gv-1", Role: models.RoleLecturer, RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "elsewhere",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}, jwt.SigningMethodHS256, []byte("secret")),
		"expired": sign(&models.JWTClaims{UserID: "gv-1", Role: models.RoleLecturer, RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "warning-portal",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}, jwt.SigningMethodHS256, []byte("secret")),
		"hs512": sign(&models.JWTClaims{UserID: "gv-1", Role: models.RoleLecturer, RegisteredClaims: valid},
			jwt.SigningMethodHS512, []byte("secret")),
		"missing role": sign(&models.JWTClaims{UserID: "gv-1", RegisteredClaims: valid},
			jwt.SigningMethodHS256, []byte("secret")),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			require.Error(t, err)
			assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
		})
	}
}
