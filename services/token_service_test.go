package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/imam0321/bistro-boss-server/common/errors"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue(map[string]interface{}{"email": "diner@bistro.test", "exp": 1})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "diner@bistro.test", claims["email"])

	iat := int64(claims["iat"].(float64))
	exp := int64(claims["exp"].(float64))
	assert.Equal(t, int64(time.Hour/time.Second), exp-iat, "client supplied exp must be overwritten")
}

func TestTokenServiceRejects(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	expired := NewTokenService("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.Issue(map[string]interface{}{"email": "diner@bistro.test"})
	require.NoError(t, err)

	otherSecret, err := NewTokenService("other-secret", time.Hour).Issue(map[string]interface{}{"email": "x@bistro.test"})
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"email": "admin@bistro.test",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":        "",
		"malformed":    "not.a.token",
		"expired":      expiredToken,
		"wrong secret": otherSecret,
		"alg none":     noneToken,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			claims, err := svc.Verify(token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
		})
	}
}
