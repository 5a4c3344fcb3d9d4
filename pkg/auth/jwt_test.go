package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestGenerateAndValidate(t *testing.T) {
	token, err := GenerateToken("42", RoleAdmin, "roro", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, secret, "roro")
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.True(t, claims.IsAdmin())

	claims, err = ValidateToken(token, secret, "")
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
}

func TestValidateRejects(t *testing.T) {
	good, err := GenerateToken("42", "", "roro", secret, time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken("42", "", "roro", secret, -time.Minute)
	require.NoError(t, err)
	noSubject, err := GenerateToken("", "", "roro", secret, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "42"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]struct{ token, secret, issuer string }{
		"wrong secret": {good, "other", "roro"},
		"wrong issuer": {good, secret, "someone-else"},
		"expired":      {expired, secret, "roro"},
		"no subject":   {noSubject, secret, "roro"},
		"alg none":     {none, secret, ""},
		"garbage":      {"not.a.token", secret, ""},
		"no secret":    {good, "", ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateToken(tc.token, tc.secret, tc.issuer)
			assert.Error(t, err)
		})
	}
}
