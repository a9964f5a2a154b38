package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Hour)

	token, err := ti.Issue("run-42")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."), "неверный формат JWT")

	runID, err := ti.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "run-42", runID)

	require.NoError(t, ti.Authorize(token, "run-42"))
	assert.ErrorIs(t, ti.Authorize(token, "run-43"), ErrInvalidToken)
}

func TestValidateInvalidTokens(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Hour)

	for _, bad := range []string{
		"",
		"invalid.token.here",
		"not.a.jwt",
		"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature",
	} {
		runID, err := ti.Validate(bad)
		assert.ErrorIs(t, err, ErrInvalidToken, "токен %q прошёл валидацию", bad)
		assert.Empty(t, runID)
	}
}

func TestValidateForeignSecret(t *testing.T) {
	token, err := NewTokenIssuer("one", time.Hour).Issue("run-1")
	require.NoError(t, err)

	_, err = NewTokenIssuer("two", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	ti := NewTokenIssuer("test-secret", -time.Minute)
	token, err := ti.Issue("run-1")
	require.NoError(t, err)

	_, err = ti.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{
		RunID: "run-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenIssuer("test-secret", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRandomSecretWhenEmpty(t *testing.T) {
	a := NewTokenIssuer("", time.Hour)
	b := NewTokenIssuer("", time.Hour)

	token, err := a.Issue("run-1")
	require.NoError(t, err)
	_, err = a.Validate(token)
	require.NoError(t, err)

	_, err = b.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateSecureSecret(t *testing.T) {
	s1, err := GenerateSecureSecret()
	require.NoError(t, err)
	s2, err := GenerateSecureSecret()
	require.NoError(t, err)

	assert.NotEqual(t, s1, s2)
	assert.GreaterOrEqual(t, len(s1), 40)
}
