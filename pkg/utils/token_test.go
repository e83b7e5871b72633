package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "storefront-api/pkg/errors"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenIssueAndVerify(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := NewTokenManager(testSecret, 24*time.Hour).WithClock(func() time.Time { return start })

	id := uuid.New()
	token, expiresAt, err := m.Issue(id, "a@example.com", "USER")
	require.NoError(t, err)
	assert.Equal(t, start.Add(24*time.Hour), expiresAt)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "USER", claims.Role)
	assert.Equal(t, start.Unix(), claims.IssuedAt.Unix())
}

func TestTokenVerifyRejectsExpired(t *testing.T) {
	now := time.Now()
	m := NewTokenManager(testSecret, time.Hour).WithClock(func() time.Time { return now })

	token, _, err := m.Issue(uuid.New(), "a@example.com", "USER")
	require.NoError(t, err)

	later := m.WithClock(func() time.Time { return now.Add(time.Hour + time.Second) })
	_, err = later.Verify(token)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidToken))
}

func TestTokenVerifyRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager(testSecret, time.Hour).Issue(uuid.New(), "a@example.com", "USER")
	require.NoError(t, err)

	_, err = NewTokenManager("another-secret-another-secret-xx", time.Hour).Verify(token)
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)
}

func TestTokenVerifyRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		UserID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	m := NewTokenManager(testSecret, time.Hour)
	for _, token := range []string{hs512, none, "", "not.a.token"} {
		_, err := m.Verify(token)
		assert.ErrorIs(t, err, appErrors.ErrInvalidToken, token)
	}
}

func TestTokenVerifyRequiresExpiryAndSubject(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: uuid.New()}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = m.Verify(noExp)
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)

	noSubject, _, err := m.Issue(uuid.Nil, "a@example.com", "USER")
	require.NoError(t, err)
	_, err = m.Verify(noSubject)
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	cases := map[string]struct {
		token string
		ok    bool
	}{
		"Bearer abc":    {"abc", true},
		"bearer abc":    {"abc", true},
		"  Bearer abc ": {"abc", true},
		"Bearer":        {"", false},
		"Bearer   ":     {"", false},
		"Basic abc":     {"", false},
		"abc":           {"", false},
		"":              {"", false},
	}

	for header, want := range cases {
		token, ok := ExtractBearerToken(header)
		assert.Equal(t, want.ok, ok, header)
		assert.Equal(t, want.token, token, header)
	}
}

func TestGenerateResetSecret(t *testing.T) {
	a, err := GenerateResetSecret()
	require.NoError(t, err)
	b, err := GenerateResetSecret()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
