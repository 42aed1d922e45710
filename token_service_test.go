package accounts_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-signing-key-for-unit-tests")

func newTestTokenService(ttl time.Duration) *accounts.TokenService {
	return accounts.NewTokenService(testSigningKey, ttl, NoopLogger{})
}

func TestTokenServiceRoundTrip(t *testing.T) {
	ts := newTestTokenService(30 * time.Minute)

	token, err := ts.Generate("alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, "alice", claims.Subject())
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.Expires(), 5*time.Second)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt(), 5*time.Second)
}

func TestTokenServiceRejectsEmptySubject(t *testing.T) {
	ts := newTestTokenService(time.Minute)

	_, err := ts.Generate("")
	assert.Error(t, err)
}

func TestTokenServiceExpiredToken(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ts := newTestTokenService(30 * time.Minute).
		WithClock(func() time.Time { return issuedAt })

	token, err := ts.Generate("alice")
	require.NoError(t, err)

	// Still valid just before expiry.
	ts.WithClock(func() time.Time { return issuedAt.Add(29 * time.Minute) })
	_, err = ts.Validate(token)
	require.NoError(t, err)

	// Dead just after.
	ts.WithClock(func() time.Time { return issuedAt.Add(31 * time.Minute) })
	_, err = ts.Validate(token)
	require.Error(t, err)
	assert.True(t, accounts.IsTokenExpiredError(err))
}

func TestTokenServiceRejectsWrongKey(t *testing.T) {
	ts := newTestTokenService(time.Minute)
	other := accounts.NewTokenService([]byte("a-completely-different-key"), time.Minute, NoopLogger{})

	token, err := other.Generate("alice")
	require.NoError(t, err)

	_, err = ts.Validate(token)
	require.Error(t, err)
	assert.True(t, accounts.IsMalformedError(err))
	assert.False(t, accounts.IsTokenExpiredError(err))
}

func TestTokenServiceRejectsUnsignedToken(t *testing.T) {
	ts := newTestTokenService(time.Minute)

	claims := jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ts.Validate(unsigned)
	require.Error(t, err)
	assert.True(t, accounts.IsMalformedError(err))
}

func TestTokenServiceRequiresExpiry(t *testing.T) {
	ts := newTestTokenService(time.Minute)

	// Sign claims that carry no exp at all.
	noExpiry := &accounts.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"},
	}

	token, err := ts.SignClaims(noExpiry)
	require.NoError(t, err)

	_, err = ts.Validate(token)
	require.Error(t, err)
	assert.True(t, accounts.IsMalformedError(err))
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	ts := newTestTokenService(time.Minute)

	for _, raw := range []string{"", "not-a-token", "aaa.bbb.ccc"} {
		_, err := ts.Validate(raw)
		assert.Error(t, err, "input %q", raw)
	}
}

func TestTokenServiceAssignsTokenID(t *testing.T) {
	ts := newTestTokenService(time.Minute)

	first, err := ts.Generate("alice")
	require.NoError(t, err)
	second, err := ts.Generate("alice")
	require.NoError(t, err)

	// The jti makes otherwise identical tokens distinct.
	assert.NotEqual(t, first, second)
}

func TestTokenServiceDefaultTTL(t *testing.T) {
	ts := accounts.NewTokenService(testSigningKey, 0, nil)
	assert.Equal(t, accounts.DefaultTokenTTL, ts.TTL())
}
