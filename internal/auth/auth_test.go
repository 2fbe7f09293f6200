package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"moto-dispatch/internal/apperr"
	"moto-dispatch/internal/domain"
)

func newTestTokens(t *testing.T, now time.Time) *Tokens {
	t.Helper()
	tk, err := NewTokens(TokenConfig{Secret: "s3cret", Issuer: "moto-dispatch", TTL: time.Hour})
	require.NoError(t, err)
	tk.now = func() time.Time { return now }
	return tk
}

func TestNewTokens_Validates(t *testing.T) {
	t.Parallel()

	_, err := NewTokens(TokenConfig{Issuer: "x", TTL: time.Minute})
	require.Error(t, err)
	_, err = NewTokens(TokenConfig{Secret: "x", TTL: time.Minute})
	require.Error(t, err)
	_, err = NewTokens(TokenConfig{Secret: "x", Issuer: "y"})
	require.Error(t, err)
}

func TestTokens_RoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tk := newTestTokens(t, now)

	raw, exp, err := tk.Issue(domain.User{ID: 42, Role: domain.RoleCourier})
	require.NoError(t, err)
	require.Equal(t, now.Add(time.Hour), exp)

	actor, err := tk.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, domain.Actor{ID: 42, Role: domain.RoleCourier}, actor)
}

func TestTokens_RejectsExpiredAndForeign(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tk := newTestTokens(t, now)
	raw, _, err := tk.Issue(domain.User{ID: 1, Role: domain.RoleAdmin})
	require.NoError(t, err)

	later := newTestTokens(t, now.Add(2*time.Hour))
	_, err = later.Parse(raw)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	other, err := NewTokens(TokenConfig{Secret: "other", Issuer: "moto-dispatch", TTL: time.Hour})
	require.NoError(t, err)
	_, err = other.Parse(raw)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = tk.Parse("not-a-token")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestTokens_RejectsUnsignedAlg(t *testing.T) {
	t.Parallel()

	tk := newTestTokens(t, time.Now())
	claims := Claims{
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "moto-dispatch",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tk.Parse(raw)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestTokens_IssueRejectsAnonymous(t *testing.T) {
	t.Parallel()

	tk := newTestTokens(t, time.Now())
	_, _, err := tk.Issue(domain.User{Role: domain.RoleClient})
	require.Error(t, err)
}

func TestPasswords(t *testing.T) {
	t.Parallel()

	p := NewPasswords(bcrypt.MinCost)
	hash, err := p.Hash("motdepasse")
	require.NoError(t, err)
	require.NotEqual(t, "motdepasse", hash)

	ok, err := p.Compare(hash, "motdepasse")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = p.Compare(hash, "wrong")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = p.Compare("not-a-hash", "x")
	require.Error(t, err)

	require.Equal(t, bcrypt.DefaultCost, NewPasswords(99).cost)
}

func TestActorContext(t *testing.T) {
	t.Parallel()

	_, ok := ActorFrom(context.Background())
	require.False(t, ok)

	ctx := WithActor(context.Background(), domain.Actor{ID: 7, Role: domain.RoleManager})
	a, ok := ActorFrom(ctx)
	require.True(t, ok)
	require.Equal(t, domain.RoleManager, a.Role)

	_, ok = ActorFrom(WithActor(context.Background(), domain.Actor{}))
	require.False(t, ok)
}
