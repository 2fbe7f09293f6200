package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"moto-dispatch/internal/apperr"
	"moto-dispatch/internal/domain"
)

var signingMethod = jwt.SigningMethodHS256

// TokenConfig stores access token settings.
type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Claims is the payload of an access token.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies bearer tokens. Clients treat them as opaque.
type Tokens struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokens validates cfg and returns a Tokens.
func NewTokens(cfg TokenConfig) (*Tokens, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("jwt issuer is required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("jwt ttl must be positive")
	}
	return &Tokens{cfg: cfg, now: time.Now}, nil
}

// Issue signs a token for user and returns it with its expiry.
func (t *Tokens) Issue(user domain.User) (string, time.Time, error) {
	if user.ID <= 0 || !user.Role.Valid() {
		return "", time.Time{}, fmt.Errorf("cannot issue token for user %d with role %q", user.ID, user.Role)
	}
	now := t.now().UTC()
	exp := now.Add(t.cfg.TTL)

	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    t.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(t.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign jwt: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies raw and returns the actor it was issued for.
// Any verification failure is reported as apperr.ErrUnauthorized.
func (t *Tokens) Parse(raw string) (domain.Actor, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(token *jwt.Token) (any, error) {
			return []byte(t.cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(t.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: %w", apperr.ErrUnauthorized, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return domain.Actor{}, fmt.Errorf("%w: bad subject", apperr.ErrUnauthorized)
	}
	if !claims.Role.Valid() {
		return domain.Actor{}, fmt.Errorf("%w: bad role", apperr.ErrUnauthorized)
	}
	return domain.Actor{ID: id, Role: claims.Role}, nil
}
