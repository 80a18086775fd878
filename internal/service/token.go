package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrMalformedToken   = errors.New("token malformed")
	ErrMissingSubject   = errors.New("token carries no account id")
)

// ClaimShape selects how the account id is laid out inside issued tokens.
// Both layouts are always accepted on verification.
type ClaimShape string

const (
	ClaimShapeFlat   ClaimShape = "flat"   // {"id": "..."}
	ClaimShapeNested ClaimShape = "nested" // {"user": {"id": "..."}}
)

type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	Shape  ClaimShape
	// Now defaults to time.Now.
	Now func() time.Time
}

type TokenService struct {
	secret []byte
	ttl    time.Duration
	shape  ClaimShape
	now    func() time.Time
}

func NewTokenService(cfg TokenConfig) *TokenService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	shape := cfg.Shape
	if shape == "" {
		shape = ClaimShapeNested
	}
	return &TokenService{secret: cfg.Secret, ttl: cfg.TTL, shape: shape, now: now}
}

type userClaim struct {
	ID string `json:"id"`
}

type sessionClaims struct {
	AccountID string     `json:"id,omitempty"`
	User      *userClaim `json:"user,omitempty"`
	jwt.RegisteredClaims
}

// accountID matches the known layouts in priority order: flat, then nested.
func (c *sessionClaims) accountID() (string, bool) {
	switch {
	case c.AccountID != "":
		return c.AccountID, true
	case c.User != nil && c.User.ID != "":
		return c.User.ID, true
	default:
		return "", false
	}
}

// Issue signs a token for id that expires after the configured TTL.
func (s *TokenService) Issue(id uuid.UUID) (string, time.Time, error) {
	return s.issueShape(id, s.shape)
}

func (s *TokenService) issueShape(id uuid.UUID, shape ClaimShape) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	switch shape {
	case ClaimShapeFlat:
		claims.AccountID = id.String()
	case ClaimShapeNested:
		claims.User = &userClaim{ID: id.String()}
	default:
		return "", time.Time{}, fmt.Errorf("unknown claim shape %q", shape)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return token, expiresAt, nil
}

// Verify checks signature and expiry and returns the account id the token
// was issued for. It does no I/O.
func (s *TokenService) Verify(raw string) (uuid.UUID, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return uuid.Nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return uuid.Nil, ErrInvalidSignature
		default:
			return uuid.Nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}

	subject, ok := claims.accountID()
	if !ok {
		return uuid.Nil, ErrMissingSubject
	}
	id, err := uuid.Parse(subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: account id: %v", ErrMalformedToken, err)
	}
	return id, nil
}
