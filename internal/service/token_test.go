package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestTokens(now time.Time, shape ClaimShape) *TokenService {
	return NewTokenService(TokenConfig{Secret: testSecret, TTL: time.Hour, Shape: shape, Now: fixedClock(now)})
}

func signMap(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func TestTokenService_RoundTrip(t *testing.T) {
	now := time.Now()
	svc := newTestTokens(now, ClaimShapeNested)
	id := uuid.New()

	token, expiresAt, err := svc.Issue(id)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), expiresAt, time.Second)

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokenService_Expired(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	token, _, err := newTestTokens(issuedAt, ClaimShapeFlat).Issue(uuid.New())
	require.NoError(t, err)

	_, err = newTestTokens(time.Now(), ClaimShapeFlat).Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_TamperedSignature(t *testing.T) {
	svc := newTestTokens(time.Now(), ClaimShapeNested)
	token, _, err := svc.Issue(uuid.New())
	require.NoError(t, err)

	dot := strings.LastIndex(token, ".")
	replacement := "A"
	if token[dot+1] == 'A' {
		replacement = "B"
	}
	tampered := token[:dot+1] + replacement + token[dot+2:]

	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTokenService_WrongSecret(t *testing.T) {
	token, _, err := newTestTokens(time.Now(), ClaimShapeNested).Issue(uuid.New())
	require.NoError(t, err)

	other := NewTokenService(TokenConfig{Secret: []byte("other"), TTL: time.Hour})
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTokenService_AcceptsBothShapes(t *testing.T) {
	now := time.Now()
	svc := newTestTokens(now, ClaimShapeNested)
	id := uuid.New()
	exp := now.Add(time.Hour).Unix()

	flat := signMap(t, jwt.MapClaims{"id": id.String(), "exp": exp})
	nested := signMap(t, jwt.MapClaims{"user": map[string]any{"id": id.String()}, "exp": exp})

	fromFlat, err := svc.Verify(flat)
	require.NoError(t, err)
	fromNested, err := svc.Verify(nested)
	require.NoError(t, err)

	assert.Equal(t, id, fromFlat)
	assert.Equal(t, id, fromNested)
}

func TestTokenService_IssuesConfiguredShape(t *testing.T) {
	now := time.Now()
	id := uuid.New()

	for _, shape := range []ClaimShape{ClaimShapeFlat, ClaimShapeNested} {
		t.Run(string(shape), func(t *testing.T) {
			token, _, err := newTestTokens(now, shape).Issue(id)
			require.NoError(t, err)

			claims := jwt.MapClaims{}
			_, _, err = jwt.NewParser().ParseUnverified(token, claims)
			require.NoError(t, err)

			if shape == ClaimShapeFlat {
				assert.Equal(t, id.String(), claims["id"])
				assert.NotContains(t, claims, "user")
			} else {
				assert.Equal(t, map[string]any{"id": id.String()}, claims["user"])
				assert.NotContains(t, claims, "id")
			}
		})
	}
}

func TestTokenService_FlatWinsOverNested(t *testing.T) {
	now := time.Now()
	flatID, nestedID := uuid.New(), uuid.New()

	token := signMap(t, jwt.MapClaims{
		"id":   flatID.String(),
		"user": map[string]any{"id": nestedID.String()},
		"exp":  now.Add(time.Hour).Unix(),
	})

	got, err := newTestTokens(now, ClaimShapeFlat).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, flatID, got)
}

func TestTokenService_MissingSubject(t *testing.T) {
	now := time.Now()
	token := signMap(t, jwt.MapClaims{"sub": uuid.NewString(), "exp": now.Add(time.Hour).Unix()})

	_, err := newTestTokens(now, ClaimShapeFlat).Verify(token)
	assert.ErrorIs(t, err, ErrMissingSubject)
}

func TestTokenService_Malformed(t *testing.T) {
	now := time.Now()
	svc := newTestTokens(now, ClaimShapeFlat)

	cases := map[string]string{
		"garbage":     "not-a-token",
		"empty":       "",
		"bad id":      signMap(t, jwt.MapClaims{"id": "not-a-uuid", "exp": now.Add(time.Hour).Unix()}),
		"missing exp": signMap(t, jwt.MapClaims{"id": uuid.NewString()}),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify(token)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id":  uuid.NewString(),
		"exp": now.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestTokens(now, ClaimShapeFlat).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
