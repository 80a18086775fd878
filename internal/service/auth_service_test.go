package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/autotask/internal/domain"
	"github.com/vedran77/autotask/internal/logging"
	"github.com/vedran77/autotask/internal/repository"
	"github.com/vedran77/autotask/internal/repository/memory"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	svc      *AuthService
	accounts *hookedAccounts
	tokens   *TokenService
	session  *SessionAuthenticator
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	accounts := &hookedAccounts{AccountRepo: memory.NewAccountRepo()}
	tokens := NewTokenService(TokenConfig{Secret: testSecret, TTL: 24 * time.Hour})
	usernames := NewUsernameAllocator(accounts)
	resolver := NewFederatedIdentityResolver(accounts, usernames, logging.Discard())

	svc, err := NewAuthService(accounts, fastHasher(), usernames, tokens, resolver, logging.Discard())
	require.NoError(t, err)

	return &authFixture{
		svc:      svc,
		accounts: accounts,
		tokens:   tokens,
		session:  NewSessionAuthenticator(tokens, accounts),
	}
}

func TestAuthService_RegisterLoginLinkScenario(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	reg, err := f.svc.Register(ctx, RegisterInput{Email: "u@test.com", Password: "secret1", Name: "U Test"})
	require.NoError(t, err)
	require.NotEmpty(t, reg.Token)

	id, err := f.tokens.Verify(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.Account.ID, id)
	assert.False(t, reg.Account.EmailVerified)

	_, err = f.svc.Login(ctx, LoginInput{Email: "u@test.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCreds)

	fed, err := f.svc.LoginFederated(ctx, domain.FederatedProfile{Subject: "g-123", Email: "u@test.com", DisplayName: "U Test"})
	require.NoError(t, err)
	assert.Equal(t, reg.Account.ID, fed.Account.ID)
	require.NotNil(t, fed.Account.FederatedID)
	assert.Equal(t, "g-123", *fed.Account.FederatedID)
	assert.Equal(t, 1, f.accounts.creates)

	updatesBefore := f.accounts.updates
	again, err := f.svc.LoginFederated(ctx, domain.FederatedProfile{Subject: "g-123", Email: "u@test.com", DisplayName: "U Test"})
	require.NoError(t, err)
	assert.Equal(t, reg.Account.ID, again.Account.ID)
	assert.Equal(t, updatesBefore, f.accounts.updates)
	assert.Equal(t, 1, f.accounts.creates)

	fedID, err := f.tokens.Verify(again.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.Account.ID, fedID)

	login, err := f.svc.Login(ctx, LoginInput{Email: "U@Test.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, reg.Account.ID, login.Account.ID)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	_, err := f.svc.Register(ctx, RegisterInput{Email: "a@test.com", Password: "secret1", Name: "A"})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, RegisterInput{Email: " A@TEST.com ", Password: "secret2", Name: "B"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_RegisterUsernameFromEmailWhenNameMissing(t *testing.T) {
	f := newAuthFixture(t)

	res, err := f.svc.Register(context.Background(), RegisterInput{Email: "jane.doe@test.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "janedoe", res.Account.Username)
	assert.Equal(t, "janedoe", res.Account.DisplayName)
}

func TestAuthService_RegisterSuffixesTakenUsername(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	first, err := f.svc.Register(ctx, RegisterInput{Email: "a@test.com", Password: "secret1", Name: "Sam"})
	require.NoError(t, err)
	second, err := f.svc.Register(ctx, RegisterInput{Email: "b@test.com", Password: "secret1", Name: "Sam"})
	require.NoError(t, err)

	assert.Equal(t, "sam", first.Account.Username)
	assert.Equal(t, "sam1", second.Account.Username)
}

func TestAuthService_RegisterRetriesUsernameRace(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	raced := false
	f.accounts.beforeCreate = func(ctx context.Context, a *domain.Account) error {
		if raced {
			return nil
		}
		raced = true
		return &repository.ConflictError{Field: repository.FieldUsername}
	}

	res, err := f.svc.Register(ctx, RegisterInput{Email: "a@test.com", Password: "secret1", Name: "Sam"})
	require.NoError(t, err)
	assert.Equal(t, "sam", res.Account.Username)
	assert.Equal(t, 2, f.accounts.creates)
}

func TestAuthService_LoginFailuresAreUniform(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	_, err := f.svc.Register(ctx, RegisterInput{Email: "a@test.com", Password: "secret1", Name: "A"})
	require.NoError(t, err)
	_, err = f.svc.LoginFederated(ctx, domain.FederatedProfile{Subject: "g-9", Email: "fed@test.com", DisplayName: "Fed"})
	require.NoError(t, err)

	cases := map[string]LoginInput{
		"unknown email":  {Email: "nobody@test.com", Password: "secret1"},
		"wrong password": {Email: "a@test.com", Password: "secret2"},
		"federated only": {Email: "fed@test.com", Password: ""},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Login(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidCreds)
		})
	}
}

func TestAuthService_LoginUpgradesLegacyDigest(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	legacy, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	digest := string(legacy)

	a := seedAccount(t, f.accounts.AccountRepo, "legacy")
	a.PasswordHash = &digest
	require.NoError(t, f.accounts.AccountRepo.Update(ctx, a))

	_, err = f.svc.Login(ctx, LoginInput{Email: a.Email, Password: "secret1"})
	require.NoError(t, err)

	stored, err := f.accounts.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Contains(t, *stored.PasswordHash, "$argon2id$")

	_, err = f.svc.Login(ctx, LoginInput{Email: a.Email, Password: "secret1"})
	require.NoError(t, err)
}

func TestAuthService_RehashKeepsConcurrentLink(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	legacy, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	digest := string(legacy)

	a := seedAccount(t, f.accounts.AccountRepo, "legacy")
	a.PasswordHash = &digest
	require.NoError(t, f.accounts.AccountRepo.Update(ctx, a))

	// Google login links the account after Login has read it.
	f.accounts.beforeRehash = func(ctx context.Context, id uuid.UUID) {
		current, err := f.accounts.AccountRepo.GetByID(ctx, id)
		require.NoError(t, err)
		subject := "g-legacy"
		current.FederatedID = &subject
		require.NoError(t, f.accounts.AccountRepo.Update(ctx, current))
	}

	_, err = f.svc.Login(ctx, LoginInput{Email: a.Email, Password: "secret1"})
	require.NoError(t, err)

	stored, err := f.accounts.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Contains(t, *stored.PasswordHash, "$argon2id$")
	require.NotNil(t, stored.FederatedID)
	assert.Equal(t, "g-legacy", *stored.FederatedID)
}

func TestAuthService_Me(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	reg, err := f.svc.Register(ctx, RegisterInput{Email: "a@test.com", Password: "secret1", Name: "A"})
	require.NoError(t, err)

	me, err := f.svc.Me(ctx, reg.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@test.com", me.Email)

	f.accounts.Delete(reg.Account.ID)
	_, err = f.svc.Me(ctx, reg.Account.ID)
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestAuthService_SessionFromRegistration(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	reg, err := f.svc.Register(ctx, RegisterInput{Email: "a@test.com", Password: "secret1", Name: "A"})
	require.NoError(t, err)

	account, err := f.session.Authenticate(ctx, "Bearer "+reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.Account.ID, account.ID)
}
