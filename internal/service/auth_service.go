package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/autotask/internal/domain"
	"github.com/vedran77/autotask/internal/logging"
	"github.com/vedran77/autotask/internal/repository"
)

var (
	ErrEmailTaken   = errors.New("email already taken")
	ErrInvalidCreds = errors.New("invalid email or password")
)

type AuthService struct {
	accounts  repository.AccountRepository
	hasher    PasswordHasher
	usernames *UsernameAllocator
	tokens    *TokenService
	resolver  *FederatedIdentityResolver
	logger    logging.Logger

	// dummyDigest is verified when the email is unknown so a failed login
	// costs the same whether or not the account exists.
	dummyDigest string
}

func NewAuthService(
	accounts repository.AccountRepository,
	hasher PasswordHasher,
	usernames *UsernameAllocator,
	tokens *TokenService,
	resolver *FederatedIdentityResolver,
	logger logging.Logger,
) (*AuthService, error) {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("hashing dummy password: %w", err)
	}

	return &AuthService{
		accounts:    accounts,
		hasher:      hasher,
		usernames:   usernames,
		tokens:      tokens,
		resolver:    resolver,
		logger:      logger,
		dummyDigest: dummy,
	}, nil
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   *domain.Account `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	email := domain.NormalizeEmail(input.Email)

	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	name := strings.TrimSpace(input.Name)
	seed := name
	if seed == "" {
		seed, _, _ = strings.Cut(email, "@")
	}

	var account *domain.Account
	err = retryOnRace(ctx, func(ctx context.Context) error {
		username, err := s.usernames.Allocate(ctx, seed)
		if err != nil {
			return err
		}
		displayName := name
		if displayName == "" {
			displayName = username
		}

		now := time.Now()
		a := &domain.Account{
			ID:           uuid.New(),
			DisplayName:  displayName,
			Username:     username,
			Email:        email,
			PasswordHash: &hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		err = s.accounts.Create(ctx, a)
		if repository.IsConflictOn(err, repository.FieldEmail) {
			return ErrEmailTaken
		}
		if err != nil {
			return err
		}
		account = a
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating account: %w", err)
	}

	s.logger.Info(ctx, "account registered", "account_id", account.ID, "username", account.Username)
	return s.respond(account)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, domain.NormalizeEmail(input.Email))
	if err != nil {
		return nil, err
	}

	if account == nil || !account.HasPassword() {
		s.hasher.Verify(input.Password, s.dummyDigest)
		return nil, ErrInvalidCreds
	}
	if !s.hasher.Verify(input.Password, *account.PasswordHash) {
		return nil, ErrInvalidCreds
	}

	if s.hasher.NeedsRehash(*account.PasswordHash) {
		s.rehash(ctx, account, input.Password)
	}

	return s.respond(account)
}

// LoginFederated reconciles a provider profile with the account store and
// issues a session for the resulting account.
func (s *AuthService) LoginFederated(ctx context.Context, profile domain.FederatedProfile) (*AuthResponse, error) {
	account, err := s.resolver.Resolve(ctx, profile)
	if err != nil {
		return nil, err
	}
	return s.respond(account)
}

func (s *AuthService) Me(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrUnknownAccount
	}
	return account, nil
}

func (s *AuthService) respond(account *domain.Account) (*AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}
	return &AuthResponse{Token: token, ExpiresAt: expiresAt, Account: account}, nil
}

func (s *AuthService) rehash(ctx context.Context, account *domain.Account, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn(ctx, "password rehash failed", "account_id", account.ID, "err", err)
		return
	}

	now := time.Now()
	if err := s.accounts.UpdatePasswordHash(ctx, account.ID, hash, now); err != nil {
		s.logger.Warn(ctx, "persisting rehashed password failed", "account_id", account.ID, "err", err)
		return
	}
	account.PasswordHash = &hash
	account.UpdatedAt = now
}
