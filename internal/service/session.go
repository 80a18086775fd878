package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vedran77/autotask/internal/domain"
)

const bearerPrefix = "Bearer "

var (
	ErrNoCredential      = errors.New("no bearer credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUnknownAccount    = errors.New("account no longer exists")
)

type tokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

type accountGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

// SessionAuthenticator resolves an Authorization header to a live account.
// Nothing is cached: every call re-reads the account from the store.
type SessionAuthenticator struct {
	tokens   tokenVerifier
	accounts accountGetter
}

func NewSessionAuthenticator(tokens tokenVerifier, accounts accountGetter) *SessionAuthenticator {
	return &SessionAuthenticator{tokens: tokens, accounts: accounts}
}

func (s *SessionAuthenticator) Authenticate(ctx context.Context, header string) (*domain.Account, error) {
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || strings.TrimSpace(token) == "" {
		return nil, ErrNoCredential
	}

	id, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading session account: %w", err)
	}
	if account == nil {
		return nil, ErrUnknownAccount
	}
	return account, nil
}
