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
	ErrMissingEmail   = errors.New("federated profile has no email")
	ErrInvalidProfile = errors.New("federated profile has no subject")
	ErrReconciliation = errors.New("federated identity could not be reconciled")
)

// FederatedIdentityResolver maps a provider profile onto exactly one account,
// linking by email before it ever creates a new one.
type FederatedIdentityResolver struct {
	accounts  repository.AccountRepository
	usernames *UsernameAllocator
	logger    logging.Logger
}

func NewFederatedIdentityResolver(accounts repository.AccountRepository, usernames *UsernameAllocator, logger logging.Logger) *FederatedIdentityResolver {
	return &FederatedIdentityResolver{accounts: accounts, usernames: usernames, logger: logger}
}

// Resolve runs lookup-by-subject, lookup-by-email, create. A uniqueness
// conflict, or an account deleted between lookup and write, restarts the
// whole sequence once; a second failure of either kind is reported as
// ErrReconciliation.
func (r *FederatedIdentityResolver) Resolve(ctx context.Context, profile domain.FederatedProfile) (*domain.Account, error) {
	profile.Subject = strings.TrimSpace(profile.Subject)
	profile.Email = domain.NormalizeEmail(profile.Email)
	profile.DisplayName = strings.TrimSpace(profile.DisplayName)

	if profile.Subject == "" {
		return nil, ErrInvalidProfile
	}
	if profile.Email == "" {
		return nil, ErrMissingEmail
	}

	var account *domain.Account
	err := retryOnRace(ctx, func(ctx context.Context) error {
		a, err := r.resolveOnce(ctx, profile)
		if err != nil {
			return err
		}
		account = a
		return nil
	})
	if errors.Is(err, repository.ErrConflict) || errors.Is(err, repository.ErrNotFound) {
		r.logger.Error(ctx, "federated reconciliation failed after retry", "subject", profile.Subject, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrReconciliation, err)
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (r *FederatedIdentityResolver) resolveOnce(ctx context.Context, p domain.FederatedProfile) (*domain.Account, error) {
	account, err := r.accounts.GetByFederatedID(ctx, p.Subject)
	if err != nil {
		return nil, fmt.Errorf("looking up federated id: %w", err)
	}
	if account != nil {
		return r.refresh(ctx, account, p)
	}

	account, err = r.accounts.GetByEmail(ctx, p.Email)
	if err != nil {
		return nil, fmt.Errorf("looking up email: %w", err)
	}
	if account != nil {
		return r.link(ctx, account, p)
	}

	return r.create(ctx, p)
}

// refresh copies provider-owned fields onto a returning account and writes
// only when something differs.
func (r *FederatedIdentityResolver) refresh(ctx context.Context, a *domain.Account, p domain.FederatedProfile) (*domain.Account, error) {
	changed := false

	if a.Email != p.Email {
		a.Email = p.Email
		changed = true
	}
	if p.AvatarURL != "" && (a.AvatarURL == nil || *a.AvatarURL != p.AvatarURL) {
		a.AvatarURL = &p.AvatarURL
		changed = true
	}
	if p.DisplayName != "" && a.DisplayName != p.DisplayName {
		a.DisplayName = p.DisplayName
		changed = true
	}

	if !changed {
		return a, nil
	}

	a.UpdatedAt = time.Now()
	if err := r.accounts.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("refreshing federated account: %w", err)
	}
	return a, nil
}

func (r *FederatedIdentityResolver) link(ctx context.Context, a *domain.Account, p domain.FederatedProfile) (*domain.Account, error) {
	subject := p.Subject
	a.FederatedID = &subject
	if p.AvatarURL != "" {
		a.AvatarURL = &p.AvatarURL
	}
	a.UpdatedAt = time.Now()

	if err := r.accounts.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("linking federated id: %w", err)
	}
	r.logger.Info(ctx, "linked federated identity", "account_id", a.ID, "subject", subject)
	return a, nil
}

func (r *FederatedIdentityResolver) create(ctx context.Context, p domain.FederatedProfile) (*domain.Account, error) {
	username, err := r.usernames.Allocate(ctx, p.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("allocating username: %w", err)
	}

	displayName := p.DisplayName
	if displayName == "" {
		displayName = username
	}

	now := time.Now()
	subject := p.Subject
	a := &domain.Account{
		ID:            uuid.New(),
		DisplayName:   displayName,
		Username:      username,
		Email:         p.Email,
		FederatedID:   &subject,
		AvatarURL:     optional(p.AvatarURL),
		GivenName:     optional(p.GivenName),
		FamilyName:    optional(p.FamilyName),
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := r.accounts.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("creating federated account: %w", err)
	}
	r.logger.Info(ctx, "created federated account", "account_id", a.ID, "username", a.Username)
	return a, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
