// Package memory provides process-local repositories used by the
// STORE_DRIVER=memory mode and by service tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/autotask/internal/domain"
	"github.com/vedran77/autotask/internal/repository"
)

type AccountRepo struct {
	mu          sync.RWMutex
	byID        map[uuid.UUID]*domain.Account
	byEmail     map[string]uuid.UUID
	byUsername  map[string]uuid.UUID
	byFederated map[string]uuid.UUID
}

func NewAccountRepo() *AccountRepo {
	return &AccountRepo{
		byID:        make(map[uuid.UUID]*domain.Account),
		byEmail:     make(map[string]uuid.UUID),
		byUsername:  make(map[string]uuid.UUID),
		byFederated: make(map[string]uuid.UUID),
	}
}

func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[a.ID]; ok {
		return &repository.ConflictError{Field: "id"}
	}
	if err := r.checkUnique(a, uuid.Nil); err != nil {
		return err
	}

	stored := cloneAccount(a)
	r.byID[a.ID] = stored
	r.index(stored)
	return nil
}

func (r *AccountRepo) Update(ctx context.Context, a *domain.Account) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.checkUnique(a, a.ID); err != nil {
		return err
	}

	r.unindex(current)
	next := cloneAccount(a)
	next.Username = current.Username
	next.CreatedAt = current.CreatedAt
	r.byID[a.ID] = next
	r.index(next)
	return nil
}

func (r *AccountRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string, updatedAt time.Time) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	current.PasswordHash = &hash
	current.UpdatedAt = updatedAt
	return nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneAccount(r.byID[id]), nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.lookup(ctx, r.byEmail, domain.NormalizeEmail(email))
}

func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.lookup(ctx, r.byUsername, strings.ToLower(username))
}

func (r *AccountRepo) GetByFederatedID(ctx context.Context, federatedID string) (*domain.Account, error) {
	return r.lookup(ctx, r.byFederated, federatedID)
}

// Delete removes an account. It exists for tests that simulate concurrent writers.
func (r *AccountRepo) Delete(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.byID[id]; ok {
		r.unindex(a)
		delete(r.byID, id)
	}
}

func (r *AccountRepo) lookup(ctx context.Context, index map[string]uuid.UUID, key string) (*domain.Account, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := index[key]
	if !ok {
		return nil, nil
	}
	return cloneAccount(r.byID[id]), nil
}

// checkUnique must be called with the write lock held. self is skipped so an
// account never conflicts with its own stored row.
func (r *AccountRepo) checkUnique(a *domain.Account, self uuid.UUID) error {
	if id, ok := r.byEmail[domain.NormalizeEmail(a.Email)]; ok && id != self {
		return &repository.ConflictError{Field: repository.FieldEmail}
	}
	if self == uuid.Nil {
		if _, ok := r.byUsername[strings.ToLower(a.Username)]; ok {
			return &repository.ConflictError{Field: repository.FieldUsername}
		}
	}
	if a.IsFederated() {
		if id, ok := r.byFederated[*a.FederatedID]; ok && id != self {
			return &repository.ConflictError{Field: repository.FieldFederatedID}
		}
	}
	return nil
}

func (r *AccountRepo) index(a *domain.Account) {
	r.byEmail[domain.NormalizeEmail(a.Email)] = a.ID
	r.byUsername[strings.ToLower(a.Username)] = a.ID
	if a.IsFederated() {
		r.byFederated[*a.FederatedID] = a.ID
	}
}

func (r *AccountRepo) unindex(a *domain.Account) {
	delete(r.byEmail, domain.NormalizeEmail(a.Email))
	delete(r.byUsername, strings.ToLower(a.Username))
	if a.IsFederated() {
		delete(r.byFederated, *a.FederatedID)
	}
}

// checkContext reports a cancelled or expired context as ErrUnavailable, the
// same way the postgres store reports its timeouts.
func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}
	return nil
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	c := *a
	c.PasswordHash = cloneString(a.PasswordHash)
	c.FederatedID = cloneString(a.FederatedID)
	c.AvatarURL = cloneString(a.AvatarURL)
	c.GivenName = cloneString(a.GivenName)
	c.FamilyName = cloneString(a.FamilyName)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
