package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/autotask/internal/domain"
)

// AccountRepository is the credential store. It is the only writer of
// accounts and the sole enforcer of email, username and federated id
// uniqueness: Create and Update report a violation as *ConflictError.
// Lookups return (nil, nil) when nothing matches; writes to a missing row
// return ErrNotFound.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	// Update persists the mutable fields; id, username and created_at are never written.
	Update(ctx context.Context, account *domain.Account) error
	// UpdatePasswordHash writes only password_hash and updated_at.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string, updatedAt time.Time) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetByFederatedID(ctx context.Context, federatedID string) (*domain.Account, error)
}

// TaskRepository stores tasks. Every query is scoped to the owning account.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Task, error)
	// Update returns ErrNotFound when no task with that id belongs to the owner.
	Update(ctx context.Context, task *domain.Task) error
	// Delete reports whether a task owned by ownerID was removed.
	Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
}
