package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/autotask/internal/domain"
)

const accountColumns = `id, display_name, username, email, password_hash, federated_id,
	avatar_url, given_name, family_name, email_verified, created_at, updated_at`

type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.DisplayName, a.Username, a.Email, a.PasswordHash, a.FederatedID,
		a.AvatarURL, a.GivenName, a.FamilyName, a.EmailVerified, a.CreatedAt, a.UpdatedAt,
	)
	return mapError(err)
}

func (r *AccountRepo) Update(ctx context.Context, a *domain.Account) error {
	query := `
		UPDATE accounts
		SET display_name = $1, email = $2, password_hash = $3, federated_id = $4,
		    avatar_url = $5, given_name = $6, family_name = $7, email_verified = $8, updated_at = $9
		WHERE id = $10`

	return updateResult(r.pool.Exec(ctx, query,
		a.DisplayName, a.Email, a.PasswordHash, a.FederatedID,
		a.AvatarURL, a.GivenName, a.FamilyName, a.EmailVerified, a.UpdatedAt, a.ID,
	))
}

func (r *AccountRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string, updatedAt time.Time) error {
	return updateResult(r.pool.Exec(ctx,
		`UPDATE accounts SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		hash, updatedAt, id,
	))
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.scanAccount(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = $1", id)
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.scanAccount(ctx, "SELECT "+accountColumns+" FROM accounts WHERE email = $1", domain.NormalizeEmail(email))
}

func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.scanAccount(ctx, "SELECT "+accountColumns+" FROM accounts WHERE username = $1", username)
}

func (r *AccountRepo) GetByFederatedID(ctx context.Context, federatedID string) (*domain.Account, error) {
	return r.scanAccount(ctx, "SELECT "+accountColumns+" FROM accounts WHERE federated_id = $1", federatedID)
}

func (r *AccountRepo) scanAccount(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var a domain.Account
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&a.ID, &a.DisplayName, &a.Username, &a.Email, &a.PasswordHash, &a.FederatedID,
		&a.AvatarURL, &a.GivenName, &a.FamilyName, &a.EmailVerified, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}
