package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/autotask/internal/domain"
	"github.com/vedran77/autotask/internal/repository/memory"
)

func seedAccount(t *testing.T, repo *memory.AccountRepo, username string) *domain.Account {
	t.Helper()
	now := time.Now()
	a := &domain.Account{
		ID:          uuid.New(),
		DisplayName: username,
		Username:    username,
		Email:       username + "@seed.test",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, repo.Create(context.Background(), a))
	return a
}

func TestUsernameBase(t *testing.T) {
	cases := map[string]string{
		"John Smith":    "johnsmith",
		"  Ana-Marija ": "anamarija",
		"R2 D2!":        "r2d2",
		"???":           "user",
		"":              "user",
		"Željko Đurić":  "eljkouri",
		"ALLCAPS_123":   "allcaps123",
	}
	for seed, want := range cases {
		assert.Equal(t, want, usernameBase(seed), "seed %q", seed)
	}
}

func TestUsernameAllocator_FreeBase(t *testing.T) {
	alloc := NewUsernameAllocator(memory.NewAccountRepo())

	got, err := alloc.Allocate(context.Background(), "John Smith")
	require.NoError(t, err)
	assert.Equal(t, "johnsmith", got)
}

func TestUsernameAllocator_SkipsTakenSuffixes(t *testing.T) {
	for n := 1; n <= 4; n++ {
		t.Run(fmt.Sprintf("%d taken", n), func(t *testing.T) {
			repo := memory.NewAccountRepo()
			seedAccount(t, repo, "john")
			for i := 1; i < n; i++ {
				seedAccount(t, repo, fmt.Sprintf("john%d", i))
			}

			got, err := NewUsernameAllocator(repo).Allocate(context.Background(), "John")
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("john%d", n), got)
		})
	}
}

func TestUsernameAllocator_Fallback(t *testing.T) {
	repo := memory.NewAccountRepo()
	alloc := NewUsernameAllocator(repo)

	got, err := alloc.Allocate(context.Background(), "???")
	require.NoError(t, err)
	assert.Equal(t, "user", got)

	seedAccount(t, repo, "user")
	got, err = alloc.Allocate(context.Background(), "???")
	require.NoError(t, err)
	assert.Equal(t, "user1", got)
}

type failingLookup struct{ err error }

func (f failingLookup) GetByUsername(context.Context, string) (*domain.Account, error) {
	return nil, f.err
}

func TestUsernameAllocator_StoreError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewUsernameAllocator(failingLookup{err: boom}).Allocate(context.Background(), "john")
	assert.ErrorIs(t, err, boom)
}

func TestUsernameAllocator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewUsernameAllocator(memory.NewAccountRepo()).Allocate(ctx, "john")
	assert.ErrorIs(t, err, context.Canceled)
}
