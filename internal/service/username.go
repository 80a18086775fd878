package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vedran77/autotask/internal/domain"
)

const (
	fallbackUsername = "user"
	maxUsernameProbe = 10000
)

var ErrUsernameExhausted = errors.New("no free username for seed")

type usernameLookup interface {
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
}

// UsernameAllocator derives handles from display names. It only probes the
// store; the store's unique constraint decides the final winner, so callers
// must treat a username conflict on insert as a reason to allocate again.
type UsernameAllocator struct {
	accounts usernameLookup
}

func NewUsernameAllocator(accounts usernameLookup) *UsernameAllocator {
	return &UsernameAllocator{accounts: accounts}
}

// Allocate returns the first free candidate among base, base1, base2, ...
func (a *UsernameAllocator) Allocate(ctx context.Context, seed string) (string, error) {
	base := usernameBase(seed)

	for i := 0; i < maxUsernameProbe; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate := base
		if i > 0 {
			candidate = base + strconv.Itoa(i)
		}

		existing, err := a.accounts.GetByUsername(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probing username %q: %w", candidate, err)
		}
		if existing == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUsernameExhausted, base)
}

// usernameBase lower-cases seed and keeps only [a-z0-9].
func usernameBase(seed string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(seed) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return fallbackUsername
	}
	return b.String()
}
