package service

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/vedran77/autotask/internal/repository"
)

const raceRetryDelay = 10 * time.Millisecond

// retryOnRace runs fn and, if it lost a race with another writer (a
// uniqueness conflict, or its target row vanished), runs it exactly once
// more. The last error is returned unwrapped.
func retryOnRace(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(1, retry.NewConstant(raceRetryDelay))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if errors.Is(err, repository.ErrConflict) || errors.Is(err, repository.ErrNotFound) {
			return retry.RetryableError(err)
		}
		return err
	})
}
