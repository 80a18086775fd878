package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/vedran77/autotask/internal/domain"
	"github.com/vedran77/autotask/internal/logging"
	"github.com/vedran77/autotask/internal/repository"
	"github.com/vedran77/autotask/internal/service"
)

type contextKey string

const AccountIDKey contextKey = "account_id"

// Authenticator resolves a raw Authorization header to an account.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*domain.Account, error)
}

// Auth gates a handler behind a valid session. Every credential failure
// gets the same 401 body so callers cannot tell which check failed.
func Auth(authn Authenticator, metrics *Metrics, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := authn.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				if reason, ok := RejectionReason(err); ok {
					metrics.SessionRejected(reason)
					writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated")
					return
				}
				if errors.Is(err, repository.ErrUnavailable) {
					logger.Warn(r.Context(), "session lookup unavailable", "err", err)
					writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Service temporarily unavailable")
					return
				}
				logger.Error(r.Context(), "session lookup failed", "err", err)
				writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
				return
			}

			ctx := context.WithValue(r.Context(), AccountIDKey, account.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RejectionReason classifies a session error as a credential failure.
func RejectionReason(err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrNoCredential):
		return "no_credential", true
	case errors.Is(err, service.ErrInvalidCredential):
		return "invalid_credential", true
	case errors.Is(err, service.ErrUnknownAccount):
		return "unknown_account", true
	default:
		return "", false
	}
}

// GetAccountID extracts the authenticated account id from the request context.
func GetAccountID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(AccountIDKey).(uuid.UUID)
	return id
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":{"code":"` + code + `","message":"` + message + `"}}`))
}
