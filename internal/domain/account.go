package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account is the canonical identity record shared by local and federated logins.
// Username never changes after creation.
type Account struct {
	ID            uuid.UUID `json:"id"`
	DisplayName   string    `json:"name"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PasswordHash  *string   `json:"-"`
	FederatedID   *string   `json:"-"`
	AvatarURL     *string   `json:"avatar_url,omitempty"`
	GivenName     *string   `json:"given_name,omitempty"`
	FamilyName    *string   `json:"family_name,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasPassword reports whether the account can log in with local credentials.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

// IsFederated reports whether a federated identity is linked to the account.
func (a *Account) IsFederated() bool {
	return a.FederatedID != nil && *a.FederatedID != ""
}

// FederatedProfile is the provider-asserted identity handed over after an
// OAuth exchange. Only Subject is guaranteed; everything else is untrusted.
type FederatedProfile struct {
	Subject       string
	Email         string
	EmailVerified bool
	DisplayName   string
	GivenName     string
	FamilyName    string
	AvatarURL     string
}

// NormalizeEmail lower-cases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
