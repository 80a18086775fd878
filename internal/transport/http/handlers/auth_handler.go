package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/vedran77/autotask/internal/domain"
	"github.com/vedran77/autotask/internal/logging"
	"github.com/vedran77/autotask/internal/oauth"
	"github.com/vedran77/autotask/internal/service"
	"github.com/vedran77/autotask/internal/transport/http/middleware"
	"github.com/vedran77/autotask/pkg/validator"
)

const (
	stateCookie    = "oauth_state"
	verifierCookie = "oauth_verifier"
	oauthCookieTTL = 600
	oauthPath      = "/api/auth/google"
)

// FederatedProvider runs the authorization-code exchange with an identity provider.
type FederatedProvider interface {
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (domain.FederatedProfile, error)
}

type AuthHandler struct {
	authService *service.AuthService
	provider    FederatedProvider
	frontendURL string
	logger      logging.Logger
}

func NewAuthHandler(authService *service.AuthService, provider FederatedProvider, frontendURL string, logger logging.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		provider:    provider,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateRegister(input.Email, input.Password, input.Name); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	resp, err := h.authService.Register(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email is already registered")
		} else {
			writeUnexpected(w, r, h.logger, "register", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateLogin(input.Email, input.Password); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	resp, err := h.authService.Login(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCreds) {
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		} else {
			writeUnexpected(w, r, h.logger, "login", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, err := h.authService.Me(r.Context(), middleware.GetAccountID(r.Context()))
	if err != nil {
		if errors.Is(err, service.ErrUnknownAccount) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated")
		} else {
			writeUnexpected(w, r, h.logger, "me", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// GoogleStart redirects the browser to the provider's consent screen. The
// state and PKCE verifier ride along in short-lived HttpOnly cookies.
func (h *AuthHandler) GoogleStart(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	verifier := oauth.GenerateVerifier()

	h.setOAuthCookie(w, r, stateCookie, state, oauthCookieTTL)
	h.setOAuthCookie(w, r, verifierCookie, verifier, oauthCookieTTL)

	http.Redirect(w, r, h.provider.AuthCodeURL(state, verifier), http.StatusFound)
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	h.setOAuthCookie(w, r, stateCookie, "", -1)
	h.setOAuthCookie(w, r, verifierCookie, "", -1)

	query := r.URL.Query()
	if query.Get("error") != "" {
		h.loginFailed(w, r, "access_denied")
		return
	}

	stateC, err := r.Cookie(stateCookie)
	if err != nil || stateC.Value == "" || stateC.Value != query.Get("state") {
		h.loginFailed(w, r, "invalid_state")
		return
	}
	verifierC, err := r.Cookie(verifierCookie)
	if err != nil || verifierC.Value == "" {
		h.loginFailed(w, r, "invalid_state")
		return
	}

	code := query.Get("code")
	if code == "" {
		h.loginFailed(w, r, "missing_code")
		return
	}

	profile, err := h.provider.Exchange(r.Context(), code, verifierC.Value)
	if err != nil {
		h.logger.Warn(r.Context(), "google exchange failed", "err", err)
		h.loginFailed(w, r, "google_failed")
		return
	}

	resp, err := h.authService.LoginFederated(r.Context(), profile)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingEmail), errors.Is(err, service.ErrInvalidProfile):
			h.loginFailed(w, r, "incomplete_profile")
		default:
			h.logger.Error(r.Context(), "federated login failed", "provider", "google", "err", err)
			h.loginFailed(w, r, "login_failed")
		}
		return
	}

	target := h.frontendURL + "/dashboard?" + url.Values{"token": {resp.Token}}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, h.frontendURL+"/login?"+url.Values{"error": {code}}.Encode(), http.StatusFound)
}

func (h *AuthHandler) setOAuthCookie(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     oauthPath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
