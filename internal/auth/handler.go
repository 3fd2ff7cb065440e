package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gavelhq/gavel/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	tokens    *TokenManager
	cookies   CookieWriter
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, tokens *TokenManager, cookies CookieWriter) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		tokens:    tokens,
		cookies:   cookies,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/refresh", h.handleRefresh)
	r.Post("/logout", h.handleLogout)
	r.Get("/oauth/{provider}", h.handleOAuthBegin)
	r.Get("/oauth/{provider}/callback", h.handleOAuthCallback)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	User         struct {
		ID          int64  `json:"id"`
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		Role        string `json:"role"`
	} `json:"user"`
}

func newTokenResponse(pair *TokenPair, user *User) tokenResponse {
	resp := tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
	}
	resp.User.ID = user.ID
	resp.User.Email = user.Email
	resp.User.DisplayName = user.DisplayName
	resp.User.Role = user.GlobalRole
	return resp
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, shared.ErrValidation, "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, shared.ErrValidation, "email and password are required")
		return
	}

	pair, user, err := h.service.LoginWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			shared.RespondError(w, http.StatusUnauthorized, err, "email or password is incorrect")
			return
		}
		h.logger.Error("password login", slog.Any("error", err))
		shared.RespondError(w, http.StatusInternalServerError, err, "login failed")
		return
	}

	h.cookies.Set(w, pair)
	shared.RespondJSON(w, http.StatusOK, newTokenResponse(pair, user))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	raw := ExtractRefreshToken(r)
	if raw == "" {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			raw = body.RefreshToken
		}
	}
	if raw == "" {
		shared.RespondError(w, http.StatusUnauthorized, shared.ErrTokenMalformed, "refresh token required")
		return
	}

	pair, user, err := h.service.Refresh(r.Context(), raw)
	if err != nil {
		if kind := shared.ErrorKind(err); kind == "TokenInvalid" {
			h.cookies.Clear(w)
			shared.RespondError(w, http.StatusUnauthorized, err, "refresh token rejected")
			return
		}
		h.logger.Error("token refresh", slog.Any("error", err))
		shared.RespondError(w, http.StatusInternalServerError, err, "refresh failed")
		return
	}

	h.cookies.Set(w, pair)
	shared.RespondJSON(w, http.StatusOK, newTokenResponse(pair, user))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var accessClaims *Claims
	if raw := ExtractAccessToken(r); raw != "" {
		if claims, err := h.tokens.VerifyAccess(raw); err == nil {
			accessClaims = claims
		}
	}
	h.service.Logout(r.Context(), ExtractRefreshToken(r), accessClaims)
	h.cookies.Clear(w)
	shared.RespondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *Handler) handleOAuthBegin(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	redirectAfter := safeRedirectPath(r.URL.Query().Get("redirect"))

	authURL, err := h.service.BeginOAuth(r.Context(), provider, redirectAfter)
	if err != nil {
		if errors.Is(err, ErrUnknownProvider) {
			shared.RespondError(w, http.StatusNotFound, shared.ErrNotFound, "unknown identity provider")
			return
		}
		h.logger.Error("begin oauth", slog.String("provider", provider), slog.Any("error", err))
		shared.RespondError(w, http.StatusInternalServerError, err, "could not start sign-in")
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (h *Handler) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		shared.RespondError(w, http.StatusBadRequest, shared.ErrHandshakeUnknown, "missing state or code")
		return
	}

	pair, _, redirectAfter, err := h.service.CompleteOAuth(r.Context(), provider, state, code)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownProvider):
			shared.RespondError(w, http.StatusNotFound, shared.ErrNotFound, "unknown identity provider")
		case errors.Is(err, shared.ErrHandshakeUnknown):
			shared.RespondError(w, http.StatusUnauthorized, err, "sign-in session is unknown or has expired; start again")
		case errors.Is(err, shared.ErrInvalidCredentials):
			shared.RespondError(w, http.StatusForbidden, err, "account is not active")
		default:
			h.logger.Error("complete oauth", slog.String("provider", provider), slog.Any("error", err))
			shared.RespondError(w, http.StatusInternalServerError, err, "sign-in failed")
		}
		return
	}

	h.cookies.Set(w, pair)
	target := safeRedirectPath(redirectAfter)
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// safeRedirectPath accepts only same-origin absolute paths, blocking open
// redirects through the post-login target.
func safeRedirectPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return ""
	}
	return p
}
