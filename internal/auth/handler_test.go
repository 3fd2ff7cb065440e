package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, svc *Service) http.Handler {
	t.Helper()
	h := NewHandler(discardLogger(), svc, svc.tokens, CookieWriter{AccessTTL: 15 * time.Minute})
	r := chi.NewRouter()
	r.Route("/auth", h.MountRoutes)
	return r
}

func TestHandleLogin(t *testing.T) {
	repo := newMockRepo()
	seedPasswordUser(t, repo, "pat@example.org", "hunter2hunter2")
	svc := newTestService(t, repo, "")
	router := newTestHandler(t, svc)

	body := `{"email":"pat@example.org","password":"hunter2hunter2"}`
	r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		User         struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "pat@example.org", resp.User.Email)

	names := make(map[string]bool)
	for _, c := range rec.Result().Cookies() {
		names[c.Name] = true
		assert.True(t, c.HttpOnly, "cookie %s must be HttpOnly", c.Name)
	}
	assert.True(t, names[AccessCookieName])
	assert.True(t, names[RefreshCookieName])
}

func TestHandleLoginBadCredentials(t *testing.T) {
	repo := newMockRepo()
	seedPasswordUser(t, repo, "pat@example.org", "hunter2hunter2")
	svc := newTestService(t, repo, "")
	router := newTestHandler(t, svc)

	body := `{"email":"pat@example.org","password":"wrong-password"}`
	r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "InvalidCredentials", decodeErrorKind(t, rec))
}

func TestHandleLoginValidation(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo, "")
	router := newTestHandler(t, svc)

	for name, body := range map[string]string{
		"not json":       `{{{`,
		"missing fields": `{"email":"pat@example.org"}`,
		"bad email":      `{"email":"nope","password":"hunter2hunter2"}`,
		"short password": `{"email":"pat@example.org","password":"short"}`,
	} {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, r)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleRefresh(t *testing.T) {
	repo := newMockRepo()
	seedPasswordUser(t, repo, "pat@example.org", "hunter2hunter2")
	svc := newTestService(t, repo, "")
	router := newTestHandler(t, svc)

	pair, _, err := svc.LoginWithPassword(context.Background(), "pat@example.org", "hunter2hunter2")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	r.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: pair.RefreshToken})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEqual(t, pair.RefreshToken, resp.RefreshToken, "refresh must rotate the token")
}

func TestHandleRefreshFromBody(t *testing.T) {
	repo := newMockRepo()
	seedPasswordUser(t, repo, "pat@example.org", "hunter2hunter2")
	svc := newTestService(t, repo, "")
	router := newTestHandler(t, svc)

	pair, _, err := svc.LoginWithPassword(context.Background(), "pat@example.org", "hunter2hunter2")
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{"refresh_token": pair.RefreshToken})
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleRefreshRejected(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo, "")
	router := newTestHandler(t, svc)

	r := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	r.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "garbage"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TokenInvalid", decodeErrorKind(t, rec))

	// Rejection clears the cookies so the browser stops retrying.
	for _, c := range rec.Result().Cookies() {
		assert.Equal(t, -1, c.MaxAge, "cookie %s should be cleared", c.Name)
	}
}

func TestHandleLogout(t *testing.T) {
	repo := newMockRepo()
	seedPasswordUser(t, repo, "pat@example.org", "hunter2hunter2")
	svc := newTestService(t, repo, "")
	router := newTestHandler(t, svc)

	pair, _, err := svc.LoginWithPassword(context.Background(), "pat@example.org", "hunter2hunter2")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	r.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: pair.RefreshToken})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, repo.refreshTokens[HashToken(pair.RefreshToken)].Revoked)

	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
}

func TestHandleOAuthBegin(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo, "")
	router := newTestHandler(t, svc)

	r := httptest.NewRequest(http.MethodGet, "/auth/oauth/google?redirect=/cases", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)

	require.Equal(t, http.StatusFound, rec.Code)
	location := rec.Header().Get("Location")
	assert.Contains(t, location, "accounts.google.com")
	assert.Contains(t, location, "code_challenge=")
}

func TestHandleOAuthBeginUnknownProvider(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo, "")
	router := newTestHandler(t, svc)

	r := httptest.NewRequest(http.MethodGet, "/auth/oauth/myspace", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleOAuthCallback(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo, "")
	stubGoogleUserInfo(t, svc, "new@example.org")
	router := newTestHandler(t, svc)

	state, err := svc.handshakes.Begin("pkce-verifier", "/cases/3")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/auth/oauth/google/callback?state="+state+"&code=auth-code", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cases/3", rec.Header().Get("Location"))

	// Replay of the same callback fails: the state was consumed.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/oauth/google/callback?state="+state+"&code=auth-code", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "HandshakeUnknownOrExpired", decodeErrorKind(t, rec))
}

func TestHandleOAuthCallbackMissingParams(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo, "")
	router := newTestHandler(t, svc)

	r := httptest.NewRequest(http.MethodGet, "/auth/oauth/google/callback", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSafeRedirectPath(t *testing.T) {
	assert.Equal(t, "/cases", safeRedirectPath("/cases"))
	assert.Empty(t, safeRedirectPath("https://evil.test/phish"))
	assert.Empty(t, safeRedirectPath("//evil.test"))
	assert.Empty(t, safeRedirectPath(""))
}
