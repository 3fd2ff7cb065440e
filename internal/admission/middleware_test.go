package admission

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavelhq/gavel/internal/shared"
)

func serveWithAuthz(handler http.Handler, authz shared.AuthzContext) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/api/cases", nil)
	r = r.WithContext(shared.ContextWithAuthz(r.Context(), authz))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	return rec
}

func TestMiddlewareRejectsOverBudget(t *testing.T) {
	limiter := NewLimiter(Config{Limit: 2, Window: time.Minute})
	handler := Middleware(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	authz := shared.AuthzContext{
		Principal: &shared.Principal{UserID: 7},
		CourtID:   "north-district",
	}

	assert.Equal(t, http.StatusOK, serveWithAuthz(handler, authz).Code)
	assert.Equal(t, http.StatusOK, serveWithAuthz(handler, authz).Code)

	rec := serveWithAuthz(handler, authz)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "RateLimited", body.Kind)
}

func TestMiddlewareKeysByCourtAndUser(t *testing.T) {
	limiter := NewLimiter(Config{Limit: 1, Window: time.Minute})
	handler := Middleware(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	north := shared.AuthzContext{Principal: &shared.Principal{UserID: 7}, CourtID: "north-district"}
	south := shared.AuthzContext{Principal: &shared.Principal{UserID: 7}, CourtID: "south-district"}

	assert.Equal(t, http.StatusOK, serveWithAuthz(handler, north).Code)
	assert.Equal(t, http.StatusTooManyRequests, serveWithAuthz(handler, north).Code)

	// The same user addressing a different court has a separate budget.
	assert.Equal(t, http.StatusOK, serveWithAuthz(handler, south).Code)
}

func TestMiddlewareAnonymousSharesCourtBucket(t *testing.T) {
	limiter := NewLimiter(Config{Limit: 1, Window: time.Minute})
	handler := Middleware(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	anon := shared.AuthzContext{CourtID: "north-district"}
	assert.Equal(t, http.StatusOK, serveWithAuthz(handler, anon).Code)
	assert.Equal(t, http.StatusTooManyRequests, serveWithAuthz(handler, anon).Code)
}
