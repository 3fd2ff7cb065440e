package admission

import (
	"net/http"
	"strconv"

	"github.com/gavelhq/gavel/internal/observability"
	"github.com/gavelhq/gavel/internal/shared"
)

// Middleware enforces the request budget using the authorization context
// assembled upstream. Authenticated callers are keyed by court and user id;
// anonymous callers share one bucket per court.
func Middleware(limiter *Limiter, metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := shared.AuthzFromContext(r.Context())

			subject := "anonymous"
			if authz.Principal != nil {
				subject = strconv.FormatInt(authz.Principal.UserID, 10)
			}
			key := authz.CourtID + ":" + subject

			decision := limiter.CheckAndConsume(key)
			if metrics != nil {
				metrics.ObserveAdmission(decisionLabel(decision))
			}
			if decision == Reject {
				shared.RespondError(w, http.StatusTooManyRequests, shared.ErrRateLimited, "request budget exhausted; retry shortly")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func decisionLabel(d Decision) string {
	if d == Reject {
		return "reject"
	}
	return "admit"
}
