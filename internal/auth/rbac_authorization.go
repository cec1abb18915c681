package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a1media/agency-dashboard/internal/metrics"
)

// SessionResolver turns a bearer token into a Session.
type SessionResolver interface {
	ResolveSession(ctx context.Context, accessToken string) Session
}

// RBACAuthorization enforces the access gate on API routes.
type RBACAuthorization struct {
	resolver SessionResolver
	table    *PermissionTable
	logger   *slog.Logger
}

func NewRBACAuthorization(resolver SessionResolver, table *PermissionTable, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		resolver: resolver,
		table:    table,
		logger:   logger,
	}
}

// Session resolves the caller and stores the session in the request context.
// It never rejects; the Require* middlewares decide.
func (ra *RBACAuthorization) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := ra.resolver.ResolveSession(r.Context(), bearerToken(r))
		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), s)))
	})
}

// RequireAuthenticated admits any signed-in actor.
func (ra *RBACAuthorization) RequireAuthenticated() func(http.Handler) http.Handler {
	return ra.guard("any", func() []Role { return nil })
}

// RequireModule admits roles currently granted the module. The allow-list is
// read per request so table changes apply immediately.
func (ra *RBACAuthorization) RequireModule(module Module) func(http.Handler) http.Handler {
	return ra.guard(string(module), func() []Role { return ra.table.RolesFor(module) })
}

// RequireRole admits a fixed set of roles.
func (ra *RBACAuthorization) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	allowed := append([]Role{}, roles...)
	return ra.guard(strings.Join(roleStrings(allowed), ","), func() []Role { return allowed })
}

func (ra *RBACAuthorization) guard(label string, allowList func() []Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := SessionFromContext(r.Context())
			d := Authorize(s, allowList(), r.URL.RequestURI())
			metrics.GateDecisionsTotal.WithLabelValues(d.Outcome.String(), label).Inc()

			switch d.Outcome {
			case OutcomeAllow:
				next.ServeHTTP(w, r)
				return
			case OutcomePending:
				ra.logger.WarnContext(r.Context(), "access gate pending: session unresolved", "path", r.URL.Path)
				w.Header().Set("Retry-After", "1")
				writeDecision(w, http.StatusServiceUnavailable, d)
			case OutcomeRedirectLogin:
				writeDecision(w, http.StatusUnauthorized, d)
			default:
				ra.logger.WarnContext(r.Context(), "access denied: role not allowed",
					"user_id", s.Actor.ID,
					"role", s.Actor.Role,
					"guard", label)
				writeDecision(w, http.StatusForbidden, d)
			}
		})
	}
}

func writeDecision(w http.ResponseWriter, status int, d Decision) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(d)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
