package middleware

import (
	"net/http"

	"github.com/a1media/agency-dashboard/internal/auth"
	"github.com/a1media/agency-dashboard/pkg/logger"
)

// ActorContext tags the context logger with the signed-in actor. It must run
// after session resolution.
func ActorContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.ActorFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := logger.With(r.Context(), "actor_id", actor.ID, "role", actor.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
