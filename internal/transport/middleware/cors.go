package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORS admits the configured comma separated origins; "*" admits any.
// Credentials are only allowed for an explicit origin list, never with "*".
// Preflight requests are answered here and never reach the router.
func CORS(allowedOrigins string) func(http.Handler) http.Handler {
	origins, wildcard := parseOrigins(allowedOrigins)
	if wildcard {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After", "Content-Disposition"},
		AllowCredentials: !wildcard,
		MaxAge:           600,
	})
}

func parseOrigins(raw string) ([]string, bool) {
	var origins []string
	wildcard := false
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		switch o {
		case "":
		case "*":
			wildcard = true
		default:
			origins = append(origins, strings.TrimRight(o, "/"))
		}
	}
	return origins, wildcard
}
