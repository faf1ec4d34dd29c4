package middleware

import (
	"net/http"
	"strings"
)

const (
	corsMethods       = "GET,POST,DELETE,OPTIONS"
	corsHeaders       = "Authorization,Content-Type"
	corsPublicMethods = "POST,OPTIONS"
	corsPublicHeaders = "Content-Type"
	corsExposed       = "X-Request-Id"
	corsMaxAge        = "86400"
)

// NewCORS allows the configured origins on every route. "*" in allowedOrigins matches any origin.
// Paths under publicPrefixes are reachable from any origin, but only for unauthenticated POSTs.
func NewCORS(allowedOrigins []string, publicPrefixes ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	anyOrigin := false
	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch origin {
		case "":
			continue
		case "*":
			anyOrigin = true
		default:
			allowed[origin] = struct{}{}
		}
	}

	isPublic := func(path string) bool {
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				w.Header().Add("Vary", "Origin")

				_, ok := allowed[origin]
				switch {
				case ok || anyOrigin:
					setCORSHeaders(w, origin, corsMethods, corsHeaders)
				case isPublic(r.URL.Path):
					setCORSHeaders(w, origin, corsPublicMethods, corsPublicHeaders)
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setCORSHeaders(w http.ResponseWriter, origin, methods, headers string) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", methods)
	h.Set("Access-Control-Allow-Headers", headers)
	h.Set("Access-Control-Expose-Headers", corsExposed)
	h.Set("Access-Control-Max-Age", corsMaxAge)
}
