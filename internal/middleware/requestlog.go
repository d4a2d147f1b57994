package middleware

import (
	"net/http"

	"github.com/jamshare/backend/internal/logging"

	"github.com/go-chi/chi/v5"
)

// RequestContextMiddleware adds request attributes to context early in the
// middleware chain so every log line inside a handler carries them.
func RequestContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attrs := &logging.RequestAttrs{
			Method: r.Method,
			Path:   r.URL.Path,
			IP:     logging.ExtractClientIP(r),
		}
		ctx := logging.WithRequestAttrs(r.Context(), attrs)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionContextMiddleware enriches the request attributes with the session
// id from the route and the client id from the query string, once routing
// has resolved them.
func SessionContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")
		clientID := r.URL.Query().Get("clientId")
		if sessionID != "" || clientID != "" {
			ctx := logging.UpdateRequestAttrs(r.Context(), sessionID, clientID)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}
