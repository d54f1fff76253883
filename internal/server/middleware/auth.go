package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// Auth returns middleware that requires apiKey as either a Bearer token or
// an X-API-Key header. An empty apiKey disables it.
func Auth(apiKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if apiKey == "" {
			return next
		}
		want := []byte(apiKey)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := requestToken(r)
			var reason string
			switch {
			case token == "":
				reason = "missing API key"
			case subtle.ConstantTimeCompare([]byte(token), want) != 1:
				reason = "invalid API key"
			default:
				next.ServeHTTP(w, r)
				return
			}

			logger.WarnContext(r.Context(), "middleware: request rejected",
				slog.String("request_id", RequestID(r.Context())),
				slog.String("path", r.URL.Path),
				slog.String("reason", reason),
			)
			writeError(w, r, http.StatusUnauthorized, reason)
		})
	}
}

// requestToken prefers "Authorization: Bearer <key>" over X-API-Key.
func requestToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}
