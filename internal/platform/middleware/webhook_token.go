package middleware

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// webhookTokenHeader is the header the gateway attaches to every delivery.
const webhookTokenHeader = "Asaas-Access-Token"

// RequireWebhookToken authenticates gateway webhook deliveries. Only the
// bcrypt hash of the shared token is kept in configuration, so a leaked config
// dump does not hand out the token itself.
func RequireWebhookToken(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(webhookTokenHeader)
			if token == "" || tokenHash == "" {
				logger.WarnContext(r.Context(), "webhook delivery without token",
					"request_id", GetRequestID(r.Context()),
				)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)); err != nil {
				logger.WarnContext(r.Context(), "webhook delivery with bad token",
					"request_id", GetRequestID(r.Context()),
				)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
