package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/lrsystem/lrsystem/internal/models"
)

// RateLimit limits each client to limitPerMinute requests in a sliding
// one-minute window. Clients are keyed by API key, falling back to IP.
func RateLimit(limitPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		limitPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(clientKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			models.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)
}

func clientKey(r *http.Request) (string, error) {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return "key:" + key, nil
	}
	ip, err := httprate.KeyByIP(r)
	return "ip:" + ip, err
}
