package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lrsystem/lrsystem/internal/models"
)

// apiKeyCookie lets browser clients of the query endpoints authenticate
// without setting a custom header.
const apiKeyCookie = "api_key"

// Health checks and Prometheus scrapes run without a key.
var publicPaths = map[string]bool{
	"/":        true,
	"/health":  true,
	"/metrics": true,
}

// Auth guards the /api/v1 routes. The key is read from headerName (the
// api_key_header setting) and then from the api_key cookie; it must match
// one of apiKeys after trimming. Missing keys get 401, unknown keys 403.
// CORS preflights and publicPaths pass through.
func Auth(apiKeys []string, headerName string) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := requestKey(r, headerName)
			if key == "" {
				models.WriteError(w, http.StatusUnauthorized, "API key required")
				return
			}
			if !knownKey(keys, key) {
				log.Debug().Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("rejected api key")
				models.WriteError(w, http.StatusForbidden, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requestKey(r *http.Request, headerName string) string {
	if key := strings.TrimSpace(r.Header.Get(headerName)); key != "" {
		return key
	}
	if c, err := r.Cookie(apiKeyCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// knownKey compares against every configured key in constant time.
func knownKey(keys [][]byte, key string) bool {
	found := 0
	for _, k := range keys {
		found |= subtle.ConstantTimeCompare(k, []byte(key))
	}
	return found == 1
}
