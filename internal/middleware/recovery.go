package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"github.com/lrsystem/lrsystem/internal/models"
)

// Recovery turns a handler panic into a 500 and logs the stack with the
// request id. It must run before RequestID sets the id, so the id is read
// from the header as a fallback.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				id := GetRequestID(r.Context())
				if id == "" {
					id = w.Header().Get("X-Request-ID")
				}
				log.Error().
					Interface("panic", rec).
					Str("stack", string(debug.Stack())).
					Str("request_id", id).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("panic recovered")
				models.WriteError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
