package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/schedsync/schedsync/internal/shared"
)

// Logging returns middleware that logs each request with method, path,
// duration and a generated request id.
func Logging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := shared.GenerateID()
			w.Header().Set("X-Request-ID", reqID)

			next.ServeHTTP(w, r)

			logger.Info("request",
				"id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(start),
			)
		})
	}
}

// CORS returns middleware that allows cross-origin requests. The upload
// endpoint is driven by a browser client on a different origin.
func CORS() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
