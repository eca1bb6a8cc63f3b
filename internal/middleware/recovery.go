// Package middleware provides HTTP middleware for the monitoring endpoint.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/prestamax/chatbot/pkg/logger"
)

// Recovery returns a middleware that recovers from handler panics, logs them
// with a stack trace and returns a JSON 500.
func Recovery(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					handlePanic(w, r, err, log)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func handlePanic(w http.ResponseWriter, r *http.Request, err interface{}, log logger.Logger) {
	log.Error("HTTP request panic recovered",
		logger.StringField("panic_error", fmt.Sprintf("%v", err)),
		logger.StringField("method", r.Method),
		logger.StringField("path", r.URL.Path),
		logger.StringField("client_ip", clientIP(r)),
		logger.StringField("stack_trace", string(debug.Stack())))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Connection", "close")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"error":"Internal server error","code":"INTERNAL_ERROR"}`))
}

// clientIP extracts the real client IP, preferring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx != -1 {
			return xff[:idx]
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
