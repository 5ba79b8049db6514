package webapi

import (
	"context"
	logger "log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/routehaul/hosplan/business/auth"
	"github.com/routehaul/hosplan/foundation/apperror"
)

//ctxKey keeps context values private to this package.
type ctxKey int

const userIDKey ctxKey = 1

//userIDFrom returns the authenticated user attached by the auth middleware.
func userIDFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

//makeAuthMiddleware verifies the bearer token and attaches the caller's user
//id to the request context.
func makeAuthMiddleware(log *logger.Logger, tokens *auth.Tokens) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				respondError(log, w, apperror.New(apperror.Unauthenticated, "missing access token"))
				return
			}
			userID, _, err := tokens.VerifyAccess(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				respondError(log, w, err)
				return
			}
			next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
		}
	}
}

//deadlineMiddleware bounds every request so adapter calls cannot outlive the
//caller's patience.
func deadlineMiddleware(timeout time.Duration, next http.Handler) http.Handler {
	if timeout <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

//corsMiddleware answers preflight requests and stamps allowed origins.
func corsMiddleware(allowed []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && originAllowed(allowed, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}
