package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"tastebase/tokens"
	"tastebase/utils"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

type ContextKey string

const (
	UserIDKey ContextKey = "userId"
	EmailKey  ContextKey = "email"
)

// Authenticate gates a handler behind a valid bearer token. Every
// verification failure maps to the same 401; the query never runs.
func Authenticate(svc *tokens.Service, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			utils.RespondWithError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}

		claims, err := svc.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, EmailKey, claims.Email)
		next(w, r.WithContext(ctx), ps)
	}
}

// RequestLogger tags each request with a short id and logs method,
// path, remote address and duration.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()[:8]
		w.Header().Set("X-Request-ID", id)
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s %s from %s in %v", id, r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}
