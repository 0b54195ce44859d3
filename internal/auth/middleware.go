package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Stillgh/sentiment-analysis/internal/database"

	"gorm.io/gorm"
)

type contextKey struct{}

var accountKey contextKey

// Middleware authenticates a bearer token and loads the caller's account into
// the request context. Disabled accounts are rejected here, before any
// handler runs.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenStr, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenStr == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		accountId, err := s.VerifyToken(tokenStr)
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		account, err := database.GetAccount(r.Context(), s.db, accountId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				http.Error(w, "account not found", http.StatusUnauthorized)
			} else {
				http.Error(w, "error loading account", http.StatusInternalServerError)
			}
			return
		}

		if account.Disabled {
			http.Error(w, "account is disabled", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), accountKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must be mounted after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, ok := AccountFrom(r.Context())
		if !ok || account.Role != database.RoleAdmin {
			http.Error(w, "admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func AccountFrom(ctx context.Context) (database.Account, bool) {
	account, ok := ctx.Value(accountKey).(database.Account)
	return account, ok
}
