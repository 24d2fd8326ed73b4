package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/repository"
	"github.com/rscoates/magic-library/internal/services"
)

type contextKey string

const UserContextKey contextKey = "user"

// GetUserFromContext retrieves the authenticated user from request context
func GetUserFromContext(ctx context.Context) *models.User {
	if user, ok := ctx.Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// UserID returns the authenticated user's id, or "" when unauthenticated.
func UserID(ctx context.Context) string {
	if user := GetUserFromContext(ctx); user != nil {
		return user.ID
	}
	return ""
}

// BearerAuth verifies JWT bearer tokens and injects the user into the request
// context. When auth is disabled every request resolves to the default user,
// so handlers never see an empty user id.
func BearerAuth(auth *services.AuthService, userRepo repository.UserRepo, skipPaths []string) func(http.Handler) http.Handler {
	skipSet := make(map[string]bool)
	for _, p := range skipPaths {
		skipSet[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipSet[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			if !auth.Enabled() {
				user, err := auth.DefaultUser(r.Context())
				if err != nil {
					unauthorized(w, "Failed to resolve default user.")
					return
				}
				ctx := context.WithValue(r.Context(), UserContextKey, user)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, "Authorization header is required.")
				return
			}

			userID, err := auth.VerifyToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				unauthorized(w, "Invalid or expired token.")
				return
			}

			user, err := userRepo.GetByID(r.Context(), userID)
			if err != nil || user == nil {
				unauthorized(w, "Invalid or expired token.")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
