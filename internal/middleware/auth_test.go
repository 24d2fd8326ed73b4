package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/services"
)

type memUserRepo struct {
	users map[string]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*models.User)}
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	return r.users[id], nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Add(_ context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := GetUserFromContext(r.Context()); user != nil {
			w.Write([]byte(user.Username))
			return
		}
		w.Write([]byte("anonymous"))
	})
}

func TestBearerAuth(t *testing.T) {
	t.Run("valid token resolves the user", func(t *testing.T) {
		repo := newMemUserRepo()
		auth := services.NewAuthService(repo, "secret", time.Hour, true, "default")
		ctx := context.Background()
		_, err := auth.Register(ctx, &models.RegisterRequest{Username: "alice", Password: "pw"})
		require.NoError(t, err)
		token, err := auth.Login(ctx, &models.LoginRequest{Username: "alice", Password: "pw"})
		require.NoError(t, err)

		handler := BearerAuth(auth, repo, nil)(echoUser())
		req := httptest.NewRequest(http.MethodGet, "/api/collection", nil)
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alice", rec.Body.String())
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		repo := newMemUserRepo()
		auth := services.NewAuthService(repo, "secret", time.Hour, true, "default")

		handler := BearerAuth(auth, repo, nil)(echoUser())
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/collection", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad token is rejected", func(t *testing.T) {
		repo := newMemUserRepo()
		auth := services.NewAuthService(repo, "secret", time.Hour, true, "default")

		handler := BearerAuth(auth, repo, nil)(echoUser())
		req := httptest.NewRequest(http.MethodGet, "/api/collection", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("skip paths pass through without a token", func(t *testing.T) {
		repo := newMemUserRepo()
		auth := services.NewAuthService(repo, "secret", time.Hour, true, "default")

		handler := BearerAuth(auth, repo, []string{"/api/auth/status"})(echoUser())
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/status", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "anonymous", rec.Body.String())
	})

	t.Run("disabled auth resolves the default user", func(t *testing.T) {
		repo := newMemUserRepo()
		auth := services.NewAuthService(repo, "secret", time.Hour, false, "default")

		handler := BearerAuth(auth, repo, nil)(echoUser())
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/collection", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "default", rec.Body.String())
	})
}

func TestLoginRateLimiter(t *testing.T) {
	limiter := NewLoginRateLimiter(1, 2)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// Burst of 2 is allowed, the third attempt from the same address trips
	// the limiter.
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1111"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:2222"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:3333"))

	// A different address has its own bucket.
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1111"))
}
