package services

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/repository"
)

// AuthService handles registration, login and token verification. When auth
// is disabled it resolves every request to a single default user instead.
type AuthService struct {
	userRepo        repository.UserRepo
	jwtSecret       []byte
	tokenTTL        time.Duration
	authEnabled     bool
	defaultUsername string
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepo, jwtSecret string, tokenTTL time.Duration, authEnabled bool, defaultUsername string) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		jwtSecret:       []byte(jwtSecret),
		tokenTTL:        tokenTTL,
		authEnabled:     authEnabled,
		defaultUsername: defaultUsername,
	}
}

// Enabled reports whether authentication is enforced.
func (s *AuthService) Enabled() bool {
	return s.authEnabled
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if !s.authEnabled {
		return nil, models.ErrRegistrationOff
	}
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" {
		return nil, models.ErrUsernameRequired
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, models.ErrUsernameTaken
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := models.NewUser(username)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	if err := s.userRepo.Add(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and issues a signed token
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.Token, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		// Burn a hash comparison anyway so missing users and wrong
		// passwords take the same time.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), prehash(req.Password))
		return nil, models.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), prehash(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &models.Token{AccessToken: token, TokenType: "bearer"}, nil
}

// VerifyToken validates a bearer token and returns the user id it carries.
func (s *AuthService) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", models.ErrInvalidCredentials
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", models.ErrInvalidCredentials
	}
	return claims.Subject, nil
}

// DefaultUser returns the single user every request maps to when auth is
// disabled, creating it on first use.
func (s *AuthService) DefaultUser(ctx context.Context) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, s.defaultUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to look up default user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	user, err = models.NewUser(s.defaultUsername)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	if err := s.userRepo.Add(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create default user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// prehash runs the password through SHA-256 and base64 before bcrypt, lifting
// bcrypt's 72-byte input limit.
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
