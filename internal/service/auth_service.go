package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/windy-novel-api/internal/config"
	"github.com/windy-novel-api/internal/models"
	"github.com/windy-novel-api/internal/repository"
	"github.com/windy-novel-api/internal/validation"
)

// RegisterInput carries a new account submission
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

const (
	minPasswordLen = 6
	minUsernameLen = 3
	maxUsernameLen = 30
	bcryptCost     = 12
)

// tokenClaims is the JWT payload issued on login and registration
type tokenClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// authService implements AuthService
type authService struct {
	users repository.UserRepository
	cfg   *config.AuthConfig
	log   zerolog.Logger
}

func newAuthService(users repository.UserRepository, cfg *config.AuthConfig, log zerolog.Logger) AuthService {
	return &authService{
		users: users,
		cfg:   cfg,
		log:   log.With().Str("service", "auth").Logger(),
	}
}

// Register creates a new account and returns it with a signed token
func (s *authService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if err := validateRegistration(username, email, in.Password); err != nil {
		return nil, "", err
	}

	existing, err := s.users.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		if existing.Email == email {
			return nil, "", &DuplicateError{Message: "an account with this email already exists"}
		}
		return nil, "", &DuplicateError{Message: "this username is already taken"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:    username,
		Email:       email,
		Password:    string(hash),
		Role:        models.RoleUser,
		Preferences: models.DefaultPreferences(),
		IsActive:    true,
		LastLogin:   time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create account: %w", err)
	}

	token, err := s.sign(user.ID)
	if err != nil {
		return nil, "", err
	}

	s.log.Info().Str("user_id", user.ID.Hex()).Str("username", username).Msg("Account registered")
	return user, token, nil
}

// Login authenticates by username or email and returns a fresh token
func (s *authService) Login(ctx context.Context, login, password string) (*models.User, string, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, "", &ValidationError{Field: "login", Message: "login and password are required"}
	}

	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up account: %w", err)
	}
	if user == nil {
		return nil, "", &PermissionError{Action: "invalid credentials"}
	}
	if !user.IsActive {
		return nil, "", &PermissionError{Action: "this account has been deactivated"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", &PermissionError{Action: "invalid credentials"}
	}

	user.LastLogin = time.Now()
	if err := s.users.Update(ctx, user); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Failed to record login time")
	}

	token, err := s.sign(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Refresh issues a new token for an already authenticated account
func (s *authService) Refresh(ctx context.Context, user *models.User) (string, error) {
	return s.sign(user.ID)
}

// ChangePassword verifies the current password before storing a new hash
func (s *authService) ChangePassword(ctx context.Context, userID primitive.ObjectID, current, next string) error {
	if len(next) < minPasswordLen {
		return &ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", minPasswordLen)}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}
	if user == nil {
		return &NotFoundError{Resource: "user"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return &PermissionError{Action: "current password is incorrect"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hash)
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.log.Info().Str("user_id", userID.Hex()).Msg("Password changed")
	return nil
}

// VerifyToken parses and validates a bearer token, then loads the account
func (s *authService) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, &PermissionError{Action: "invalid or expired token"}
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, &PermissionError{Action: "invalid or expired token"}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, &PermissionError{Action: "invalid or expired token"}
	}
	return user, nil
}

func (s *authService) sign(userID primitive.ObjectID) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		UserID: userID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func validateRegistration(username, email, password string) error {
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return &ValidationError{Field: "username", Message: fmt.Sprintf("username must be between %d and %d characters", minUsernameLen, maxUsernameLen)}
	}
	if !validation.IsUsername(username) {
		return &ValidationError{Field: "username", Message: "username may only contain letters, digits and underscores"}
	}
	if !validation.IsEmail(email) {
		return &ValidationError{Field: "email", Message: "a valid email address is required"}
	}
	if len(password) < minPasswordLen {
		return &ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", minPasswordLen)}
	}
	return nil
}
