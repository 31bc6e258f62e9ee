// Package service provides the business logic of the document-sharing
// server, delegating persistence to repository interfaces.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/unidocs/internal/apperr"
	"github.com/atinyakov/unidocs/internal/models"
	"github.com/atinyakov/unidocs/internal/repository"
)

// AuthRepository defines the persistence operations
// required by the authentication service.
type AuthRepository interface {
	// CreateUser inserts a user and fills its ID. A taken email yields
	// repository.ErrDuplicate.
	CreateUser(ctx context.Context, u *models.User) error
	// FindUserByEmail returns sql.ErrNoRows when no user matches.
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	// FindUserByID returns sql.ErrNoRows when no user matches.
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthConfig configures token issuing.
type AuthConfig struct {
	Secret     string
	Expiration time.Duration
}

// AuthService implements registration, login and token validation.
type AuthService struct {
	repo      AuthRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService. A nil validator or logger is
// replaced by a default.
func NewAuthService(repo AuthRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiration <= 0 {
		config.Expiration = 24 * time.Hour
	}
	return &AuthService{repo: repo, validator: validate, logger: logger, config: config, now: time.Now}
}

// Register creates an account and logs it in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrValidation, "required fields: name, surname, email, password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal, "failed to hash password")
	}

	user := &models.User{
		Name:          req.Name,
		Surname:       req.Surname,
		Email:         req.Email,
		PasswordHash:  string(hash),
		Role:          req.Role,
		InstitutionID: req.InstitutionID,
		ProgramID:     req.ProgramID,
		Level:         req.Level,
	}
	if user.Role == "" {
		user.Role = models.RoleStudent
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Clone(apperr.ErrConflict, "email already in use")
		}
		return nil, apperr.Wrap(err, apperr.ErrInternal, "failed to create user")
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("role", user.Role))

	return s.issue(user)
}

// Login checks credentials and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrValidation, "email and password required")
	}

	user, err := s.repo.FindUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, apperr.Wrap(err, apperr.ErrInternal, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}

	return s.issue(user)
}

// Me returns the identity behind a validated token.
func (s *AuthService) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Clone(apperr.ErrUnauthorized, "user not found")
		}
		return nil, apperr.Wrap(err, apperr.ErrInternal, "failed to load user")
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*models.AuthResponse, error) {
	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal, "failed to create access token")
	}
	return &models.AuthResponse{Token: token, User: *user}, nil
}

// GenerateToken signs an HS256 token carrying the user's id and role.
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := s.now().UTC()
	claims := models.Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiration)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(err, apperr.ErrUnauthorized, "token expired")
		}
		return nil, apperr.Wrap(err, apperr.ErrUnauthorized, "invalid token")
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		return nil, apperr.Clone(apperr.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}
