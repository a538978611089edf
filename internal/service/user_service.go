package service

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/MK-codes365/greenwipe/internal/auth"
	"github.com/MK-codes365/greenwipe/internal/config"
	"github.com/MK-codes365/greenwipe/internal/crypto"
	"github.com/MK-codes365/greenwipe/internal/database"
	"github.com/MK-codes365/greenwipe/internal/database/models"
	"github.com/google/uuid"
)

const jwtSecretKey = "jwt_secret"

// UserService handles operator accounts and tokens
type UserService struct {
	db  *database.Database
	cfg *config.Config
}

// NewUserService creates a new user service
func NewUserService(db *database.Database, cfg *config.Config) *UserService {
	return &UserService{
		db:  db,
		cfg: cfg,
	}
}

// CreateUserRequest represents a request to create a user
type CreateUserRequest struct {
	Username string
	Password string
	Role     string
}

// CreateUser creates a new user
func (s *UserService) CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = auth.RoleOperator
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.db.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// AuthenticateUser checks the credentials and returns a signed token
func (s *UserService) AuthenticateUser(ctx context.Context, username, password string) (string, error) {
	user, err := s.db.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.issueToken(user)
}

func (s *UserService) issueToken(user *models.User) (string, error) {
	token, err := auth.GenerateToken(
		user.ID,
		user.Username,
		user.Role,
		s.cfg.JWT.Secret,
		s.cfg.JWT.Issuer,
		s.cfg.JWT.Expiration,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// SetupRequest represents initial setup request
type SetupRequest struct {
	Username string
	Password string
}

// SetupResponse contains setup response data
type SetupResponse struct {
	User  *models.User
	Token string
}

// PerformInitialSetup creates the first administrator. It also generates and
// stores a JWT signing secret when none is configured.
func (s *UserService) PerformInitialSetup(ctx context.Context, req *SetupRequest) (*SetupResponse, error) {
	isComplete, err := s.db.IsSetupComplete(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check setup status: %w", err)
	}
	if isComplete {
		return nil, ErrSetupComplete
	}

	if s.cfg.JWT.Secret == "" {
		secret, err := crypto.GenerateRandomKey(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		s.cfg.JWT.Secret = hex.EncodeToString(secret)
		if err := s.db.SetSystemConfig(ctx, jwtSecretKey, s.cfg.JWT.Secret); err != nil {
			return nil, fmt.Errorf("failed to store JWT secret: %w", err)
		}
	}

	user, err := s.CreateUser(ctx, &CreateUserRequest{
		Username: req.Username,
		Password: req.Password,
		Role:     auth.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	return &SetupResponse{
		User:  user,
		Token: token,
	}, nil
}

// IsSetupComplete checks if initial setup has been completed
func (s *UserService) IsSetupComplete(ctx context.Context) (bool, error) {
	return s.db.IsSetupComplete(ctx)
}

// LoadJWTSecret loads the stored JWT secret unless one is configured
func (s *UserService) LoadJWTSecret(ctx context.Context) error {
	if s.cfg.JWT.Secret != "" {
		return nil
	}

	secret, err := s.db.GetSystemConfig(ctx, jwtSecretKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("failed to get JWT secret: %w", err)
	}

	s.cfg.JWT.Secret = secret
	return nil
}
