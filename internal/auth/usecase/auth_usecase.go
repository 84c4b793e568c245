package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agency-cms/internal/auth/config"
	"agency-cms/internal/auth/domain/model"
	"agency-cms/internal/auth/domain/repository"
	apperrors "agency-cms/internal/shared/errors"
	"agency-cms/internal/shared/logger"
	"agency-cms/internal/shared/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// AuthUsecaseInterface defines the contract for admin authentication use cases.
type AuthUsecaseInterface interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, tokenString string) error
	ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error)
	GetAdminByID(ctx context.Context, adminID string) (*model.Admin, error)
	EnsureBootstrapAdmin(ctx context.Context) (bool, error)
}

// LoginRequest represents the login request
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	UserAgent string `json:"-"`
}

// LoginResponse is returned on successful login
type LoginResponse struct {
	Admin       *model.Admin `json:"admin"`
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}

// AuthUsecase implements the authentication logic.
type AuthUsecase struct {
	repo     repository.AuthRepository
	tokenSvc repository.TokenService
	config   *config.Config
	logger   logger.Logger
}

// NewAuthUsecase creates a new instance of AuthUsecase.
func NewAuthUsecase(repo repository.AuthRepository, tokenSvc repository.TokenService, cfg *config.Config, log logger.Logger) *AuthUsecase {
	return &AuthUsecase{
		repo:     repo,
		tokenSvc: tokenSvc,
		config:   cfg,
		logger:   log.WithComponent("auth"),
	}
}

func invalidCredentials() error {
	return apperrors.NewAuthenticationError("Invalid email or password").WithCause(apperrors.ErrInvalidCredentials)
}

func invalidToken() error {
	return apperrors.NewAuthenticationError("Invalid token").WithCause(apperrors.ErrInvalidToken)
}

// Login verifies credentials and opens a session
func (uc *AuthUsecase) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	req.Email = model.NormalizeEmail(req.Email)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	admin, err := uc.repo.GetAdminByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, model.ErrAdminNotFound) {
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, invalidCredentials()
	}
	if !admin.IsActive {
		return nil, apperrors.NewAuthenticationError("Account is inactive").WithCause(model.ErrAdminInactive)
	}

	session := &model.Session{
		ID:        uuid.NewString(),
		AdminID:   admin.ID,
		UserAgent: req.UserAgent,
		ExpiresAt: time.Now().UTC().Add(uc.config.AccessTokenTTL),
	}
	token, err := uc.tokenSvc.GenerateToken(ctx, admin.ID, admin.Email, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	if err := uc.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := uc.repo.TouchLastLogin(ctx, admin.ID); err != nil {
		uc.logger.Warnf("Failed to record last login for admin %s: %v", admin.ID, err)
	}

	uc.logger.WithFields(map[string]interface{}{"admin_id": admin.ID}).Info("Admin logged in")
	return &LoginResponse{Admin: admin.Sanitized(), AccessToken: token, ExpiresAt: session.ExpiresAt}, nil
}

// Logout revokes the session behind tokenString
func (uc *AuthUsecase) Logout(ctx context.Context, tokenString string) error {
	claims, err := uc.tokenSvc.ValidateToken(ctx, tokenString)
	if err != nil {
		return invalidToken()
	}

	if err := uc.repo.DeleteSession(ctx, claims.ID); err != nil && !errors.Is(err, model.ErrSessionNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ValidateToken validates a JWT string and checks its session is still open
func (uc *AuthUsecase) ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error) {
	claims, err := uc.tokenSvc.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, invalidToken()
	}

	session, err := uc.repo.GetSessionByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, invalidToken()
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.AdminID != claims.AdminID || session.Expired(time.Now().UTC()) {
		return nil, invalidToken()
	}
	return claims, nil
}

// GetAdminByID returns the admin without its password hash
func (uc *AuthUsecase) GetAdminByID(ctx context.Context, adminID string) (*model.Admin, error) {
	if adminID == "" {
		return nil, apperrors.NewValidationError("admin ID is required")
	}
	admin, err := uc.repo.GetAdminByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, model.ErrAdminNotFound) {
			return nil, apperrors.NewNotFoundError("admin")
		}
		return nil, err
	}
	return admin.Sanitized(), nil
}

// EnsureBootstrapAdmin creates the configured admin when the admins collection
// is empty. It reports whether an account was created.
func (uc *AuthUsecase) EnsureBootstrapAdmin(ctx context.Context) (bool, error) {
	if uc.config.AdminEmail == "" {
		return false, nil
	}
	if len(uc.config.AdminPassword) < minPasswordLength {
		return false, fmt.Errorf("ADMIN_PASSWORD must be at least %d characters", minPasswordLength)
	}

	count, err := uc.repo.CountAdmins(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(uc.config.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.Admin{
		ID:           uuid.NewString(),
		Email:        model.NormalizeEmail(uc.config.AdminEmail),
		Name:         uc.config.AdminName,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := uc.repo.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, model.ErrAdminExists) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create admin: %w", err)
	}

	uc.logger.Infof("Bootstrap admin %s created", admin.Email)
	return true, nil
}

var _ AuthUsecaseInterface = (*AuthUsecase)(nil)
