package auth

import (
	"context"
	"fmt"

	authhttp "agency-cms/internal/auth/adapter/http"
	"agency-cms/internal/auth/adapter/persistence/mongodb"
	"agency-cms/internal/auth/adapter/security"
	"agency-cms/internal/auth/config"
	"agency-cms/internal/auth/domain/repository"
	"agency-cms/internal/auth/usecase"
	"agency-cms/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuthModule represents the complete admin authentication module
type AuthModule struct {
	repository repository.AuthRepository
	tokenSvc   repository.TokenService
	usecase    usecase.AuthUsecaseInterface
	handler    *authhttp.AuthHTTPHandler
	middleware *authhttp.AuthMiddleware
	config     *config.Config
}

// NewAuthModule creates a new authentication module instance
func NewAuthModule(ctx context.Context, db *mongo.Database, cfg *config.Config, log logger.Logger) (*AuthModule, error) {
	authRepo, err := mongodb.NewMongoAuthRepository(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth repository: %w", err)
	}
	return NewAuthModuleWithRepository(authRepo, cfg, log)
}

// NewAuthModuleWithRepository assembles the module on top of any repository
func NewAuthModuleWithRepository(repo repository.AuthRepository, cfg *config.Config, log logger.Logger) (*AuthModule, error) {
	tokenSvc, err := security.NewJWTokenService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	authUsecase := usecase.NewAuthUsecase(repo, tokenSvc, cfg, log)

	handler := authhttp.NewAuthHTTPHandler(authUsecase, authhttp.CookieSettings{
		Name:     cfg.CookieName,
		Path:     cfg.CookiePath,
		Domain:   cfg.CookieDomain,
		MaxAge:   int(cfg.AccessTokenTTL.Seconds()),
		Secure:   cfg.CookieSecure,
		HTTPOnly: cfg.CookieHTTPOnly,
		SameSite: cfg.CookieSameSite,
	})

	return &AuthModule{
		repository: repo,
		tokenSvc:   tokenSvc,
		usecase:    authUsecase,
		handler:    handler,
		middleware: authhttp.NewAuthMiddleware(authUsecase, cfg.CookieName),
		config:     cfg,
	}, nil
}

// Bootstrap creates the configured admin account if none exists
func (am *AuthModule) Bootstrap(ctx context.Context) (bool, error) {
	return am.usecase.EnsureBootstrapAdmin(ctx)
}

// RegisterRoutes registers authentication routes under /auth
func (am *AuthModule) RegisterRoutes(router fiber.Router) {
	limiter := authhttp.RateLimiter(am.config.LoginRateLimit, am.config.LoginRateWindow)
	am.handler.SetupAuthRoutesWithMiddleware(router.Group("/auth"), am.middleware, limiter)
}

// GetUsecase returns the auth usecase for external access
func (am *AuthModule) GetUsecase() usecase.AuthUsecaseInterface {
	return am.usecase
}

// GetTokenService returns the token service
func (am *AuthModule) GetTokenService() repository.TokenService {
	return am.tokenSvc
}

// GetMiddleware returns the auth middleware
func (am *AuthModule) GetMiddleware() *authhttp.AuthMiddleware {
	return am.middleware
}
