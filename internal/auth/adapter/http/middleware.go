package http

import (
	"strings"
	"time"

	"agency-cms/internal/auth/usecase"
	"agency-cms/internal/shared/contextkeys"
	apperrors "agency-cms/internal/shared/errors"
	"agency-cms/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// AuthMiddleware provides authentication middleware for Fiber
type AuthMiddleware struct {
	usecase    usecase.AuthUsecaseInterface
	cookieName string
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(uc usecase.AuthUsecaseInterface, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		usecase:    uc,
		cookieName: cookieName,
	}
}

// CORS middleware. Credentials are only allowed for explicit origins.
func CORS(allowOrigins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Requested-With,X-Request-ID",
		AllowCredentials: allowOrigins != "*",
		MaxAge:           86400,
	})
}

// SecurityHeaders adds security headers
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	}
}

// RateLimiter limits requests per client IP, used on the login endpoint
func RateLimiter(max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.Get("X-Forwarded-For", c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Rate limit exceeded. Please try again later.",
			})
		},
	})
}

// RequestID assigns X-Request-ID
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		ContextKey: string(contextkeys.RequestIDKey),
	})
}

// RequestContext copies the request ID into the user context so loggers pick
// it up. It must run after RequestID.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals(string(contextkeys.RequestIDKey)).(string); ok && id != "" {
			c.SetUserContext(utils.WithRequestID(c.UserContext(), id))
		}
		return c.Next()
	}
}

// Protect returns middleware that requires an authenticated admin
func (m *AuthMiddleware) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := m.extractToken(c)
		if token == "" {
			return apperrors.NewAuthenticationError("Authentication required").WithCause(apperrors.ErrUnauthorized)
		}

		claims, err := m.usecase.ValidateToken(c.UserContext(), token)
		if err != nil {
			return err
		}

		ctx := utils.WithAdminID(c.UserContext(), claims.AdminID)
		ctx = utils.WithAdminEmail(ctx, claims.Email)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// OptionalAuth validates a token when present and otherwise continues anonymously
func (m *AuthMiddleware) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := m.extractToken(c)
		if token == "" {
			return c.Next()
		}

		claims, err := m.usecase.ValidateToken(c.UserContext(), token)
		if err != nil {
			return c.Next()
		}

		ctx := utils.WithAdminID(c.UserContext(), claims.AdminID)
		ctx = utils.WithAdminEmail(ctx, claims.Email)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// extractToken reads the token from the Authorization header, the auth cookie
// or the token query parameter (WebSocket clients), in that order.
func (m *AuthMiddleware) extractToken(c *fiber.Ctx) string {
	if authHeader := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if token := c.Cookies(m.cookieName); token != "" {
		return token
	}
	return c.Query("token")
}

// IsAdmin reports whether the request carries a valid admin token
func IsAdmin(c *fiber.Ctx) bool {
	return utils.HasAdminID(c.UserContext())
}
