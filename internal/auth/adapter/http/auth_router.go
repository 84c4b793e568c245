package http

import (
	"time"

	"agency-cms/internal/auth/usecase"
	apperrors "agency-cms/internal/shared/errors"
	"agency-cms/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
)

// CookieSettings configures the auth cookie written on login
type CookieSettings struct {
	Name     string
	Path     string
	Domain   string
	MaxAge   int
	Secure   bool
	HTTPOnly bool
	SameSite string
}

// AuthHTTPHandler handles HTTP requests for admin authentication
type AuthHTTPHandler struct {
	usecase usecase.AuthUsecaseInterface
	cookie  CookieSettings
}

// NewAuthHTTPHandler creates a new authentication HTTP handler
func NewAuthHTTPHandler(uc usecase.AuthUsecaseInterface, cookie CookieSettings) *AuthHTTPHandler {
	return &AuthHTTPHandler{usecase: uc, cookie: cookie}
}

// SetupAuthRoutesWithMiddleware registers /login, /logout and /me on router
func (h *AuthHTTPHandler) SetupAuthRoutesWithMiddleware(router fiber.Router, middleware *AuthMiddleware, loginLimiter fiber.Handler) {
	if loginLimiter != nil {
		router.Post("/login", loginLimiter, h.Login)
	} else {
		router.Post("/login", h.Login)
	}

	protected := router.Group("/", middleware.Protect())
	protected.Post("/logout", h.Logout(middleware))
	protected.Get("/me", h.GetCurrentAdmin)
}

// Login handles admin login
func (h *AuthHTTPHandler) Login(c *fiber.Ctx) error {
	var req usecase.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body")
	}
	req.UserAgent = c.Get(fiber.HeaderUserAgent)

	response, err := h.usecase.Login(c.UserContext(), req)
	if err != nil {
		return err
	}

	h.setCookie(c, response.AccessToken)
	return c.JSON(response)
}

// Logout revokes the current session and clears the cookie
func (h *AuthHTTPHandler) Logout(middleware *AuthMiddleware) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := h.usecase.Logout(c.UserContext(), middleware.extractToken(c)); err != nil {
			return err
		}

		h.clearCookie(c)
		return c.JSON(fiber.Map{
			"message": "Logged out successfully",
		})
	}
}

// GetCurrentAdmin returns the authenticated admin
func (h *AuthHTTPHandler) GetCurrentAdmin(c *fiber.Ctx) error {
	adminID, err := utils.GetAdminIDFromContext(c.UserContext())
	if err != nil {
		return apperrors.NewAuthenticationError("Unauthorized")
	}

	admin, err := h.usecase.GetAdminByID(c.UserContext(), adminID)
	if err != nil {
		return err
	}
	return c.JSON(admin)
}

func (h *AuthHTTPHandler) setCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     h.cookie.Path,
		Domain:   h.cookie.Domain,
		MaxAge:   h.cookie.MaxAge,
		Secure:   h.cookie.Secure,
		HTTPOnly: h.cookie.HTTPOnly,
		SameSite: h.cookie.SameSite,
		Expires:  time.Now().Add(time.Duration(h.cookie.MaxAge) * time.Second),
	})
}

func (h *AuthHTTPHandler) clearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     h.cookie.Path,
		Domain:   h.cookie.Domain,
		MaxAge:   -1,
		Secure:   h.cookie.Secure,
		HTTPOnly: h.cookie.HTTPOnly,
		SameSite: h.cookie.SameSite,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}
