package http

import (
	"agency-cms/internal/shared/web"
	"agency-cms/internal/site/usecase"

	"github.com/gofiber/fiber/v2"
)

// Guard protects the admin routes
type Guard interface {
	Protect() fiber.Handler
}

// SiteHandler serves page payloads, the contact form and the admin inbox
type SiteHandler struct {
	usecase    usecase.SiteUsecaseInterface
	cookieName string
}

// NewSiteHandler creates a new site handler. cookieName is the visitor
// identifier cookie linked to contact submissions.
func NewSiteHandler(uc usecase.SiteUsecaseInterface, cookieName string) *SiteHandler {
	return &SiteHandler{usecase: uc, cookieName: cookieName}
}

// RegisterRoutes mounts the public and admin routes on the /api router
func (h *SiteHandler) RegisterRoutes(router fiber.Router, guard Guard) {
	router.Get("/pages/:page", h.GetPage)
	router.Post("/contact", h.SubmitContact)

	admin := router.Group("/admin/contacts", guard.Protect())
	admin.Get("/", h.ListContacts)
	admin.Put("/:id/read", h.MarkRead)
	admin.Delete("/:id", h.DeleteContact)
}

// GetPage handles GET /api/pages/:page
func (h *SiteHandler) GetPage(c *fiber.Ctx) error {
	payload, err := h.usecase.Page(c.UserContext(), c.Params("page"))
	if err != nil {
		return err
	}
	return c.JSON(payload)
}

// SubmitContact handles POST /api/contact
func (h *SiteHandler) SubmitContact(c *fiber.Ctx) error {
	var req usecase.ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return web.BadRequest("Invalid request body")
	}
	req.VisitorID = c.Cookies(h.cookieName)

	msg, err := h.usecase.SubmitContact(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Thank you for your message. We will get back to you soon.",
		"id":      msg.ID.Hex(),
	})
}

// ListContacts handles GET /api/admin/contacts
func (h *SiteHandler) ListContacts(c *fiber.Ctx) error {
	resp, err := h.usecase.ListContacts(c.UserContext(), web.QueryBool(c, "read"), web.ParsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

type markReadRequest struct {
	Read *bool `json:"read"`
}

// MarkRead handles PUT /api/admin/contacts/:id/read. An empty body marks the
// message read.
func (h *SiteHandler) MarkRead(c *fiber.Ctx) error {
	var req markReadRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return web.BadRequest("Invalid request body")
		}
	}
	read := req.Read == nil || *req.Read

	msg, err := h.usecase.MarkRead(c.UserContext(), c.Params("id"), read)
	if err != nil {
		return err
	}
	return c.JSON(msg)
}

// DeleteContact handles DELETE /api/admin/contacts/:id
func (h *SiteHandler) DeleteContact(c *fiber.Ctx) error {
	if err := h.usecase.DeleteContact(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Contact message deleted successfully"})
}
