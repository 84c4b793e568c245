package http

import (
	apperrors "agency-cms/internal/shared/errors"
	"agency-cms/internal/shared/web"
	"agency-cms/internal/visitor/usecase"

	"github.com/gofiber/fiber/v2"
)

var sortableFields = []string{"lastVisit", "firstVisit", "visitCount", "createdAt", "status"}

func errorStatus(err error) int {
	return apperrors.HTTPStatus(err)
}

// AdminHandler exposes visitor records to authenticated admins
type AdminHandler struct {
	usecase usecase.VisitorUsecaseInterface
}

// NewAdminHandler creates a new admin visitor handler
func NewAdminHandler(uc usecase.VisitorUsecaseInterface) *AdminHandler {
	return &AdminHandler{usecase: uc}
}

// RegisterRoutes registers the admin routes on an already protected router
func (h *AdminHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.List)
	router.Get("/stats", h.Stats)
	router.Get("/:visitorId", h.Get)
	router.Put("/:visitorId/status", h.UpdateStatus)
	router.Delete("/:visitorId", h.Delete)
}

// List handles GET /api/admin/visitors
func (h *AdminHandler) List(c *fiber.Ctx) error {
	sort := web.ParseSort(c, sortableFields, web.Sort{Field: "lastVisit", Desc: true})
	resp, err := h.usecase.List(c.UserContext(), usecase.ListRequest{
		Status:   c.Query("status"),
		Search:   c.Query("q"),
		Segment:  c.Query("segment"),
		SortBy:   sort.Field,
		SortDesc: sort.Desc,
		Page:     web.ParsePage(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Stats handles GET /api/admin/visitors/stats
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.usecase.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// Get handles GET /api/admin/visitors/:visitorId
func (h *AdminHandler) Get(c *fiber.Ctx) error {
	record, err := h.usecase.Get(c.UserContext(), c.Params("visitorId"))
	if err != nil {
		return err
	}
	return c.JSON(record)
}

// UpdateStatus handles PUT /api/admin/visitors/:visitorId/status
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return web.BadRequest("Invalid request body")
	}

	record, err := h.usecase.UpdateStatus(c.UserContext(), c.Params("visitorId"), body.Status)
	if err != nil {
		return err
	}
	return c.JSON(record)
}

// Delete handles DELETE /api/admin/visitors/:visitorId
func (h *AdminHandler) Delete(c *fiber.Ctx) error {
	if err := h.usecase.Delete(c.UserContext(), c.Params("visitorId")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Visitor deleted successfully"})
}
