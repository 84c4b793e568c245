package http

import (
	"fmt"
	"strings"

	"agency-cms/internal/content/domain/model"
	"agency-cms/internal/content/usecase"
	"agency-cms/internal/shared/utils"
	"agency-cms/internal/shared/web"

	"github.com/gofiber/fiber/v2"
)

// Guard is the admin authentication the handlers depend on
type Guard interface {
	Protect() fiber.Handler
	OptionalAuth() fiber.Handler
}

// ContentHandler serves the REST endpoints of one content type
type ContentHandler[T model.Document] struct {
	usecase usecase.ContentUsecaseInterface[T]
	newDoc  func() T
	desc    model.Descriptor
}

// NewContentHandler creates a handler. newDoc returns an empty document to
// decode create payloads into.
func NewContentHandler[T model.Document](uc usecase.ContentUsecaseInterface[T], newDoc func() T) *ContentHandler[T] {
	return &ContentHandler[T]{usecase: uc, newDoc: newDoc, desc: uc.Descriptor()}
}

// RegisterRoutes mounts /<name> on router. Reads are public, mutations
// require an admin.
func (h *ContentHandler[T]) RegisterRoutes(router fiber.Router, guard Guard) {
	g := router.Group("/" + h.desc.Name)

	g.Get("/", guard.OptionalAuth(), h.List)
	if h.desc.HasSlug {
		g.Get("/slug/:slug", guard.OptionalAuth(), h.GetBySlug)
	}
	g.Put("/reorder", guard.Protect(), h.Reorder)
	g.Get("/:id", guard.OptionalAuth(), h.Get)
	g.Post("/", guard.Protect(), h.Create)
	g.Put("/:id", guard.Protect(), h.Update)
	g.Delete("/:id", guard.Protect(), h.Delete)
}

// includeInactive is true for ?all=true from an authenticated admin
func includeInactive(c *fiber.Ctx) bool {
	all := web.QueryBool(c, "all")
	return all != nil && *all && utils.HasAdminID(c.UserContext())
}

// List handles GET /api/<name>
func (h *ContentHandler[T]) List(c *fiber.Ctx) error {
	sort := web.ParseSort(c, h.desc.SortFields, web.Sort{Field: h.desc.OrderField})
	req := usecase.ListRequest{
		IncludeInactive: includeInactive(c),
		Category:        c.Query("category"),
		Featured:        web.QueryBool(c, "featured"),
		Tag:             c.Query("tag"),
		Search:          c.Query("q"),
		SortBy:          sort.Field,
		SortDesc:        sort.Desc,
		Page:            web.ParsePage(c),
	}
	if req.IncludeInactive {
		req.Active = web.QueryBool(c, "active")
	}

	resp, err := h.usecase.List(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Get handles GET /api/<name>/:id
func (h *ContentHandler[T]) Get(c *fiber.Ctx) error {
	doc, err := h.usecase.Get(c.UserContext(), c.Params("id"), utils.HasAdminID(c.UserContext()))
	if err != nil {
		return err
	}
	return c.JSON(doc)
}

// GetBySlug handles GET /api/<name>/slug/:slug
func (h *ContentHandler[T]) GetBySlug(c *fiber.Ctx) error {
	doc, err := h.usecase.GetBySlug(c.UserContext(), c.Params("slug"), utils.HasAdminID(c.UserContext()))
	if err != nil {
		return err
	}
	return c.JSON(doc)
}

// Create handles POST /api/<name>; documents are active unless the payload
// says otherwise
func (h *ContentHandler[T]) Create(c *fiber.Ctx) error {
	doc := h.newDoc()
	doc.GetBase().IsActive = true
	if err := c.BodyParser(doc); err != nil {
		return web.BadRequest("Invalid request body")
	}

	created, err := h.usecase.Create(c.UserContext(), doc)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Update handles PUT /api/<name>/:id. Fields missing from the payload keep
// their stored value.
func (h *ContentHandler[T]) Update(c *fiber.Ctx) error {
	updated, err := h.usecase.Update(c.UserContext(), c.Params("id"), func(doc T) error {
		if err := c.BodyParser(doc); err != nil {
			return web.BadRequest("Invalid request body")
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// Delete handles DELETE /api/<name>/:id[?hard=true]
func (h *ContentHandler[T]) Delete(c *fiber.Ctx) error {
	hard := web.QueryBool(c, "hard")
	if err := h.usecase.Delete(c.UserContext(), c.Params("id"), hard != nil && *hard); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": fmt.Sprintf("%s deleted successfully", capitalize(h.desc.Resource))})
}

// Reorder handles PUT /api/<name>/reorder {"ids": [...]}
func (h *ContentHandler[T]) Reorder(c *fiber.Ctx) error {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := c.BodyParser(&body); err != nil {
		return web.BadRequest("Invalid request body")
	}
	if err := h.usecase.Reorder(c.UserContext(), body.IDs); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Order updated successfully"})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
