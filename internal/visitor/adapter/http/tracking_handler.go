package http

import (
	"agency-cms/internal/shared/logger"
	"agency-cms/internal/visitor/usecase"

	"github.com/gofiber/fiber/v2"
)

// TrackResponse is returned by the tracking endpoints
type TrackResponse struct {
	Success   bool   `json:"success"`
	VisitorID string `json:"visitorId,omitempty"`
	Message   string `json:"message,omitempty"`
}

// TrackingHandler receives storage reports and page views from browsers
type TrackingHandler struct {
	usecase    usecase.VisitorUsecaseInterface
	cookieName string
	log        logger.Logger
}

// NewTrackingHandler creates a new tracking handler
func NewTrackingHandler(uc usecase.VisitorUsecaseInterface, cookieName string, log logger.Logger) *TrackingHandler {
	return &TrackingHandler{usecase: uc, cookieName: cookieName, log: log.WithComponent("tracking")}
}

// RegisterRoutes registers the public tracking routes on router (mounted at /track)
func (h *TrackingHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/storage", h.ReportStorage)
	router.Post("/pageview", h.RecordPageView)
}

// visitorID prefers the identifier cookie over the body
func (h *TrackingHandler) visitorID(c *fiber.Ctx, fromBody string) string {
	if id := c.Cookies(h.cookieName); id != "" {
		return id
	}
	return fromBody
}

func (h *TrackingHandler) fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(TrackResponse{Success: false, Message: message})
}

func (h *TrackingHandler) failFromError(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	if status >= fiber.StatusInternalServerError {
		h.log.WithContext(c.UserContext()).Errorf("Tracking request failed: %v", err)
		return h.fail(c, status, "Failed to store tracking data")
	}
	return h.fail(c, status, err.Error())
}

// ReportStorage handles POST /api/track/storage
func (h *TrackingHandler) ReportStorage(c *fiber.Ctx) error {
	var req usecase.ReportRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.VisitorID = h.visitorID(c, req.VisitorID)
	req.Metadata = requestMetadata(c)

	record, err := h.usecase.Report(c.UserContext(), req)
	if err != nil {
		return h.failFromError(c, err)
	}
	return c.JSON(TrackResponse{Success: true, VisitorID: record.VisitorID})
}

// RecordPageView handles POST /api/track/pageview
func (h *TrackingHandler) RecordPageView(c *fiber.Ctx) error {
	var req usecase.PageViewRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.VisitorID = h.visitorID(c, req.VisitorID)
	req.Metadata = requestMetadata(c)

	record, err := h.usecase.RecordPageView(c.UserContext(), req)
	if err != nil {
		return h.failFromError(c, err)
	}
	return c.JSON(TrackResponse{Success: true, VisitorID: record.VisitorID})
}
