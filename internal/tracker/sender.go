package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Report is the body posted to the tracking endpoint
type Report struct {
	Timestamp   time.Time `json:"timestamp"`
	StorageData Snapshot  `json:"storageData"`
}

// Sender delivers one report for visitorID
type Sender interface {
	Send(ctx context.Context, visitorID string, report Report) error
}

// HTTPSender posts reports with the fiber client, passing the identifier in
// the visitor cookie
type HTTPSender struct {
	endpoint   string
	cookieName string
	timeout    time.Duration
}

// NewHTTPSender creates a sender for endpoint
func NewHTTPSender(endpoint, cookieName string, timeout time.Duration) *HTTPSender {
	return &HTTPSender{endpoint: endpoint, cookieName: cookieName, timeout: timeout}
}

type trackResponse struct {
	Success   bool   `json:"success"`
	VisitorID string `json:"visitorId"`
	Message   string `json:"message"`
}

// Send performs a single POST. The agent bounds the request by the sender
// timeout or the context deadline, whichever is sooner.
func (s *HTTPSender) Send(ctx context.Context, visitorID string, report Report) error {
	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout || timeout <= 0 {
			timeout = left
		}
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	agent := fiber.Post(s.endpoint).JSON(report).Timeout(timeout)
	if visitorID != "" {
		agent.Cookie(s.cookieName, visitorID)
	}

	var resp trackResponse
	code, body, errs := agent.Struct(&resp)
	if len(errs) > 0 {
		return fmt.Errorf("tracking request failed: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK || !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = string(body)
		}
		return fmt.Errorf("tracking endpoint returned %d: %s", code, msg)
	}
	return nil
}
