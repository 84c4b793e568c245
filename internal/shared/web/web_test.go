package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	apperrors "agency-cms/internal/shared/errors"
	"agency-cms/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(handler fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(logger.NewLoggerWithWriter(io.Discard, "error"))})
	app.Get("/t", handler)
	return app
}

func doGet(t *testing.T, app *fiber.App, target string) (int, ErrorResponse) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestErrorHandler_Mapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", apperrors.NewNotFoundError("service"), 404, "service not found"},
		{"validation", apperrors.NewValidationErrors().Add("title", "title is required", "").ToAppError(), 400, "title is required"},
		{"conflict", apperrors.NewConflictError("slug already exists"), 400, "slug already exists"},
		{"auth", apperrors.NewAuthenticationError("Authentication required"), 401, "Authentication required"},
		{"fiber error", fiber.NewError(fiber.StatusBadRequest, "Invalid request body"), 400, "Invalid request body"},
		{"wrapped sentinel", fmt.Errorf("lookup: %w", apperrors.ErrDocumentNotFound), 404, "lookup: document not found"},
		{"unknown", fmt.Errorf("connection reset"), 500, "Internal Server Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(func(c *fiber.Ctx) error { return tc.err })
			status, body := doGet(t, app, "/t")
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.message, body.Message)
		})
	}
}

func TestParsePage(t *testing.T) {
	var got Page
	app := fiber.New()
	app.Get("/t", func(c *fiber.Ctx) error {
		got = ParsePage(c)
		return c.SendStatus(204)
	})

	for target, want := range map[string]Page{
		"/t":                   {Page: 1, Limit: 10},
		"/t?page=3&limit=20":   {Page: 3, Limit: 20},
		"/t?page=0&limit=1000": {Page: 1, Limit: 100},
		"/t?page=x&limit=-4":   {Page: 1, Limit: 10},
	} {
		_, err := app.Test(httptest.NewRequest("GET", target, nil))
		require.NoError(t, err)
		assert.Equal(t, want, got, target)
	}
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Total: 21, Page: 2, Limit: 10, Pages: 3}, NewPagination(21, Page{Page: 2, Limit: 10}))
	assert.Equal(t, 0, NewPagination(0, Page{Page: 1, Limit: 10}).Pages)
	assert.Equal(t, int64(10), Page{Page: 2, Limit: 10}.Skip())
}

func TestParseSort(t *testing.T) {
	var got Sort
	app := fiber.New()
	app.Get("/t", func(c *fiber.Ctx) error {
		got = ParseSort(c, []string{"createdAt", "order"}, Sort{Field: "order"})
		return c.SendStatus(204)
	})

	for target, want := range map[string]Sort{
		"/t":                 {Field: "order"},
		"/t?sort=-createdAt": {Field: "createdAt", Desc: true},
		"/t?sort=password":   {Field: "order"},
	} {
		_, err := app.Test(httptest.NewRequest("GET", target, nil))
		require.NoError(t, err)
		assert.Equal(t, want, got, target)
	}
}
