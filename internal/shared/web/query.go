package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Page carries pagination parameters parsed from the query string
type Page struct {
	Page  int
	Limit int
}

// Skip returns the number of documents to skip
func (p Page) Skip() int64 {
	return int64((p.Page - 1) * p.Limit)
}

// Pagination is the metadata returned next to list results
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// NewPagination computes the page count for total items
func NewPagination(total int64, p Page) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Pagination{Total: total, Page: p.Page, Limit: p.Limit, Pages: pages}
}

// ParsePage reads ?page and ?limit, clamping them to sane values
func ParsePage(c *fiber.Ctx) Page {
	return ClampPage(c.QueryInt("page", 1), c.QueryInt("limit", DefaultPageLimit))
}

// ClampPage normalizes page and limit
func ClampPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Page: page, Limit: limit}
}

// Sort is a single sort key; Desc is set by a leading "-"
type Sort struct {
	Field string
	Desc  bool
}

// ParseSort reads ?sort=field or ?sort=-field. Fields outside allowed are ignored
// and fallback is returned.
func ParseSort(c *fiber.Ctx, allowed []string, fallback Sort) Sort {
	raw := strings.TrimSpace(c.Query("sort"))
	if raw == "" {
		return fallback
	}
	s := Sort{Field: strings.TrimPrefix(raw, "-"), Desc: strings.HasPrefix(raw, "-")}
	for _, a := range allowed {
		if a == s.Field {
			return s
		}
	}
	return fallback
}

// QueryBool parses an optional boolean query parameter
func QueryBool(c *fiber.Ctx, key string) *bool {
	switch strings.ToLower(c.Query(key)) {
	case "true", "1", "yes":
		v := true
		return &v
	case "false", "0", "no":
		v := false
		return &v
	default:
		return nil
	}
}
