package repository

import (
	"context"
	"time"

	"agency-cms/internal/visitor/domain/model"
)

// ListQuery selects and orders visitor records
type ListQuery struct {
	Status   model.Status
	Search   string // case-insensitive match on contact name/email or visitor ID
	SortBy   string
	SortDesc bool
	Skip     int64
	Limit    int64 // 0 means no limit
}

// VisitorRepository persists visitor records. Every mutation is a single
// atomic operation on one record.
type VisitorRepository interface {
	// Upsert creates the record on first sight or updates it: lastVisit and
	// rawStorageData are replaced and visitCount is incremented by one.
	Upsert(ctx context.Context, report model.Report) (*model.VisitorRecord, error)
	// AppendPageVisit pushes to pagesVisited, creating the record with
	// visitCount 0 when it does not exist yet.
	AppendPageVisit(ctx context.Context, visitorID string, visit model.PageVisit, meta model.Metadata) (*model.VisitorRecord, error)
	SetContactInfo(ctx context.Context, visitorID string, info model.ContactInfo, at time.Time) (*model.VisitorRecord, error)
	UpdateStatus(ctx context.Context, visitorID string, status model.Status, at time.Time) (*model.VisitorRecord, error)
	GetByVisitorID(ctx context.Context, visitorID string) (*model.VisitorRecord, error)
	List(ctx context.Context, query ListQuery) ([]model.VisitorRecord, int64, error)
	Delete(ctx context.Context, visitorID string) error
	Stats(ctx context.Context, since time.Time) (*model.Stats, error)
}
