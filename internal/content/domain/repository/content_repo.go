package repository

import (
	"context"
	"time"

	"agency-cms/internal/content/domain/model"
)

// ListQuery filters and orders a content collection
type ListQuery struct {
	Active    *bool
	Category  string
	Featured  *bool
	Published *bool
	Tag       string
	Search    string // case-insensitive substring of the title field
	SortBy    string
	SortDesc  bool
	Skip      int64
	Limit     int64 // 0 means no limit
}

// ContentRepository persists one content entity type. T is a pointer type
// such as *model.Service.
type ContentRepository[T model.Document] interface {
	Descriptor() model.Descriptor
	List(ctx context.Context, query ListQuery) ([]T, int64, error)
	GetByID(ctx context.Context, id string) (T, error)
	GetBySlug(ctx context.Context, slug string) (T, error)
	// SlugExists reports whether another document than excludeID uses slug
	SlugExists(ctx context.Context, slug string, excludeID string) (bool, error)
	// NextSequence atomically allocates the next sequence, starting at 0
	NextSequence(ctx context.Context) (int, error)
	Create(ctx context.Context, doc T) error
	Update(ctx context.Context, doc T) error
	SetActive(ctx context.Context, id string, active bool, at time.Time) error
	Delete(ctx context.Context, id string) error
	// SetOrder assigns the descriptor's order field by position in ids. Nothing
	// is written when any id is unknown.
	SetOrder(ctx context.Context, ids []string, at time.Time) error
}

// Cache stores serialized query results per collection. Get reports the
// collection generation it looked at; passing that generation to Set drops
// the write if Invalidate ran in between. A negative generation is never
// stored.
type Cache interface {
	Get(ctx context.Context, collection, key string) (value []byte, gen int64, hit bool)
	Set(ctx context.Context, collection string, gen int64, key string, value []byte)
	Invalidate(ctx context.Context, collection string)
}
