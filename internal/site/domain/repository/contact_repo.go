package repository

import (
	"context"
	"time"

	"agency-cms/internal/site/domain/model"
)

// ContactQuery filters contact messages, newest first
type ContactQuery struct {
	IsRead *bool
	Skip   int64
	Limit  int64
}

// ContactRepository persists contact form submissions
type ContactRepository interface {
	Create(ctx context.Context, msg *model.ContactMessage) error
	List(ctx context.Context, query ContactQuery) ([]model.ContactMessage, int64, error)
	SetRead(ctx context.Context, id string, read bool, at time.Time) (*model.ContactMessage, error)
	Delete(ctx context.Context, id string) error
}
