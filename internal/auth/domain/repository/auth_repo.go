package repository

import (
	"context"

	"agency-cms/internal/auth/domain/model"
)

// AuthRepository defines the interface for admin and session persistence
type AuthRepository interface {
	CreateAdmin(ctx context.Context, admin *model.Admin) error
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	GetAdminByID(ctx context.Context, id string) (*model.Admin, error)
	CountAdmins(ctx context.Context) (int64, error)
	TouchLastLogin(ctx context.Context, id string) error

	CreateSession(ctx context.Context, session *model.Session) error
	GetSessionByID(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
}
