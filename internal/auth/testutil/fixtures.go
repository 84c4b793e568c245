package testutil

import (
	"time"

	"agency-cms/internal/auth/domain/model"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the clear-text password of fixture admins
const DefaultPassword = "password123"

// AdminFixture provides test data for the Admin model
type AdminFixture struct{}

// NewAdminFixture creates a new AdminFixture instance
func NewAdminFixture() *AdminFixture {
	return &AdminFixture{}
}

// ValidAdmin returns an active admin whose password is DefaultPassword
func (f *AdminFixture) ValidAdmin() *model.Admin {
	return f.AdminWithPassword("admin@agency.test", DefaultPassword)
}

// AdminWithPassword returns an active admin with the given credentials
func (f *AdminFixture) AdminWithPassword(email, password string) *model.Admin {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &model.Admin{
		ID:           "admin-" + email,
		Email:        email,
		Name:         "Test Admin",
		PasswordHash: string(hashedPassword),
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// InactiveAdmin returns a disabled admin
func (f *AdminFixture) InactiveAdmin() *model.Admin {
	admin := f.ValidAdmin()
	admin.IsActive = false
	return admin
}

// SessionFixture provides test data for the Session model
type SessionFixture struct{}

// NewSessionFixture creates a new SessionFixture instance
func NewSessionFixture() *SessionFixture {
	return &SessionFixture{}
}

// ValidSession returns an open session for adminID
func (f *SessionFixture) ValidSession(id, adminID string) *model.Session {
	return &model.Session{
		ID:        id,
		AdminID:   adminID,
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
}

// ExpiredSession returns a session past its expiry
func (f *SessionFixture) ExpiredSession(id, adminID string) *model.Session {
	s := f.ValidSession(id, adminID)
	s.ExpiresAt = time.Now().Add(-time.Minute)
	return s
}
