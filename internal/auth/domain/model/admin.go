package model

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrAdminNotFound   = errors.New("admin not found")
	ErrAdminExists     = errors.New("admin already exists")
	ErrAdminInactive   = errors.New("admin account is inactive")
	ErrSessionNotFound = errors.New("session not found")
)

// Admin is a back-office user allowed to manage content and leads
type Admin struct {
	ID           string     `json:"id" bson:"_id"`
	Email        string     `json:"email" bson:"email"`
	Name         string     `json:"name" bson:"name"`
	PasswordHash string     `json:"-" bson:"password_hash"`
	IsActive     bool       `json:"isActive" bson:"is_active"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" bson:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updated_at"`
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Sanitized returns a copy without the password hash
func (a *Admin) Sanitized() *Admin {
	out := *a
	out.PasswordHash = ""
	return &out
}
