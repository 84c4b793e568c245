package model

import "time"

// Session records an issued token so it can be revoked on logout. ID is the
// token's jti claim.
type Session struct {
	ID        string    `json:"id" bson:"_id"`
	AdminID   string    `json:"adminId" bson:"admin_id"`
	UserAgent string    `json:"userAgent,omitempty" bson:"user_agent,omitempty"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expires_at"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// Expired reports whether the session is past its expiry at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
