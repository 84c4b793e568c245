package utils

import (
	"context"
	"testing"

	"agency-cms/internal/shared/contextkeys"

	"github.com/stretchr/testify/assert"
)

func TestGetSetContextValues(t *testing.T) {
	ctx := context.Background()
	ctx = WithAdminID(ctx, "admin1")
	ctx = WithAdminEmail(ctx, "admin@example.com")
	ctx = WithVisitorID(ctx, "visitor1")
	ctx = WithRequestID(ctx, "req1")
	ctx = WithComponent(ctx, "componentA")
	ctx = WithOperation(ctx, "opX")

	adminID, err := GetAdminIDFromContext(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "admin1", adminID)

	email, err := GetAdminEmailFromContext(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "admin@example.com", email)

	visitorID, err := GetVisitorIDFromContext(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "visitor1", visitorID)

	reqID, err := GetRequestIDFromContext(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "req1", reqID)

	assert.True(t, HasAdminID(ctx))
	assert.Equal(t, "visitor1", GetVisitorIDOrDefault(ctx, "default"))
	assert.Equal(t, "componentA", ctx.Value(contextkeys.ComponentKey))
}

func TestContextUtils_MissingValues(t *testing.T) {
	ctx := context.Background()

	_, err := GetAdminIDFromContext(ctx)
	assert.ErrorIs(t, err, ErrAdminIDNotFound)
	_, err = GetVisitorIDFromContext(ctx)
	assert.ErrorIs(t, err, ErrVisitorIDNotFound)
	assert.False(t, HasAdminID(ctx))
	assert.Equal(t, "fallback", GetVisitorIDOrDefault(ctx, "fallback"))
}

func TestContextUtils_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), contextkeys.AdminIDKey, 42)
	_, err := GetAdminIDFromContext(ctx)
	assert.ErrorIs(t, err, ErrAdminIDNotString)
}
