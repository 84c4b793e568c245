package utils

import (
	"context"
	"errors"

	"agency-cms/internal/shared/contextkeys"
)

// Common context errors
var (
	ErrAdminIDNotFound     = errors.New("adminID not found in context")
	ErrAdminIDNotString    = errors.New("adminID in context is not a string")
	ErrAdminEmailNotFound  = errors.New("adminEmail not found in context")
	ErrAdminEmailNotString = errors.New("adminEmail in context is not a string")
	ErrVisitorIDNotFound   = errors.New("visitorID not found in context")
	ErrVisitorIDNotString  = errors.New("visitorID in context is not a string")
	ErrRequestIDNotFound   = errors.New("requestID not found in context")
	ErrRequestIDNotString  = errors.New("requestID in context is not a string")
)

func stringFromContext(ctx context.Context, key interface{}, missing, notString error) (string, error) {
	val := ctx.Value(key)
	if val == nil {
		return "", missing
	}
	s, ok := val.(string)
	if !ok {
		return "", notString
	}
	return s, nil
}

// GetAdminIDFromContext retrieves the authenticated admin ID from the context.
func GetAdminIDFromContext(ctx context.Context) (string, error) {
	return stringFromContext(ctx, contextkeys.AdminIDKey, ErrAdminIDNotFound, ErrAdminIDNotString)
}

// GetAdminEmailFromContext retrieves the authenticated admin email from the context.
func GetAdminEmailFromContext(ctx context.Context) (string, error) {
	return stringFromContext(ctx, contextkeys.AdminEmailKey, ErrAdminEmailNotFound, ErrAdminEmailNotString)
}

// GetVisitorIDFromContext retrieves the visitor ID from the context.
func GetVisitorIDFromContext(ctx context.Context) (string, error) {
	return stringFromContext(ctx, contextkeys.VisitorIDKey, ErrVisitorIDNotFound, ErrVisitorIDNotString)
}

// GetRequestIDFromContext retrieves the request ID from the context.
func GetRequestIDFromContext(ctx context.Context) (string, error) {
	return stringFromContext(ctx, contextkeys.RequestIDKey, ErrRequestIDNotFound, ErrRequestIDNotString)
}

// Context builder functions

// WithAdminID adds the admin ID to context
func WithAdminID(ctx context.Context, adminID string) context.Context {
	return context.WithValue(ctx, contextkeys.AdminIDKey, adminID)
}

// WithAdminEmail adds the admin email to context
func WithAdminEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, contextkeys.AdminEmailKey, email)
}

// WithVisitorID adds the visitor ID to context
func WithVisitorID(ctx context.Context, visitorID string) context.Context {
	return context.WithValue(ctx, contextkeys.VisitorIDKey, visitorID)
}

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextkeys.RequestIDKey, requestID)
}

// WithComponent adds component name to context
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, contextkeys.ComponentKey, component)
}

// WithOperation adds operation name to context
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, contextkeys.OperationKey, operation)
}

// HasAdminID reports whether an authenticated admin is present in the context
func HasAdminID(ctx context.Context) bool {
	_, err := GetAdminIDFromContext(ctx)
	return err == nil
}

// GetVisitorIDOrDefault retrieves the visitor ID from context or returns a default value
func GetVisitorIDOrDefault(ctx context.Context, def string) string {
	if v, err := GetVisitorIDFromContext(ctx); err == nil {
		return v
	}
	return def
}
