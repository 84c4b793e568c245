package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "agency-cms context key " + string(c)
}

const (
	// AdminIDKey is the key for the authenticated admin user ID
	AdminIDKey = contextKey("adminID")
	// AdminEmailKey is the key for the authenticated admin email
	AdminEmailKey = contextKey("adminEmail")
	// VisitorIDKey is the key for the anonymous visitor ID of a tracking request
	VisitorIDKey = contextKey("visitorID")
	// RequestIDKey is the key for the request correlation ID
	RequestIDKey = contextKey("requestID")
	ComponentKey = contextKey("component")
	OperationKey = contextKey("operation")
)
