package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "afi-portal context key " + string(c)
}

// ClientIDKey is the key for the browser client id (portal_client cookie) in context.Context
const ClientIDKey = contextKey("clientID")

// UserEmailKey is the key for the signed-in user's email in context.Context
const UserEmailKey = contextKey("userEmail")

// RoleKey is the key for the resolved role in context.Context
const RoleKey = contextKey("role")

// RequestIDKey is the key for the request id in context.Context
const RequestIDKey = contextKey("requestID")
