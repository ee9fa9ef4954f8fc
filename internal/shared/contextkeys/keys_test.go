package contextkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextKey_String(t *testing.T) {
	key := contextKey("testKey")
	assert.Equal(t, "afi-portal context key testKey", key.String())
}

func TestContextKeys_Usage(t *testing.T) {
	ctx := context.Background()
	ctx = context.WithValue(ctx, ClientIDKey, "client-123")
	ctx = context.WithValue(ctx, UserEmailKey, "user@example.com")
	ctx = context.WithValue(ctx, RoleKey, "doctor")
	ctx = context.WithValue(ctx, RequestIDKey, "req-456")

	assert.Equal(t, "client-123", ctx.Value(ClientIDKey))
	assert.Equal(t, "user@example.com", ctx.Value(UserEmailKey))
	assert.Equal(t, "doctor", ctx.Value(RoleKey))
	assert.Equal(t, "req-456", ctx.Value(RequestIDKey))
}
