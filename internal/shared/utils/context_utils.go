package utils

import (
	"context"
	"errors"

	"afi-portal/internal/shared/contextkeys"
)

// Common context errors
var (
	ErrClientIDNotFound   = errors.New("clientID not found in context")
	ErrClientIDNotString  = errors.New("clientID in context is not a string")
	ErrRequestIDNotFound  = errors.New("requestID not found in context")
	ErrRequestIDNotString = errors.New("requestID in context is not a string")
)

func stringFromContext(ctx context.Context, key interface{}, notFound, notString error) (string, error) {
	val := ctx.Value(key)
	if val == nil {
		return "", notFound
	}
	s, ok := val.(string)
	if !ok {
		return "", notString
	}
	return s, nil
}

// GetClientIDFromContext retrieves the browser client id from the context.
// It returns the client id and an error if it is not found or is not a string.
func GetClientIDFromContext(ctx context.Context) (string, error) {
	return stringFromContext(ctx, contextkeys.ClientIDKey, ErrClientIDNotFound, ErrClientIDNotString)
}

// GetRequestIDFromContext retrieves the request ID from the context.
func GetRequestIDFromContext(ctx context.Context) (string, error) {
	return stringFromContext(ctx, contextkeys.RequestIDKey, ErrRequestIDNotFound, ErrRequestIDNotString)
}

// Context builder functions

// WithClientID adds the client id to context
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, contextkeys.ClientIDKey, clientID)
}

// WithUserEmail adds user email to context
func WithUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, contextkeys.UserEmailKey, email)
}

// WithRole adds the resolved role to context
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, contextkeys.RoleKey, role)
}

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextkeys.RequestIDKey, requestID)
}
