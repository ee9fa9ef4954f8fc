package repository

import (
	"context"
	"time"

	"afi-portal/internal/portal/domain/model"
)

// RegisterRequest is the body of a registration.
type RegisterRequest struct {
	FullName string     `json:"full_name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

// ServerAck is the identity API answer to a registration.
type ServerAck struct {
	ID          string     `json:"id,omitempty"`
	Email       string     `json:"email,omitempty"`
	FullName    string     `json:"full_name,omitempty"`
	Role        model.Role `json:"role,omitempty"`
	AccessToken string     `json:"access_token,omitempty"`
}

// TokenResponse is the answer of the token endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// IdentityAPI is the remote identity service.
type IdentityAPI interface {
	Register(ctx context.Context, req RegisterRequest) (*ServerAck, error)
	// Token exchanges credentials using form-encoded transport.
	Token(ctx context.Context, username, password string) (*TokenResponse, error)
	Me(ctx context.Context, accessToken string) (*model.ProfilePatch, error)
}

// TokenInspector reads metadata out of an access token without verifying it.
type TokenInspector interface {
	Inspect(accessToken string) (TokenMetadata, error)
}

// TokenMetadata are the informational claims of an access token.
type TokenMetadata struct {
	Subject   string
	ExpiresAt *time.Time
}

// APIFailure is implemented by errors of the remote APIs.
type APIFailure interface {
	error
	// ServerMessage is the message sent by the server, empty for transport failures.
	ServerMessage() string
	// Describe is a one-line description that also covers transport failures.
	Describe() string
}
