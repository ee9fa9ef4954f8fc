package model

import (
	"errors"
	"time"
)

// SessionItemKey is the client storage item holding the signed-in identity.
const SessionItemKey = "user"

var ErrEmptyToken = errors.New("session requires an access token")

// Session is the signed-in identity of one browser client: the bearer token
// plus the profile fields cached from the identity API.
type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`

	// Token metadata read from the unverified JWT claims. Never enforced.
	Subject   string     `json:"subject,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	ID             string `json:"id,omitempty"`
	Email          string `json:"email,omitempty"`
	FullName       string `json:"full_name,omitempty"`
	Role           Role   `json:"role,omitempty"`
	Specialization string `json:"specialization,omitempty"`

	CreatedAt       time.Time  `json:"created_at"`
	ProfileSyncedAt *time.Time `json:"profile_synced_at,omitempty"`
}

// NewSession creates a token-only session as returned by a successful login.
func NewSession(accessToken, tokenType string, now time.Time) (*Session, error) {
	if accessToken == "" {
		return nil, ErrEmptyToken
	}
	if tokenType == "" {
		tokenType = "bearer"
	}
	return &Session{AccessToken: accessToken, TokenType: tokenType, CreatedAt: now.UTC()}, nil
}

// Authorization returns the Authorization header value for this session.
func (s *Session) Authorization() string {
	return "Bearer " + s.AccessToken
}

// HasProfile reports whether a profile fetch has ever been merged.
func (s *Session) HasProfile() bool {
	return s.ProfileSyncedAt != nil
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.ExpiresAt != nil {
		t := *s.ExpiresAt
		c.ExpiresAt = &t
	}
	if s.ProfileSyncedAt != nil {
		t := *s.ProfileSyncedAt
		c.ProfileSyncedAt = &t
	}
	return &c
}

// ProfilePatch is the typed subset of the /me response merged onto a Session.
// Nil fields leave the session untouched.
type ProfilePatch struct {
	ID             *string `json:"id,omitempty"`
	Email          *string `json:"email,omitempty"`
	FullName       *string `json:"full_name,omitempty"`
	Role           *Role   `json:"role,omitempty"`
	Specialization *string `json:"specialization,omitempty"`
}

// Merge applies p onto a copy of s. Fields absent from p keep their value.
func (s *Session) Merge(p ProfilePatch, now time.Time) *Session {
	out := s.Clone()
	if p.ID != nil {
		out.ID = *p.ID
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.FullName != nil {
		out.FullName = *p.FullName
	}
	if p.Role != nil {
		out.Role = *p.Role
	}
	if p.Specialization != nil {
		out.Specialization = *p.Specialization
	}
	synced := now.UTC()
	out.ProfileSyncedAt = &synced
	return out
}

// Initial returns the avatar letter: the first rune of the full name, or "U".
func (s *Session) Initial() string {
	for _, r := range s.FullName {
		return string(r)
	}
	return "U"
}

// Caller is the identity a request acts for: the browser client and its
// effective session as established by the access guard.
type Caller struct {
	ClientID string
	Session  *Session
}

// Role returns the cached role of the caller, empty when unknown.
func (c Caller) Role() Role {
	if c.Session == nil {
		return ""
	}
	return c.Session.Role
}
