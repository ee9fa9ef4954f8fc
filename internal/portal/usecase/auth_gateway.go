package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"afi-portal/internal/portal/domain/model"
	"afi-portal/internal/portal/domain/repository"
	sharedErrors "afi-portal/internal/shared/errors"
	"afi-portal/internal/shared/eventbus"
	"afi-portal/internal/shared/logger"
	"afi-portal/internal/shared/metrics"

	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AuthGatewayInterface mediates every identity operation of a client.
type AuthGatewayInterface interface {
	Register(ctx context.Context, req repository.RegisterRequest) (*repository.ServerAck, error)
	Login(ctx context.Context, clientID, email, password string) (*model.Session, error)
	// RegisterAndLogin registers, logs in and makes a best-effort profile
	// fetch. A failed profile fetch leaves a token-only session.
	RegisterAndLogin(ctx context.Context, clientID string, req repository.RegisterRequest) (*model.Session, error)
	Logout(ctx context.Context, clientID string) error
	CurrentUser(ctx context.Context, clientID string) (*model.Session, bool)
	// UserProfile refreshes the cached profile from the identity API. With no
	// session it returns (nil, false, nil) without any network call. On
	// failure the stored session is untouched and a ProfileFetchError is
	// returned with present=true.
	UserProfile(ctx context.Context, clientID string) (*model.Session, bool, error)
}

// AuthGateway implements AuthGatewayInterface.
type AuthGateway struct {
	api       repository.IdentityAPI
	sessions  SessionStoreInterface
	records   *RecordStore
	inspector repository.TokenInspector
	bus       eventbus.EventBusInterface
	metrics   *metrics.Metrics
	logger    logger.Logger
	now       func() time.Time
}

var _ AuthGatewayInterface = (*AuthGateway)(nil)

// NewAuthGateway creates a new instance of AuthGateway.
func NewAuthGateway(
	api repository.IdentityAPI,
	sessions SessionStoreInterface,
	records *RecordStore,
	inspector repository.TokenInspector,
	bus eventbus.EventBusInterface,
	m *metrics.Metrics,
	log logger.Logger,
) *AuthGateway {
	if m == nil {
		m = metrics.NewNop()
	}
	return &AuthGateway{
		api:       api,
		sessions:  sessions,
		records:   records,
		inspector: inspector,
		bus:       bus,
		metrics:   m,
		logger:    log.WithComponent("auth_gateway"),
		now:       time.Now,
	}
}

func validateRegistration(req *repository.RegisterRequest) error {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if req.Role == "" {
		req.Role = model.RolePatient
	}

	switch {
	case req.FullName == "":
		return sharedErrors.NewRegistrationError("Full name is required")
	case !emailRegex.MatchString(req.Email):
		return sharedErrors.NewRegistrationError("A valid email address is required")
	case req.Password == "":
		return sharedErrors.NewRegistrationError("Password is required")
	}
	if _, ok := model.ParseRole(string(req.Role)); !ok {
		return sharedErrors.NewRegistrationError("Role must be doctor or patient")
	}
	return nil
}

// Register submits a new account. It never creates a session.
func (g *AuthGateway) Register(ctx context.Context, req repository.RegisterRequest) (*repository.ServerAck, error) {
	if err := validateRegistration(&req); err != nil {
		g.metrics.RecordAuth("register", false)
		return nil, err
	}

	ack, err := g.api.Register(ctx, req)
	if err != nil {
		g.metrics.RecordAuth("register", false)
		g.logger.WithContext(ctx).Info("Registration rejected",
			zap.String("email", req.Email),
			zap.Error(err))
		return nil, sharedErrors.NewRegistrationError(serverMessage(err)).WithCause(err)
	}

	g.metrics.RecordAuth("register", true)
	return ack, nil
}

// Login exchanges credentials for a token and replaces the client's session
// with a brand-new one. There is no retry.
func (g *AuthGateway) Login(ctx context.Context, clientID, email, password string) (*model.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		g.metrics.RecordAuth("login", false)
		return nil, sharedErrors.NewAuthenticationError("Email and password are required")
	}

	tok, err := g.api.Token(ctx, email, password)
	if err != nil {
		g.metrics.RecordAuth("login", false)
		g.logger.WithContext(ctx).Info("Login failed",
			zap.String("email", email),
			zap.Error(err))
		return nil, sharedErrors.NewAuthenticationError(serverMessage(err)).WithCause(err)
	}

	session, err := model.NewSession(tok.AccessToken, tok.TokenType, g.now())
	if err != nil {
		g.metrics.RecordAuth("login", false)
		return nil, sharedErrors.NewAuthenticationError("").WithCause(err)
	}
	g.annotate(session)

	if err := g.sessions.Save(ctx, clientID, session); err != nil {
		g.metrics.RecordAuth("login", false)
		g.logger.WithContext(ctx).Error("Failed to persist session", zap.Error(err))
		return nil, sharedErrors.NewInfrastructureError("Could not store session, please try again").WithCause(err)
	}

	g.metrics.RecordAuth("login", true)
	g.publish(ctx, eventbus.EventTypeSessionCreated, clientID, session)
	return session, nil
}

// annotate records the informational claims of the token.
func (g *AuthGateway) annotate(session *model.Session) {
	if g.inspector == nil {
		return
	}
	meta, err := g.inspector.Inspect(session.AccessToken)
	if err != nil {
		g.logger.Debug("Access token is opaque, no metadata recorded", zap.Error(err))
		return
	}
	session.Subject = meta.Subject
	session.ExpiresAt = meta.ExpiresAt
}

func (g *AuthGateway) RegisterAndLogin(ctx context.Context, clientID string, req repository.RegisterRequest) (*model.Session, error) {
	if _, err := g.Register(ctx, req); err != nil {
		return nil, err
	}

	session, err := g.Login(ctx, clientID, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	merged, _, err := g.UserProfile(ctx, clientID)
	if err != nil || merged == nil {
		g.logger.WithContext(ctx).Warn("Profile fetch after registration failed, keeping token-only session", zap.Error(err))
		return session, nil
	}
	return merged, nil
}

// Logout forgets everything stored for the client. The token is not revoked
// server-side.
func (g *AuthGateway) Logout(ctx context.Context, clientID string) error {
	previous, _ := g.sessions.Load(ctx, clientID)

	if err := g.sessions.Clear(ctx, clientID); err != nil {
		g.metrics.RecordAuth("logout", false)
		return sharedErrors.NewInfrastructureError("Could not clear session").WithCause(err)
	}
	for _, key := range []string{model.PendingUploadItemKey, model.BookingDraftItemKey} {
		if err := g.records.Delete(ctx, clientID, key); err != nil {
			g.logger.WithContext(ctx).Warn("Failed to drop client item on logout",
				zap.String("item", key),
				zap.Error(err))
		}
	}

	g.metrics.RecordAuth("logout", true)
	g.publish(ctx, eventbus.EventTypeSessionCleared, clientID, previous)
	return nil
}

func (g *AuthGateway) CurrentUser(ctx context.Context, clientID string) (*model.Session, bool) {
	return g.sessions.Load(ctx, clientID)
}

func (g *AuthGateway) UserProfile(ctx context.Context, clientID string) (*model.Session, bool, error) {
	session, ok := g.sessions.Load(ctx, clientID)
	if !ok {
		return nil, false, nil
	}

	patch, err := g.api.Me(ctx, session.AccessToken)
	if err != nil {
		g.metrics.RecordProfileFetch(false)
		return nil, true, sharedErrors.NewProfileFetchError(serverMessage(err)).WithCause(err)
	}
	g.metrics.RecordProfileFetch(true)

	// Read-merge-write against the latest record: a logout or re-login that
	// happened during the fetch wins over this response.
	latest, ok := g.sessions.Load(ctx, clientID)
	if !ok {
		return nil, false, nil
	}
	if latest.AccessToken != session.AccessToken {
		return latest, true, nil
	}

	merged := latest.Merge(*patch, g.now())
	if err := g.sessions.Save(ctx, clientID, merged); err != nil {
		return nil, true, sharedErrors.NewProfileFetchError("Failed to store profile").WithCause(err)
	}

	g.publish(ctx, eventbus.EventTypeSessionProfileMerged, clientID, merged)
	return merged, true, nil
}

func (g *AuthGateway) publish(ctx context.Context, eventType, clientID string, s *model.Session) {
	if g.bus == nil {
		return
	}
	change := eventbus.SessionChange{ClientID: clientID}
	if s != nil {
		change.Email = s.Email
		if change.Email == "" {
			change.Email = s.Subject
		}
		change.Role = string(s.Role)
	}
	if err := g.bus.Publish(ctx, eventbus.NewSessionEvent(eventType, change)); err != nil {
		g.logger.Debug("Session event not delivered to every subscriber",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}

// serverMessage returns the message the remote API sent, if any.
func serverMessage(err error) string {
	var failure repository.APIFailure
	if errors.As(err, &failure) {
		return failure.ServerMessage()
	}
	return ""
}

// describe returns a one-line description of a remote failure.
func describe(err error) string {
	var failure repository.APIFailure
	if errors.As(err, &failure) {
		return failure.Describe()
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
