package http

import (
	"afi-portal/internal/portal/domain/model"
	"afi-portal/internal/portal/usecase"
	"afi-portal/internal/shared/logger"
	"afi-portal/internal/shared/metrics"
	"afi-portal/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AccessGuard admits requests of clients with a session.
type AccessGuard struct {
	profiles  usecase.ProfileCacheInterface
	loginPath string
	metrics   *metrics.Metrics
	logger    logger.Logger
}

// NewAccessGuard creates the guard. Anonymous requests are redirected to loginPath.
func NewAccessGuard(profiles usecase.ProfileCacheInterface, loginPath string, m *metrics.Metrics, log logger.Logger) *AccessGuard {
	if m == nil {
		m = metrics.NewNop()
	}
	return &AccessGuard{
		profiles:  profiles,
		loginPath: loginPath,
		metrics:   m,
		logger:    log.WithComponent("access_guard"),
	}
}

// Protect returns middleware that renders the wrapped view only for clients
// with a session. The profile is refreshed on the way in; when the refresh
// fails the cached session is used.
func (g *AccessGuard) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID := clientIDOf(c)
		ctx := usecase.WithProfileMemo(c.UserContext())

		out := g.profiles.Resolve(ctx, clientID)
		if !out.Present {
			g.metrics.RecordGuard(metrics.DecisionRedirected)
			g.logger.WithContext(ctx).Debug("No session, redirecting to login",
				zap.String("path", c.Path()))
			return c.Redirect(g.loginPath, fiber.StatusFound)
		}

		g.metrics.RecordGuard(metrics.DecisionAllowed)
		caller := model.Caller{ClientID: clientID, Session: out.Session}
		if email := out.Session.Email; email != "" {
			ctx = utils.WithUserEmail(ctx, email)
		}
		if role := out.Session.Role; role != "" {
			ctx = utils.WithRole(ctx, string(role))
		}
		c.Locals(localsCaller, caller)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// callerOf returns the caller established by Protect. Outside the guard it
// carries only the client id.
func callerOf(c *fiber.Ctx) model.Caller {
	if caller, ok := c.Locals(localsCaller).(model.Caller); ok {
		return caller
	}
	return model.Caller{ClientID: clientIDOf(c)}
}
