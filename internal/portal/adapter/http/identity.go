package http

import (
	"time"

	"afi-portal/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Locals keys shared by the portal handlers.
const (
	localsClientID = "client_id"
	localsCaller   = "caller"
)

// CookieConfig describes the client identity cookie.
type CookieConfig struct {
	Name     string
	MaxAge   time.Duration
	Secure   bool
	SameSite string
}

// ClientIdentity reads or issues the per-browser client id cookie. The id
// scopes every client storage item of the browser.
func ClientIdentity(cfg CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID := c.Cookies(cfg.Name)
		if _, err := uuid.Parse(clientID); err != nil {
			clientID = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     cfg.Name,
				Value:    clientID,
				Path:     "/",
				MaxAge:   int(cfg.MaxAge.Seconds()),
				Secure:   cfg.Secure,
				HTTPOnly: true,
				SameSite: cfg.SameSite,
			})
		}

		c.Locals(localsClientID, clientID)
		c.SetUserContext(utils.WithClientID(c.UserContext(), clientID))
		return c.Next()
	}
}

// clientIDOf returns the client id set by ClientIdentity.
func clientIDOf(c *fiber.Ctx) string {
	if id, ok := c.Locals(localsClientID).(string); ok {
		return id
	}
	id, _ := utils.GetClientIDFromContext(c.UserContext())
	return id
}
