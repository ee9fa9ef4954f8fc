package http

import (
	"context"
	"time"

	"afi-portal/internal/portal/usecase"
	"afi-portal/internal/shared/eventbus"
	"afi-portal/internal/shared/logger"
	"afi-portal/internal/shared/metrics"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SessionMessage is one frame of the session feed.
type SessionMessage struct {
	Type          string    `json:"type"`
	Authenticated bool      `json:"authenticated"`
	Email         string    `json:"email,omitempty"`
	Role          string    `json:"role,omitempty"`
	At            time.Time `json:"at"`
}

const sessionSnapshot = "session.snapshot"

// SessionFeed streams the session lifecycle events of a client over a
// websocket so sibling tabs follow logins and logouts.
type SessionFeed struct {
	gateway usecase.AuthGatewayInterface
	bus     eventbus.EventBusInterface
	metrics *metrics.Metrics
	log     logger.Logger
}

func NewSessionFeed(gateway usecase.AuthGatewayInterface, bus eventbus.EventBusInterface, m *metrics.Metrics, log logger.Logger) *SessionFeed {
	if m == nil {
		m = metrics.NewNop()
	}
	return &SessionFeed{gateway: gateway, bus: bus, metrics: m, log: log.WithComponent("session_feed")}
}

// RegisterRoutes registers the websocket endpoint.
func (f *SessionFeed) RegisterRoutes(router fiber.Router) {
	router.Use("/ws/session", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws/session", websocket.New(f.serve))
}

func (f *SessionFeed) serve(conn *websocket.Conn) {
	clientID, _ := conn.Locals(localsClientID).(string)
	if clientID == "" || f.bus == nil {
		return
	}

	f.metrics.SessionFeedConns.Inc()
	defer f.metrics.SessionFeedConns.Dec()

	events := make(chan SessionMessage, 16)
	subs := make(map[string]eventbus.SubscriptionID, len(eventbus.SessionEventTypes))
	for _, eventType := range eventbus.SessionEventTypes {
		subs[eventType] = f.bus.Subscribe(eventType, func(_ context.Context, e eventbus.Event) error {
			change, ok := eventbus.SessionChangeOf(e)
			if !ok || change.ClientID != clientID {
				return nil
			}
			msg := SessionMessage{
				Type:          e.Type(),
				Authenticated: e.Type() != eventbus.EventTypeSessionCleared,
				Email:         change.Email,
				Role:          change.Role,
				At:            e.Timestamp(),
			}
			select {
			case events <- msg:
			default:
				f.log.Warn("Session feed is behind, dropping event", zap.String("client_id", clientID))
			}
			return nil
		})
	}
	f.log.Debug("Session feed opened",
		zap.String("client_id", clientID),
		zap.Int("listeners", f.bus.GetSubscriberCount(eventbus.EventTypeSessionCleared)))
	defer func() {
		for eventType, id := range subs {
			f.bus.Unsubscribe(eventType, id)
		}
		f.log.Debug("Session feed closed", zap.String("client_id", clientID))
	}()

	snapshot := SessionMessage{Type: sessionSnapshot, At: time.Now().UTC()}
	if s, ok := f.gateway.CurrentUser(context.Background(), clientID); ok {
		snapshot.Authenticated = true
		snapshot.Email = s.Email
		snapshot.Role = string(s.Role)
	}
	if err := conn.WriteJSON(snapshot); err != nil {
		return
	}

	// The reader only detects the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case msg := <-events:
			if err := conn.WriteJSON(msg); err != nil {
				f.log.Debug("Session feed write failed", zap.String("client_id", clientID), zap.Error(err))
				return
			}
		}
	}
}
