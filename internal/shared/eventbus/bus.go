package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"afi-portal/internal/shared/logger"

	"go.uber.org/zap"
)

// Session lifecycle event types.
const (
	EventTypeSessionCreated       = "session.created"
	EventTypeSessionProfileMerged = "session.profile_merged"
	EventTypeSessionCleared       = "session.cleared"
)

// SessionEventTypes lists every session lifecycle event.
var SessionEventTypes = []string{
	EventTypeSessionCreated,
	EventTypeSessionProfileMerged,
	EventTypeSessionCleared,
}

// Event represents a generic event
type Event interface {
	Type() string
	Data() interface{}
	Timestamp() time.Time
	Source() string
}

// Handler defines the event handler function type
type Handler func(ctx context.Context, event Event) error

// SubscriptionID identifies one registered handler.
type SubscriptionID uint64

// EventBusInterface defines the contract for event bus implementations
type EventBusInterface interface {
	Subscribe(eventType string, handler Handler) SubscriptionID
	Unsubscribe(eventType string, id SubscriptionID)
	Publish(ctx context.Context, event Event) error
	GetSubscriberCount(eventType string) int
}

type subscription struct {
	id      SubscriptionID
	handler Handler
}

// EventBus is an in-process publish/subscribe hub.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	nextID   SubscriptionID
	logger   logger.Logger
	config   BusConfig
}

var _ EventBusInterface = (*EventBus)(nil)

// BusConfig holds configuration for the event bus
type BusConfig struct {
	AsyncProcessing bool
	MaxRetries      int
	RetryDelay      time.Duration
}

// DefaultBusConfig returns default configuration. Session feed handlers write to
// websockets, a failed write is not worth retrying.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		AsyncProcessing: false,
		MaxRetries:      0,
		RetryDelay:      50 * time.Millisecond,
	}
}

// NewEventBus creates a new event bus instance
func NewEventBus(log logger.Logger) *EventBus {
	return NewEventBusWithConfig(log, DefaultBusConfig())
}

// NewEventBusWithConfig creates a new event bus with custom configuration
func NewEventBusWithConfig(log logger.Logger, config BusConfig) *EventBus {
	if log == nil {
		log = logger.Nop()
	}
	return &EventBus{
		handlers: make(map[string][]subscription),
		logger:   log.WithComponent("eventbus"),
		config:   config,
	}
}

// Subscribe adds a handler for a specific event type
func (eb *EventBus) Subscribe(eventType string, handler Handler) SubscriptionID {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextID++
	id := eb.nextID
	eb.handlers[eventType] = append(eb.handlers[eventType], subscription{id: id, handler: handler})
	eb.logger.Debug("subscribed", zap.String("event_type", eventType), zap.Uint64("subscription", uint64(id)))
	return id
}

// Unsubscribe removes a single handler. Unknown ids are ignored.
func (eb *EventBus) Unsubscribe(eventType string, id SubscriptionID) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subs := eb.handlers[eventType]
	for i, s := range subs {
		if s.id != id {
			continue
		}
		kept := make([]subscription, 0, len(subs)-1)
		kept = append(kept, subs[:i]...)
		kept = append(kept, subs[i+1:]...)
		if len(kept) == 0 {
			delete(eb.handlers, eventType)
		} else {
			eb.handlers[eventType] = kept
		}
		return
	}
}

// Publish sends an event to all registered handlers
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	eb.mu.RLock()
	subs := eb.handlers[event.Type()]
	eb.mu.RUnlock()

	if len(subs) == 0 {
		return nil
	}

	if eb.config.AsyncProcessing {
		return eb.publishAsync(ctx, event, subs)
	}
	return eb.publishSync(ctx, event, subs)
}

// publishSync delivers to every handler and returns the first failure.
func (eb *EventBus) publishSync(ctx context.Context, event Event, subs []subscription) error {
	var first error
	for _, s := range subs {
		if err := eb.executeHandler(ctx, event, s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (eb *EventBus) publishAsync(ctx context.Context, event Event, subs []subscription) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(subs))

	for _, s := range subs {
		wg.Add(1)
		go func(s subscription) {
			defer wg.Done()
			if err := eb.executeHandler(ctx, event, s); err != nil {
				errCh <- err
			}
		}(s)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		return err
	}
	return nil
}

// executeHandler executes a handler with retry logic
func (eb *EventBus) executeHandler(ctx context.Context, event Event, s subscription) error {
	var lastErr error

	for attempt := 0; attempt <= eb.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(eb.config.RetryDelay):
			}
		}

		if err := s.handler(ctx, event); err != nil {
			lastErr = err
			eb.logger.Warn("event handler failed",
				zap.String("event_type", event.Type()),
				zap.Uint64("subscription", uint64(s.id)),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}
		return nil
	}

	return fmt.Errorf("handler failed after %d attempts: %w", eb.config.MaxRetries+1, lastErr)
}

// GetSubscriberCount returns the number of handlers for an event type
func (eb *EventBus) GetSubscriberCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.handlers[eventType])
}

// BasicEvent implements the Event interface
type BasicEvent struct {
	eventType string
	data      interface{}
	timestamp time.Time
	source    string
}

// NewBasicEventWithSource creates a new basic event with source
func NewBasicEventWithSource(eventType string, data interface{}, source string) Event {
	return &BasicEvent{
		eventType: eventType,
		data:      data,
		timestamp: time.Now(),
		source:    source,
	}
}

func (e *BasicEvent) Type() string         { return e.eventType }
func (e *BasicEvent) Data() interface{}    { return e.data }
func (e *BasicEvent) Timestamp() time.Time { return e.timestamp }
func (e *BasicEvent) Source() string       { return e.source }

// SessionChange is the payload of every session lifecycle event.
type SessionChange struct {
	ClientID string `json:"client_id"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// NewSessionEvent builds a session lifecycle event.
func NewSessionEvent(eventType string, change SessionChange) Event {
	return NewBasicEventWithSource(eventType, change, "auth_gateway")
}

// SessionChangeOf extracts the payload of a session lifecycle event.
func SessionChangeOf(e Event) (SessionChange, bool) {
	c, ok := e.Data().(SessionChange)
	return c, ok
}
