package usecase

import (
	"context"
	"time"

	"afi-portal/internal/portal/domain/model"
	"afi-portal/internal/shared/eventbus"
	"afi-portal/internal/shared/logger"
	"afi-portal/internal/shared/metrics"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// RoleStateLimits bounds the per-client resolution states kept for State.
// The least recently resolved client is dropped past MaxClients and any state
// older than TTL reads as uninitialized.
type RoleStateLimits struct {
	MaxClients int
	TTL        time.Duration
}

// DefaultRoleStateLimits returns the limits used by NewRoleResolver.
func DefaultRoleStateLimits() RoleStateLimits {
	return RoleStateLimits{MaxClients: 10000, TTL: 30 * time.Minute}
}

// RoleResolverInterface derives the role of a client's user.
type RoleResolverInterface interface {
	// Resolve always terminates in StateResolved or StateError.
	Resolve(ctx context.Context, clientID string) model.Resolution
	// State reports the latest resolution of the client, StateUninitialized
	// if none ran yet.
	State(clientID string) model.Resolution
}

// RoleResolver implements RoleResolverInterface on top of the shared profile cache.
type RoleResolver struct {
	gateway AuthGatewayInterface
	cache   ProfileCacheInterface
	states  *expirable.LRU[string, model.Resolution]
	metrics *metrics.Metrics
	logger  logger.Logger
}

var _ RoleResolverInterface = (*RoleResolver)(nil)

// NewRoleResolver creates the resolver. When bus is set, a logout resets the
// client's state to uninitialized.
func NewRoleResolver(gateway AuthGatewayInterface, cache ProfileCacheInterface, bus eventbus.EventBusInterface, m *metrics.Metrics, log logger.Logger) *RoleResolver {
	return NewRoleResolverWithLimits(gateway, cache, bus, m, log, DefaultRoleStateLimits())
}

// NewRoleResolverWithLimits creates the resolver with custom state limits.
func NewRoleResolverWithLimits(gateway AuthGatewayInterface, cache ProfileCacheInterface, bus eventbus.EventBusInterface, m *metrics.Metrics, log logger.Logger, limits RoleStateLimits) *RoleResolver {
	if m == nil {
		m = metrics.NewNop()
	}
	defaults := DefaultRoleStateLimits()
	if limits.MaxClients <= 0 {
		limits.MaxClients = defaults.MaxClients
	}
	if limits.TTL <= 0 {
		limits.TTL = defaults.TTL
	}
	r := &RoleResolver{
		gateway: gateway,
		cache:   cache,
		states:  expirable.NewLRU[string, model.Resolution](limits.MaxClients, nil, limits.TTL),
		metrics: m,
		logger:  log.WithComponent("role_resolver"),
	}
	if bus != nil {
		bus.Subscribe(eventbus.EventTypeSessionCleared, r.onSessionCleared)
	}
	return r
}

func (r *RoleResolver) onSessionCleared(_ context.Context, event eventbus.Event) error {
	if change, ok := eventbus.SessionChangeOf(event); ok {
		r.states.Remove(change.ClientID)
	}
	return nil
}

func (r *RoleResolver) Resolve(ctx context.Context, clientID string) model.Resolution {
	if _, ok := r.gateway.CurrentUser(ctx, clientID); !ok {
		return r.finish(clientID, model.Resolution{State: model.StateResolved})
	}

	r.states.Add(clientID, model.Resolution{State: model.StateLoading, SessionPresent: true})

	out := r.cache.Resolve(ctx, clientID)
	switch {
	case !out.Present:
		// Logged out while the profile was in flight.
		return r.finish(clientID, model.Resolution{State: model.StateResolved})
	case out.Err != nil:
		r.logger.WithContext(ctx).Debug("Role unknown, defaulting to patient view",
			zap.String("client_id", clientID),
			zap.Error(out.Err))
		return r.finish(clientID, model.Resolution{State: model.StateError, SessionPresent: true, Error: out.Err.Error()})
	default:
		return r.finish(clientID, model.Resolution{State: model.StateResolved, Role: out.Session.Role, SessionPresent: true})
	}
}

func (r *RoleResolver) finish(clientID string, res model.Resolution) model.Resolution {
	r.states.Add(clientID, res)
	r.metrics.RecordRole(string(res.State), string(res.Role))
	return res
}

func (r *RoleResolver) State(clientID string) model.Resolution {
	if res, ok := r.states.Get(clientID); ok {
		return res
	}
	return model.Resolution{State: model.StateUninitialized}
}
