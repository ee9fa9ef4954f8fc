package usecase

import (
	"context"
	"sync"

	"afi-portal/internal/portal/domain/model"
	"afi-portal/internal/shared/logger"
	"afi-portal/internal/shared/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ProfileOutcome is the effective session after a profile refresh.
//
// Present reports whether the client has a session at all. Fresh is true
// when Session carries the profile just returned by the identity API; on a
// failed fetch Session is the cached record and Err holds the cause.
type ProfileOutcome struct {
	Session *model.Session
	Present bool
	Fresh   bool
	Err     error
}

// ProfileCacheInterface is the single profile capability shared by the
// access guard and the role resolver.
type ProfileCacheInterface interface {
	Resolve(ctx context.Context, clientID string) ProfileOutcome
}

// ProfileCache collapses concurrent profile refreshes of one client into a
// single identity API call and applies the fallback rule: a failed fetch
// degrades to the cached session, never to logged-out.
type ProfileCache struct {
	gateway AuthGatewayInterface
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  logger.Logger
}

var _ ProfileCacheInterface = (*ProfileCache)(nil)

func NewProfileCache(gateway AuthGatewayInterface, m *metrics.Metrics, log logger.Logger) *ProfileCache {
	if m == nil {
		m = metrics.NewNop()
	}
	return &ProfileCache{gateway: gateway, metrics: m, logger: log.WithComponent("profile_cache")}
}

type profileResult struct {
	session *model.Session
	present bool
	err     error
}

type profileMemoKey struct{}

type profileMemo struct {
	mu       sync.Mutex
	outcomes map[string]ProfileOutcome
}

// WithProfileMemo returns a context under which Resolve fetches the profile
// of a client at most once. The access guard installs it per request so the
// dashboard selection reuses the guard's fetch.
func WithProfileMemo(ctx context.Context) context.Context {
	if _, ok := ctx.Value(profileMemoKey{}).(*profileMemo); ok {
		return ctx
	}
	return context.WithValue(ctx, profileMemoKey{}, &profileMemo{outcomes: make(map[string]ProfileOutcome)})
}

func (o ProfileOutcome) clone() ProfileOutcome {
	o.Session = o.Session.Clone()
	return o
}

func (p *ProfileCache) Resolve(ctx context.Context, clientID string) ProfileOutcome {
	memo, _ := ctx.Value(profileMemoKey{}).(*profileMemo)
	if memo == nil {
		return p.resolve(ctx, clientID)
	}

	memo.mu.Lock()
	defer memo.mu.Unlock()
	if out, ok := memo.outcomes[clientID]; ok {
		return out.clone()
	}
	out := p.resolve(ctx, clientID)
	memo.outcomes[clientID] = out.clone()
	return out
}

func (p *ProfileCache) resolve(ctx context.Context, clientID string) ProfileOutcome {
	// The fetch outlives the caller that started it so that joined callers
	// are not cancelled by the first one going away.
	fetchCtx := context.WithoutCancel(ctx)
	v, _, shared := p.group.Do(clientID, func() (interface{}, error) {
		s, present, err := p.gateway.UserProfile(fetchCtx, clientID)
		return profileResult{session: s, present: present, err: err}, nil
	})
	if shared {
		p.metrics.ProfileShared.Inc()
	}
	res := v.(profileResult)

	if res.err == nil {
		if !res.present {
			return ProfileOutcome{}
		}
		return ProfileOutcome{Session: res.session.Clone(), Present: true, Fresh: true}
	}

	p.logger.WithContext(ctx).Warn("Profile fetch failed, using cached session",
		zap.String("client_id", clientID),
		zap.Error(res.err))

	cached, ok := p.gateway.CurrentUser(ctx, clientID)
	if !ok {
		return ProfileOutcome{Err: res.err}
	}
	return ProfileOutcome{Session: cached, Present: true, Err: res.err}
}
