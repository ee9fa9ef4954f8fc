package usecase_test

import (
	"context"
	"testing"

	"afi-portal/internal/portal/adapter/persistence/memory"
	"afi-portal/internal/portal/adapter/security"
	"afi-portal/internal/portal/domain/model"
	"afi-portal/internal/portal/domain/repository"
	"afi-portal/internal/portal/usecase"
	"afi-portal/internal/shared/eventbus"
	"afi-portal/internal/shared/logger"
	"afi-portal/internal/shared/metrics"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock identity API
type mockIdentityAPI struct {
	mock.Mock
}

func (m *mockIdentityAPI) Register(ctx context.Context, req repository.RegisterRequest) (*repository.ServerAck, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ServerAck), args.Error(1)
}

func (m *mockIdentityAPI) Token(ctx context.Context, username, password string) (*repository.TokenResponse, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TokenResponse), args.Error(1)
}

func (m *mockIdentityAPI) Me(ctx context.Context, accessToken string) (*model.ProfilePatch, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProfilePatch), args.Error(1)
}

// Mock clinical API
type mockClinicalAPI struct {
	mock.Mock
}

func (m *mockClinicalAPI) PredictImage(ctx context.Context, accessToken string, upload model.PendingUpload) (*model.PredictionResult, error) {
	args := m.Called(ctx, accessToken, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PredictionResult), args.Error(1)
}

func (m *mockClinicalAPI) PredictionHistory(ctx context.Context, accessToken string) ([]model.PredictionRecord, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PredictionRecord), args.Error(1)
}

func (m *mockClinicalAPI) PredictionDetails(ctx context.Context, accessToken, predictionID string) (*model.PredictionRecord, error) {
	args := m.Called(ctx, accessToken, predictionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PredictionRecord), args.Error(1)
}

func (m *mockClinicalAPI) PatientRecords(ctx context.Context, accessToken string) ([]model.PatientRecord, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PatientRecord), args.Error(1)
}

func (m *mockClinicalAPI) PatientAnalytics(ctx context.Context, accessToken string) (*model.Analytics, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Analytics), args.Error(1)
}

// stubInspector returns fixed token metadata.
type stubInspector struct {
	meta repository.TokenMetadata
	err  error
}

func (s stubInspector) Inspect(string) (repository.TokenMetadata, error) { return s.meta, s.err }

// harness wires the identity usecases over in-memory storage.
type harness struct {
	identity *mockIdentityAPI
	storage  *memory.ClientStorage
	records  *usecase.RecordStore
	sessions *usecase.SessionStore
	bus      *eventbus.EventBus
	gateway  *usecase.AuthGateway
	cache    *usecase.ProfileCache
	resolver *usecase.RoleResolver
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newSealedHarness(t, nil)
}

func newSealedHarness(t *testing.T, key []byte) *harness {
	t.Helper()
	log := logger.Nop()
	m := metrics.NewNop()

	sealers, err := security.NewSealerFactory(key)
	require.NoError(t, err)

	h := &harness{
		identity: new(mockIdentityAPI),
		storage:  memory.NewClientStorage(),
		bus:      eventbus.NewEventBus(log),
	}
	h.records = usecase.NewRecordStore(h.storage, sealers)
	h.sessions = usecase.NewSessionStore(h.records, log)
	h.gateway = usecase.NewAuthGateway(h.identity, h.sessions, h.records, stubInspector{err: security.ErrTokenMalformed}, h.bus, m, log)
	h.cache = usecase.NewProfileCache(h.gateway, m, log)
	h.resolver = usecase.NewRoleResolver(h.gateway, h.cache, h.bus, m, log)
	return h
}

// seed stores a token-only session for clientID.
func (h *harness) seed(t *testing.T, clientID, token string) *model.Session {
	t.Helper()
	s := &model.Session{AccessToken: token, TokenType: "bearer"}
	require.NoError(t, h.sessions.Save(context.Background(), clientID, s))
	return s
}

func strPtr(s string) *string { return &s }

func rolePtr(r model.Role) *model.Role { return &r }
