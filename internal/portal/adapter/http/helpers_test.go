package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"afi-portal/internal/portal/adapter/clinicapi"
	portalhttp "afi-portal/internal/portal/adapter/http"
	"afi-portal/internal/portal/adapter/persistence/memory"
	"afi-portal/internal/portal/adapter/security"
	"afi-portal/internal/portal/domain/model"
	"afi-portal/internal/portal/domain/repository"
	"afi-portal/internal/portal/usecase"
	"afi-portal/internal/shared/eventbus"
	"afi-portal/internal/shared/logger"
	"afi-portal/internal/shared/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

const testCookie = "portal_client"

// fakeIdentity is an in-memory identity API.
type fakeIdentity struct {
	mu       sync.Mutex
	profile  model.ProfilePatch
	meErr    error
	tokenErr error
	meCalls  int
}

func (f *fakeIdentity) Register(context.Context, repository.RegisterRequest) (*repository.ServerAck, error) {
	return &repository.ServerAck{}, nil
}

func (f *fakeIdentity) Token(_ context.Context, username, _ string) (*repository.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokenErr != nil {
		return nil, f.tokenErr
	}
	return &repository.TokenResponse{AccessToken: "token-" + username, TokenType: "bearer"}, nil
}

func (f *fakeIdentity) Me(context.Context, string) (*model.ProfilePatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	if f.meErr != nil {
		return nil, f.meErr
	}
	p := f.profile
	return &p, nil
}

func (f *fakeIdentity) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meCalls
}

func (f *fakeIdentity) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meErr = err
}

// fakeClinical answers every clinical call with canned data.
type fakeClinical struct {
	mu             sync.Mutex
	predictErr     error
	uploads        []model.PendingUpload
	historyCalls   int
	recordCalls    int
	analyticsCalls int
}

// fetches counts every data call made so far.
func (f *fakeClinical) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads) + f.historyCalls + f.recordCalls + f.analyticsCalls
}

func (f *fakeClinical) PredictImage(_ context.Context, _ string, upload model.PendingUpload) (*model.PredictionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, upload)
	if f.predictErr != nil {
		return nil, f.predictErr
	}
	return &model.PredictionResult{Class: "normal", Confidence: 0.93}, nil
}

func (f *fakeClinical) PredictionHistory(context.Context, string) ([]model.PredictionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	return []model.PredictionRecord{{ID: "p1", ClassPrediction: "normal", Confidence: 0.9}}, nil
}

func (f *fakeClinical) PredictionDetails(_ context.Context, _ string, id string) (*model.PredictionRecord, error) {
	if id != "p1" {
		return nil, &clinicapi.APIError{StatusCode: 404, Detail: "Prediction not found"}
	}
	return &model.PredictionRecord{ID: "p1", ClassPrediction: "normal"}, nil
}

func (f *fakeClinical) PatientRecords(context.Context, string) ([]model.PatientRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordCalls++
	return []model.PatientRecord{{ID: "r1", Name: "Jane"}}, nil
}

func (f *fakeClinical) PatientAnalytics(context.Context, string) (*model.Analytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyticsCalls++
	return &model.Analytics{TotalAnalyses: 7}, nil
}

type testPortal struct {
	app      *fiber.App
	handler  *portalhttp.PortalHandler
	identity *fakeIdentity
	clinical *fakeClinical
	gateway  *usecase.AuthGateway
	bus      *eventbus.EventBus
}

func newTestPortal(t *testing.T) *testPortal {
	t.Helper()
	log := logger.Nop()
	m := metrics.NewNop()

	tp := &testPortal{identity: &fakeIdentity{}, clinical: &fakeClinical{}, bus: eventbus.NewEventBus(log)}
	records := usecase.NewRecordStore(memory.NewClientStorage(), nil)
	sessions := usecase.NewSessionStore(records, log)
	tp.gateway = usecase.NewAuthGateway(tp.identity, sessions, records, security.NewJWTInspector(), tp.bus, m, log)
	cache := usecase.NewProfileCache(tp.gateway, m, log)

	handler, err := portalhttp.NewPortalHandler(portalhttp.HandlerDeps{
		Gateway:   tp.gateway,
		Profiles:  cache,
		Resolver:  usecase.NewRoleResolver(tp.gateway, cache, tp.bus, m, log),
		Clinical:  usecase.NewClinicalUsecase(tp.clinical, records, 0, m, log),
		Booking:   usecase.NewBookingUsecase(memory.NewAppointmentRepository(), records, m, log),
		Bus:       tp.bus,
		Metrics:   m,
		Logger:    log,
		LoginPath: "/auth",
	})
	require.NoError(t, err)
	tp.handler = handler

	tp.app = fiber.New(fiber.Config{ErrorHandler: portalhttp.ErrorHandler(log)})
	tp.app.Use(portalhttp.ClientIdentity(portalhttp.CookieConfig{Name: testCookie, MaxAge: time.Hour, SameSite: "Lax"}))
	handler.RegisterRoutes(tp.app)
	return tp
}

// do sends a request as the browser holding clientCookie and returns the
// response and the client cookie in effect afterwards.
func (tp *testPortal) do(t *testing.T, req *http.Request, clientCookie string) (*http.Response, string) {
	t.Helper()
	if clientCookie != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: clientCookie})
	}
	resp, err := tp.app.Test(req, -1)
	require.NoError(t, err)
	for _, c := range resp.Cookies() {
		if c.Name == testCookie {
			clientCookie = c.Value
		}
	}
	return resp, clientCookie
}

// login signs a fresh browser in and returns its client cookie.
func (tp *testPortal) login(t *testing.T, email string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("email="+email+"&password=pw"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, cookie := tp.do(t, req, "")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.NotEmpty(t, cookie)
	return cookie
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func menuLabels(t *testing.T, body map[string]interface{}) []string {
	t.Helper()
	shell, ok := body["shell"].(map[string]interface{})
	require.True(t, ok, "response has a shell")
	var labels []string
	for _, item := range shell["menu"].([]interface{}) {
		labels = append(labels, item.(map[string]interface{})["label"].(string))
	}
	return labels
}
