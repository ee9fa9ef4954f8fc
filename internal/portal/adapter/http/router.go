package http

import (
	"afi-portal/internal/portal/domain/model"
	"afi-portal/internal/portal/usecase"
	"afi-portal/internal/shared/eventbus"
	"afi-portal/internal/shared/logger"
	"afi-portal/internal/shared/metrics"

	"github.com/gofiber/fiber/v2"
)

// viewFunc builds the view model of one page.
type viewFunc func(c *fiber.Ctx, caller model.Caller) (interface{}, error)

// Route is one entry of the view table. Protected routes run behind the
// access guard; public routes always render.
type Route struct {
	Path   string
	Public bool
	View   viewFunc
}

// PortalHandler serves the views and actions of the portal.
type PortalHandler struct {
	gateway  usecase.AuthGatewayInterface
	resolver usecase.RoleResolverInterface
	clinical usecase.ClinicalUsecaseInterface
	booking  usecase.BookingUsecaseInterface
	shell    *ShellBuilder
	guard    *AccessGuard
	feed     *SessionFeed
	limiter  fiber.Handler
	logger   logger.Logger
}

// HandlerDeps groups the collaborators of the portal handler.
type HandlerDeps struct {
	Gateway   usecase.AuthGatewayInterface
	Profiles  usecase.ProfileCacheInterface
	Resolver  usecase.RoleResolverInterface
	Clinical  usecase.ClinicalUsecaseInterface
	Booking   usecase.BookingUsecaseInterface
	Bus       eventbus.EventBusInterface
	Metrics   *metrics.Metrics
	Logger    logger.Logger
	LoginPath string
	// LoginLimiter guards the credential endpoints. Nil disables it.
	LoginLimiter fiber.Handler
}

// NewPortalHandler wires the handler and compiles the shell menus.
func NewPortalHandler(deps HandlerDeps) (*PortalHandler, error) {
	shell, err := NewShellBuilder()
	if err != nil {
		return nil, err
	}
	limiter := deps.LoginLimiter
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &PortalHandler{
		gateway:  deps.Gateway,
		resolver: deps.Resolver,
		clinical: deps.Clinical,
		booking:  deps.Booking,
		shell:    shell,
		guard:    NewAccessGuard(deps.Profiles, deps.LoginPath, deps.Metrics, deps.Logger),
		feed:     NewSessionFeed(deps.Gateway, deps.Bus, deps.Metrics, deps.Logger),
		limiter:  limiter,
		logger:   deps.Logger.WithComponent("portal_http"),
	}, nil
}

// Routes returns the view table.
func (h *PortalHandler) Routes() []Route {
	return []Route{
		{Path: "/", Public: true, View: h.landingView},
		{Path: "/auth", Public: true, View: h.authView("login")},
		{Path: "/login", Public: true, View: h.authView("login")},
		{Path: "/register", Public: true, View: h.authView("register")},

		{Path: "/dashboard", View: h.dashboardView},
		{Path: "/appointments", View: h.appointmentsView},
		{Path: "/external-booking", View: h.externalBookingView},
		{Path: "/schedule", View: h.scheduleView},
		{Path: "/patient-records", View: h.patientRecordsView},
		{Path: "/analysis-history", View: h.analysisHistoryView},
		{Path: "/reports", View: h.reportsView},
		{Path: "/health-records", View: h.healthRecordsView},
		{Path: "/medical-history", View: h.medicalHistoryView},
		{Path: "/reference-videos", View: h.referenceVideosView},
		{Path: "/health-tips", View: h.healthTipsView},
		{Path: "/doctors", View: h.doctorsView},
		{Path: "/settings", View: h.settingsView},
	}
}

// RegisterRoutes mounts views and actions on router. Every protected view is
// wrapped by the same guard.
func (h *PortalHandler) RegisterRoutes(router fiber.Router) {
	protect := h.guard.Protect()

	for _, r := range h.Routes() {
		if r.Public {
			router.Get(r.Path, h.renderPublic(r))
		} else {
			router.Get(r.Path, protect, h.renderProtected(r))
		}
	}

	router.Post("/login", h.limiter, h.Login)
	router.Post("/register", h.limiter, h.Register)
	router.Post("/logout", h.Logout)

	router.Post("/dashboard/predict", protect, h.Predict)
	router.Post("/dashboard/predict/retry", protect, h.RetryPrediction)
	router.Post("/dashboard/predict/discard", protect, h.DiscardUpload)
	router.Get("/analysis-history/:id", protect, h.PredictionDetails)

	wizard := router.Group("/appointments", protect)
	wizard.Post("/next", h.BookingNext)
	wizard.Post("/back", h.BookingBack)
	wizard.Post("/confirm", h.BookingConfirm)
	wizard.Post("/reset", h.BookingReset)

	router.Get("/api/portal/session", h.SessionStatus)
	h.feed.RegisterRoutes(router)
}

func (h *PortalHandler) renderPublic(r Route) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := r.View(c, callerOf(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"view": view})
	}
}

func (h *PortalHandler) renderProtected(r Route) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := callerOf(c)
		view, err := r.View(c, caller)
		if err != nil {
			return respondError(c, err)
		}
		return h.render(c, fiber.StatusOK, caller, r.Path, view)
	}
}

// render answers with the shell of path around view.
func (h *PortalHandler) render(c *fiber.Ctx, status int, caller model.Caller, path string, view interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"shell": h.shell.Build(caller, path),
		"view":  view,
	})
}
