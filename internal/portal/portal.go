package portal

import (
	"context"
	"fmt"

	"afi-portal/internal/portal/adapter/clinicapi"
	portalhttp "afi-portal/internal/portal/adapter/http"
	"afi-portal/internal/portal/adapter/security"
	"afi-portal/internal/portal/config"
	"afi-portal/internal/portal/domain/repository"
	"afi-portal/internal/portal/usecase"
	"afi-portal/internal/shared/eventbus"
	"afi-portal/internal/shared/logger"
	"afi-portal/internal/shared/metrics"

	"github.com/gofiber/fiber/v2"
)

// PortalModule represents the complete clinical portal
type PortalModule struct {
	config       *config.Config
	records      *usecase.RecordStore
	appointments repository.AppointmentRepository
	bus          eventbus.EventBusInterface
	gateway      usecase.AuthGatewayInterface
	profiles     usecase.ProfileCacheInterface
	resolver     usecase.RoleResolverInterface
	clinical     usecase.ClinicalUsecaseInterface
	booking      usecase.BookingUsecaseInterface
	handler      *portalhttp.PortalHandler
	metrics      *metrics.Metrics
	logger       logger.Logger
}

// NewPortalModule wires the portal on top of the given storage backends.
func NewPortalModule(
	cfg *config.Config,
	storage repository.ClientStorage,
	appointments repository.AppointmentRepository,
	m *metrics.Metrics,
	log logger.Logger,
) (*PortalModule, error) {
	sealKey, err := cfg.SealKey()
	if err != nil {
		return nil, err
	}
	sealers, err := security.NewSealerFactory(sealKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create record sealer: %w", err)
	}

	api := clinicapi.NewClient(clinicapi.Config{
		BaseURL:           cfg.ClinicalAPIURL,
		AuthTimeout:       cfg.AuthTimeout,
		DataTimeout:       cfg.DataTimeout,
		PredictionTimeout: cfg.PredictionTimeout,
	}, log, m)

	bus := eventbus.NewEventBus(log)
	records := usecase.NewRecordStore(storage, sealers)
	sessions := usecase.NewSessionStore(records, log)
	gateway := usecase.NewAuthGateway(api, sessions, records, security.NewJWTInspector(), bus, m, log)
	profiles := usecase.NewProfileCache(gateway, m, log)
	resolver := usecase.NewRoleResolver(gateway, profiles, bus, m, log)
	clinical := usecase.NewClinicalUsecase(api, records, cfg.MaxUploadBytes, m, log)
	booking := usecase.NewBookingUsecase(appointments, records, m, log)

	handler, err := portalhttp.NewPortalHandler(portalhttp.HandlerDeps{
		Gateway:      gateway,
		Profiles:     profiles,
		Resolver:     resolver,
		Clinical:     clinical,
		Booking:      booking,
		Bus:          bus,
		Metrics:      m,
		Logger:       log,
		LoginPath:    cfg.LoginPath,
		LoginLimiter: portalhttp.LoginRateLimiter(cfg.LoginRateLimit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create portal handler: %w", err)
	}

	return &PortalModule{
		config:       cfg,
		records:      records,
		appointments: appointments,
		bus:          bus,
		gateway:      gateway,
		profiles:     profiles,
		resolver:     resolver,
		clinical:     clinical,
		booking:      booking,
		handler:      handler,
		metrics:      m,
		logger:       log,
	}, nil
}

// RegisterRoutes registers the client identity middleware, the views and the
// actions of the portal.
func (pm *PortalModule) RegisterRoutes(router fiber.Router) {
	router.Use(portalhttp.ClientIdentity(portalhttp.CookieConfig{
		Name:     pm.config.ClientCookieName,
		MaxAge:   pm.config.CookieMaxAge,
		Secure:   pm.config.CookieSecure,
		SameSite: pm.config.CookieSameSite,
	}))
	pm.handler.RegisterRoutes(router)
}

// GetGateway returns the auth gateway for external access
func (pm *PortalModule) GetGateway() usecase.AuthGatewayInterface {
	return pm.gateway
}

// GetEventBus returns the session event bus
func (pm *PortalModule) GetEventBus() eventbus.EventBusInterface {
	return pm.bus
}

// HealthCheck pings the client storage and the appointment store.
func (pm *PortalModule) HealthCheck(ctx context.Context) error {
	if err := pm.records.Ping(ctx); err != nil {
		return fmt.Errorf("client storage health check failed: %w", err)
	}
	if err := pm.appointments.Ping(ctx); err != nil {
		return fmt.Errorf("appointment store health check failed: %w", err)
	}
	return nil
}

// Stop performs cleanup when the module is shut down
func (pm *PortalModule) Stop() error {
	return nil
}
