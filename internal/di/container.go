package di

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"afi-portal/internal/portal"
	"afi-portal/internal/portal/adapter/persistence/memory"
	mongostore "afi-portal/internal/portal/adapter/persistence/mongodb"
	redisstore "afi-portal/internal/portal/adapter/persistence/redis"
	"afi-portal/internal/portal/config"
	"afi-portal/internal/portal/domain/repository"
	"afi-portal/internal/shared/logger"
	"afi-portal/internal/shared/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// Container owns the backends and the portal module with their lifecycle.
type Container struct {
	mu       sync.RWMutex
	services map[reflect.Type]interface{}
	// Module instances
	PortalModule *portal.PortalModule
	// Backends
	Redis   *redis.Client
	MongoDB *mongo.Database
	// Observability
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	// Configuration
	Config *config.Config
	Logger logger.Logger
}

// NewContainer creates an empty container with its own metrics registry.
func NewContainer(cfg *config.Config, log logger.Logger) *Container {
	if log == nil {
		log = logger.NewLogger()
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c := &Container{
		services: make(map[reflect.Type]interface{}),
		Registry: registry,
		Metrics:  metrics.NewMetrics(registry),
		Config:   cfg,
		Logger:   log,
	}
	_ = c.Register(registry)
	_ = c.Register(c.Metrics)
	return c
}

// InitializePortal connects the configured backends and builds the portal
// module on top of them. Redis backs client storage when REDIS_ADDR is set and
// MongoDB backs appointments when MONGODB_URI is set. Otherwise both live in
// process memory.
func (c *Container) InitializePortal(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	storage, err := c.clientStorage(ctx)
	if err != nil {
		return err
	}
	appointments, err := c.appointmentRepository(ctx)
	if err != nil {
		return err
	}

	portalModule, err := portal.NewPortalModule(c.Config, storage, appointments, c.Metrics, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create portal module: %w", err)
	}
	c.PortalModule = portalModule
	c.services[reflect.TypeOf(portalModule).Elem()] = portalModule
	return nil
}

func (c *Container) clientStorage(ctx context.Context) (repository.ClientStorage, error) {
	if c.Config.RedisAddr == "" {
		c.Logger.Warn("REDIS_ADDR not set, client records are kept in memory")
		return memory.NewClientStorage(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.Config.RedisAddr,
		Password: c.Config.RedisPassword,
		DB:       c.Config.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", c.Config.RedisAddr, err)
	}
	c.Redis = client
	c.Logger.Info("Redis client storage connected", zap.String("addr", c.Config.RedisAddr))
	return redisstore.NewClientStorage(client, c.Config.SessionKeyPrefix, c.Config.SessionIdleTTL, c.Logger), nil
}

func (c *Container) appointmentRepository(ctx context.Context) (repository.AppointmentRepository, error) {
	if c.Config.MongoDBURI == "" {
		c.Logger.Warn("MONGODB_URI not set, appointments are kept in memory")
		return memory.NewAppointmentRepository(), nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(c.Config.MongoDBURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	c.MongoDB = client.Database(c.Config.DatabaseName)

	repo, err := mongostore.NewMongoAppointmentRepository(connectCtx, c.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("failed to create appointment repository: %w", err)
	}
	c.Logger.Info("MongoDB appointment store connected", zap.String("database", c.Config.DatabaseName))
	return repo, nil
}

// Register registers a service instance
func (c *Container) Register(service interface{}) error {
	if service == nil {
		return fmt.Errorf("cannot register a nil service")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	serviceType := reflect.TypeOf(service)
	if serviceType.Kind() == reflect.Ptr {
		serviceType = serviceType.Elem()
	}
	c.services[serviceType] = service
	return nil
}

// Resolve resolves a service by type
func (c *Container) Resolve(serviceType reflect.Type) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if serviceType != nil && serviceType.Kind() == reflect.Ptr {
		serviceType = serviceType.Elem()
	}
	if service, exists := c.services[serviceType]; exists {
		return service, nil
	}
	return nil, fmt.Errorf("service of type %v not registered", serviceType)
}

// GetService is a generic helper for resolving services
func GetService[T any](c *Container) (T, error) {
	var zero T
	serviceType := reflect.TypeOf((*T)(nil)).Elem()

	service, err := c.Resolve(serviceType)
	if err != nil {
		return zero, err
	}
	if typedService, ok := service.(T); ok {
		return typedService, nil
	}
	return zero, fmt.Errorf("service is not of expected type %T", zero)
}

// GetPortalModule returns the portal module instance
func (c *Container) GetPortalModule() *portal.PortalModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.PortalModule
}

// HealthCheck pings every backend the portal depends on.
func (c *Container) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.PortalModule == nil {
		return fmt.Errorf("portal module not initialized")
	}
	return c.PortalModule.HealthCheck(ctx)
}

// Cleanup stops the module and closes the backends in reverse order of
// initialization.
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error

	if c.PortalModule != nil {
		if err := c.PortalModule.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop portal module: %w", err))
		}
		c.PortalModule = nil
	}
	if c.MongoDB != nil {
		if err := c.MongoDB.Client().Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to disconnect MongoDB: %w", err))
		}
		c.MongoDB = nil
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
		c.Redis = nil
	}

	c.services = make(map[reflect.Type]interface{})

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// Close gracefully shuts down all services in the container with timeout
func (c *Container) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Cleanup(ctx); err != nil {
		c.Logger.Warn("cleanup errors occurred", zap.Error(err))
		return err
	}
	c.Logger.Info("container resources closed")
	return nil
}
