// Package di provides dependency injection container for managing service lifecycle and dependencies.
package di

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"devopsquiz/internal/catalog"
	"devopsquiz/internal/config"
	"devopsquiz/internal/database"
	"devopsquiz/internal/observability"
	"devopsquiz/internal/secrets"
	"devopsquiz/internal/services"
	contextutils "devopsquiz/internal/utils"
)

// Service names
const (
	ServiceAI         = "ai"
	ServiceQuiz       = "quiz"
	ServiceUsageStats = "usage_stats"
)

// ServiceContainerInterface defines the interface for service containers
type ServiceContainerInterface interface {
	GetService(name string) (interface{}, error)
	GetAIService() (services.AIServiceInterface, error)
	GetQuizService() (services.QuizServiceInterface, error)
	GetUsageStatsService() (services.UsageStatsServiceInterface, error)
	GetCatalog() *catalog.Catalog
	GetDatabase() *sql.DB
	GetConfig() *config.Config
	GetLogger() *observability.Logger
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Option customizes a ServiceContainer
type Option func(*ServiceContainer)

// WithCompleter makes the container use completer instead of building one
// from the resolved API key
func WithCompleter(completer services.Completer) Option {
	return func(sc *ServiceContainer) {
		sc.completer = completer
	}
}

// WithResolver replaces the API key resolver
func WithResolver(resolver *secrets.Resolver) Option {
	return func(sc *ServiceContainer) {
		sc.resolver = resolver
	}
}

// ServiceContainer manages all service dependencies and lifecycle
type ServiceContainer struct {
	cfg       *config.Config
	logger    *observability.Logger
	dbManager *database.Manager
	db        *sql.DB
	catalog   *catalog.Catalog
	resolver  *secrets.Resolver
	completer services.Completer

	services      map[string]interface{}
	order         []string
	mu            sync.RWMutex
	shutdownFuncs []func(context.Context) error
}

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger, opts ...Option) *ServiceContainer {
	sc := &ServiceContainer{
		cfg:      cfg,
		logger:   logger,
		services: make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(sc)
	}
	if sc.resolver == nil {
		sc.resolver = secrets.NewResolver(cfg.AWS, logger)
	}
	return sc
}

// Initialize sets up all services and their dependencies
func (sc *ServiceContainer) Initialize(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.cfg.UsageStatsEnabled() {
		sc.dbManager = database.NewManager(sc.logger)
		db, err := sc.dbManager.InitDB(ctx, sc.cfg.Database)
		if err != nil {
			return contextutils.WrapErrorf(err, "failed to initialize database: %w", err)
		}
		sc.db = db
		sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
			return db.Close()
		})
	}

	cat, err := catalog.Load(sc.cfg.Catalog.Path)
	if err != nil {
		_ = sc.cleanup(ctx)
		return contextutils.WrapErrorf(err, "failed to load topic catalog: %w", err)
	}
	sc.catalog = cat

	if err := sc.initializeServices(ctx); err != nil {
		_ = sc.cleanup(ctx)
		return err
	}
	return nil
}

// initializeServices sets up all service dependencies
func (sc *ServiceContainer) initializeServices(ctx context.Context) error {
	// Usage stats degrade to a no-op without a database
	usageStatsService := services.NewUsageStatsService(sc.db, sc.logger)
	sc.register(ServiceUsageStats, usageStatsService)

	completer := sc.completer
	if completer == nil {
		resolution, err := sc.resolver.ResolveAPIKey(ctx, sc.cfg.AI)
		if err != nil {
			return err
		}
		completer, err = services.NewCompleter(sc.cfg.AI, resolution.Value)
		if err != nil {
			return err
		}
		sc.logger.Info(ctx, "Completion API configured", map[string]interface{}{
			"provider":   completer.Provider(),
			"model":      completer.Model(),
			"key_source": string(resolution.Source),
			"key":        resolution.Masked(),
		})
	}

	metrics, err := observability.NewQuizMetrics()
	if err != nil {
		return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create metrics: %w", err)
	}

	aiService, err := services.NewAIService(sc.cfg, completer, usageStatsService, metrics, sc.logger)
	if err != nil {
		return err
	}
	sc.register(ServiceAI, aiService)

	quizService := services.NewQuizService(sc.catalog, aiService, sc.logger)
	sc.register(ServiceQuiz, quizService)

	return nil
}

func (sc *ServiceContainer) register(name string, service interface{}) {
	sc.services[name] = service
	sc.order = append(sc.order, name)
}

// GetService retrieves a service by name with type assertion
func (sc *ServiceContainer) GetService(name string) (interface{}, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	service, exists := sc.services[name]
	if !exists {
		return nil, contextutils.WrapErrorf(contextutils.ErrNotFound, "service %s not found", name)
	}
	return service, nil
}

// GetServiceAs performs type-safe service retrieval
func GetServiceAs[T any](sc *ServiceContainer, name string) (T, error) {
	var zero T
	service, err := sc.GetService(name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(T)
	if !ok {
		return zero, contextutils.ErrorWithContextf("service %s is not of expected type %T", name, zero)
	}
	return typed, nil
}

// GetAIService returns the AI service
func (sc *ServiceContainer) GetAIService() (services.AIServiceInterface, error) {
	return GetServiceAs[services.AIServiceInterface](sc, ServiceAI)
}

// GetQuizService returns the quiz flow service
func (sc *ServiceContainer) GetQuizService() (services.QuizServiceInterface, error) {
	return GetServiceAs[services.QuizServiceInterface](sc, ServiceQuiz)
}

// GetUsageStatsService returns the usage stats service
func (sc *ServiceContainer) GetUsageStatsService() (services.UsageStatsServiceInterface, error) {
	return GetServiceAs[services.UsageStatsServiceInterface](sc, ServiceUsageStats)
}

// GetCatalog returns the topic table
func (sc *ServiceContainer) GetCatalog() *catalog.Catalog {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.catalog
}

// GetDatabase returns the database handle, nil when no database is configured
func (sc *ServiceContainer) GetDatabase() *sql.DB {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.db
}

// GetConfig returns the configuration
func (sc *ServiceContainer) GetConfig() *config.Config {
	return sc.cfg
}

// GetLogger returns the logger
func (sc *ServiceContainer) GetLogger() *observability.Logger {
	return sc.logger
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return sc.cleanup(ctx)
}

// cleanup shuts services down in reverse registration order, then runs the
// shutdown functions in reverse order
func (sc *ServiceContainer) cleanup(ctx context.Context) error {
	var errs []error

	for i := len(sc.order) - 1; i >= 0; i-- {
		name := sc.order[i]
		lifecycleService, ok := sc.services[name].(interface{ Shutdown(context.Context) error })
		if !ok {
			continue
		}
		sc.logger.Info(ctx, "Shutting down service", map[string]interface{}{"service": name})
		if err := lifecycleService.Shutdown(ctx); err != nil {
			sc.logger.Error(ctx, "Failed to shutdown service", err, map[string]interface{}{"service": name})
			errs = append(errs, contextutils.WrapErrorf(err, "service %s shutdown failed: %w", name, err))
		}
	}

	for i := len(sc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := sc.shutdownFuncs[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	sc.shutdownFuncs = nil
	sc.services = make(map[string]interface{})
	sc.order = nil

	return errors.Join(errs...)
}
