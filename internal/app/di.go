// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/gin-gonic/gin"

	authDomain "github.com/capsulen/capsulen/internal/auth/domain"
	authService "github.com/capsulen/capsulen/internal/auth/service"
	"github.com/capsulen/capsulen/internal/config"
	"github.com/capsulen/capsulen/internal/database"
	"github.com/capsulen/capsulen/internal/http"
	inviteUsecase "github.com/capsulen/capsulen/internal/invite/usecase"
	"github.com/capsulen/capsulen/internal/metrics"
	"github.com/capsulen/capsulen/internal/opaqueid"
	postHTTP "github.com/capsulen/capsulen/internal/post/http"
	postUsecase "github.com/capsulen/capsulen/internal/post/usecase"
	userHTTP "github.com/capsulen/capsulen/internal/user/http"
	userService "github.com/capsulen/capsulen/internal/user/service"
	userUsecase "github.com/capsulen/capsulen/internal/user/usecase"
)

// inviteRepository combines the invite operations the use cases depend on.
// Both SQL implementations satisfy it.
type inviteRepository interface {
	inviteUsecase.InviteRepository
	userUsecase.InviteRepository
}

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Managers
	txManager database.TxManager

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Auth
	signingKey     *authDomain.SigningKey
	tokenAuthority authService.TokenAuthority

	// Services
	challengeService userService.ChallengeService

	// Repositories
	userRepo    userUsecase.UserRepository
	inviteRepo  inviteRepository
	postRepo    postUsecase.PostRepository
	opaqueCodec *opaqueid.Codec

	// Use Cases
	userUseCase   userUsecase.UseCase
	inviteUseCase inviteUsecase.UseCase
	postUseCase   postUsecase.UseCase

	// Handlers
	userHandler *userHTTP.UserHandler
	postHandler *postHTTP.PostHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                   sync.Mutex
	loggerInit           sync.Once
	dbInit               sync.Once
	txManagerInit        sync.Once
	metricsInit          sync.Once
	signingKeyInit       sync.Once
	tokenAuthorityInit   sync.Once
	challengeServiceInit sync.Once
	userRepoInit         sync.Once
	inviteRepoInit       sync.Once
	postRepoInit         sync.Once
	opaqueCodecInit      sync.Once
	userUseCaseInit      sync.Once
	inviteUseCaseInit    sync.Once
	postUseCaseInit      sync.Once
	userHandlerInit      sync.Once
	postHandlerInit      sync.Once
	httpServerInit       sync.Once
	metricsServerInit    sync.Once
	initErrors           map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := c.initDB()
		if err != nil {
			c.initErrors["db"] = err
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		txManager, err := c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
			return
		}
		c.txManager = txManager
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are
// disabled by configuration.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	if err := c.ensureMetrics(); err != nil {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. When metrics are
// disabled this is a no-op implementation.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	if err := c.ensureMetrics(); err != nil {
		return nil, err
	}
	return c.businessMetrics, nil
}

func (c *Container) ensureMetrics() error {
	c.metricsInit.Do(func() {
		if err := c.initMetrics(); err != nil {
			c.initErrors["metrics"] = err
		}
	})
	if storedErr, exists := c.initErrors["metrics"]; exists {
		return storedErr
	}
	return nil
}

// HTTPServer returns the HTTP server instance. The context is propagated to
// the readiness handler so it can report not-ready once shutdown begins.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	c.httpServerInit.Do(func() {
		server, err := c.initHTTPServer(ctx)
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		c.httpServer = server
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics HTTP server instance.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		server, err := c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		c.metricsServer = server
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP server if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	// Shutdown metrics server if initialized
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Flush the metrics pipeline if initialized
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initMetrics creates the metrics provider and business metrics recorder.
// When metrics are disabled the provider stays nil and recording is a no-op.
func (c *Container) initMetrics() error {
	if !c.config.MetricsEnabled {
		c.businessMetrics = metrics.NewNoOpBusinessMetrics()
		return nil
	}

	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return fmt.Errorf("failed to create metrics provider: %w", err)
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}

	c.metricsProvider = provider
	c.businessMetrics = businessMetrics
	return nil
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer(ctx context.Context) (*http.Server, error) {
	logger := c.Logger()

	userHandler, err := c.UserHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get user handler for http server: %w", err)
	}

	postHandler, err := c.PostHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get post handler for http server: %w", err)
	}

	tokenAuthority, err := c.TokenAuthority()
	if err != nil {
		return nil, fmt.Errorf("failed to get token authority for http server: %w", err)
	}

	var metricsMiddleware gin.HandlerFunc
	if c.config.MetricsEnabled {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
		}
		metricsMiddleware = metrics.HTTPMetricsMiddleware(provider.MeterProvider(), c.config.MetricsNamespace)
	}

	router := http.NewRouter(ctx, http.RouterDeps{
		Logger:            logger,
		UserHandler:       userHandler,
		PostHandler:       postHandler,
		TokenAuthority:    tokenAuthority,
		MetricsMiddleware: metricsMiddleware,
		CORSEnabled:       c.config.CORSEnabled,
		CORSAllowOrigins:  c.config.CORSAllowOrigins,
		RateLimitEnabled:  c.config.RateLimitEnabled,
		RateLimitRPS:      c.config.RateLimitRequestsPerSec,
		RateLimitBurst:    c.config.RateLimitBurst,
	})

	return http.NewServer(c.config.ServerHost, c.config.ServerPort, router, logger), nil
}

// initMetricsServer creates the metrics HTTP server.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}
