package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	authHTTP "github.com/capsulen/capsulen/internal/auth/http"
	authService "github.com/capsulen/capsulen/internal/auth/service"
	postHTTP "github.com/capsulen/capsulen/internal/post/http"
	userHTTP "github.com/capsulen/capsulen/internal/user/http"
)

// RouterDeps carries everything the router needs. MetricsMiddleware is
// optional; the rest is required.
type RouterDeps struct {
	Logger            *slog.Logger
	UserHandler       *userHTTP.UserHandler
	PostHandler       *postHTTP.PostHandler
	TokenAuthority    authService.TokenAuthority
	MetricsMiddleware gin.HandlerFunc

	CORSEnabled      bool
	CORSAllowOrigins string

	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int
}

// NewRouter assembles the Gin engine with all routes and middleware. The
// context controls the readiness endpoint: once it is cancelled, /ready
// reports 503 so load balancers drain the instance.
func NewRouter(ctx context.Context, deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(deps.Logger))

	if deps.MetricsMiddleware != nil {
		router.Use(deps.MetricsMiddleware)
	}

	if corsMiddleware := createCORSMiddleware(deps.CORSEnabled, deps.CORSAllowOrigins, deps.Logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", HealthHandler)
	router.GET("/ready", ReadinessHandler(ctx))

	// The credential endpoints are unauthenticated by nature; they carry the
	// rate limit instead of a token check.
	users := router.Group("/api/users")
	if deps.RateLimitEnabled {
		users.Use(IPRateLimitMiddleware(deps.RateLimitRPS, deps.RateLimitBurst, deps.Logger))
	}
	users.POST("/request_access", deps.UserHandler.RequestAccessHandler)
	users.POST("/create_user", deps.UserHandler.CreateUserHandler)
	users.POST("/request_login", deps.UserHandler.RequestLoginHandler)
	users.POST("/login", deps.UserHandler.LoginHandler)

	authorized := router.Group("/api", authHTTP.AuthMiddleware(deps.TokenAuthority, deps.Logger))
	authorized.POST("/posts", deps.PostHandler.CreateHandler)
	authorized.GET("/posts", deps.PostHandler.ListHandler)
	authorized.GET("/posts/:id", deps.PostHandler.GetHandler)
	authorized.DELETE("/posts/:id", deps.PostHandler.DeleteHandler)

	return router
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new HTTP server serving the given handler.
func NewServer(host string, port int, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
