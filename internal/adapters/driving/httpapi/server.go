// Package httpapi exposes the connector framework over HTTP. Routes are
// authenticated with a JWT bearer token whose subject is the user id; the
// OAuth callback route is the one public exception, since providers redirect
// the user's browser there without our token.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brokerdesk/connect/internal/core/ports/driving"
	"github.com/brokerdesk/connect/internal/logger"
)

// Config holds the server configuration.
type Config struct {
	// Addr is the listen address, host:port.
	Addr string
	// JWTSecret verifies API bearer tokens (HS256).
	JWTSecret string
	// PostAuthRedirect is where the OAuth callback sends the browser after
	// completing (or failing) an authorization. Defaults to "/".
	PostAuthRedirect string

	Connections driving.ConnectionService
	Fetch       driving.FetchService
}

// Server is the HTTP API server.
type Server struct {
	cfg    Config
	engine *gin.Engine
}

// NewServer creates the server and registers all routes.
func NewServer(cfg Config) *Server {
	if cfg.PostAuthRedirect == "" {
		cfg.PostAuthRedirect = "/"
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	s := &Server{cfg: cfg, engine: engine}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	// The provider redirects the user's browser here; it cannot carry our
	// bearer token, so the route is public and trusts only the state value
	// the flow started with.
	s.engine.GET("/api/connect/:provider/callback", s.handleCallback)

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api")
	api.Use(authMiddleware(s.cfg.JWTSecret))

	api.GET("/connect/:provider/url", s.handleAuthURL)
	api.DELETE("/connect/:provider", s.handleDisconnect)

	api.GET("/connections/status", s.handleStatus)
	api.GET("/connections/:provider/test", s.handleTestConnection)

	providers := api.Group("/providers/:provider")
	providers.GET("/accounts", s.handleAccounts)
	providers.GET("/contacts", s.handleContacts)
	providers.GET("/activities", s.handleActivities)
	providers.GET("/emails", s.handleEmails)
	providers.GET("/events", s.handleCalendarEvents)
}

// Handler returns the underlying handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http api listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
