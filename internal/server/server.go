// Package server implements the canonical remote record service that agents
// push to and pull from.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"winrec/internal/database"
	"winrec/internal/infrastructure/logging"
)

const (
	DefaultAddress = ":8000"
	DefaultLimit   = 100
	MaxLimit       = 20000

	shutdownTimeout = 5 * time.Second
)

// Config configures the remote service
type Config struct {
	Address string
	// APIKey guards writes. Empty disables authentication.
	APIKey string
	// Location is the timezone day keys are computed in
	Location *time.Location
	// RequireAuthReads also guards GET /logs, /days and /summary
	RequireAuthReads bool
	DefaultLimit     int
	MaxLimit         int
}

func (c Config) withDefaults() Config {
	if c.Address == "" {
		c.Address = DefaultAddress
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = MaxLimit
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = DefaultLimit
	}
	if c.DefaultLimit > c.MaxLimit {
		c.DefaultLimit = c.MaxLimit
	}
	return c
}

// Server serves the record store over HTTP
type Server struct {
	config    Config
	dbService database.Service
	store     *Store
	engine    *gin.Engine
	logger    logging.Logger
}

// New creates the service over a database migrated with the canonical set
func New(dbService database.Service, config Config, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	config = config.withDefaults()
	s := &Server{
		config:    config,
		dbService: dbService,
		store:     NewStore(dbService, config.Location),
		logger:    logging.With(logger, "component", "server"),
	}
	if config.APIKey == "" {
		s.logger.Warn("No API key configured, writes will be refused")
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), accessLog(s.logger))

	engine.GET("/", s.welcome)
	engine.GET("/healthz", s.health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	writes := engine.Group("/", requireKey(s.config.APIKey))
	{
		writes.POST("/log", s.createLog)
		writes.DELETE("/clear-data", s.clearData)
	}

	readKey := ""
	if s.config.RequireAuthReads {
		readKey = s.config.APIKey
	}
	reads := engine.Group("/", requireKey(readKey))
	{
		reads.GET("/logs", s.listLogs)
		reads.GET("/days", s.days)
		reads.GET("/summary/:day", s.summary)
	}
	return engine
}

// Handler returns the HTTP handler of the service
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Store returns the record store
func (s *Server) Store() *Store {
	return s.store
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Remote service listening", "address", s.config.Address, "timezone", s.config.Location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen on %s: %w", s.config.Address, err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("Remote service stopped")
	return nil
}
