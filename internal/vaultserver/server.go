// Package vaultserver implements the vault server: the twelve
// wire-protocol endpoints, each executed under a single lock over the
// session manager and object store.
package vaultserver

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"

	"github.com/allisson/vault/internal/session"
	"github.com/allisson/vault/internal/store"
)

// Server is the vault's HTTP server. mu is the single process-wide lock
// over the session table and the object store; every handler acquires it
// for the full duration of its state-touching work.
type Server struct {
	mu       sync.Mutex
	store    *store.Store
	sessions *session.Manager
	logger   *slog.Logger
	metrics  *Metrics

	router   *gin.Engine
	server   *http.Server
	reqGroup singleflight.Group

	corsEnabled      bool
	corsAllowOrigins string
}

// Options configures optional server behavior beyond the mandatory
// store/sessions/logger/metrics wiring.
type Options struct {
	CORSEnabled      bool
	CORSAllowOrigins string
}

// NewServer creates a vault server backed by st and sessions, listening on
// host:port.
func NewServer(st *store.Store, sessions *session.Manager, logger *slog.Logger, metrics *Metrics, host string, port int, opts Options) *Server {
	s := &Server{
		store:            st,
		sessions:         sessions,
		logger:           logger,
		metrics:          metrics,
		corsEnabled:      opts.CORSEnabled,
		corsAllowOrigins: opts.CORSAllowOrigins,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(s.loggingMiddleware())
	if s.metrics != nil {
		router.Use(s.metrics.HTTPMiddleware())
	}
	if cm := corsMiddleware(s.corsEnabled, s.corsAllowOrigins, s.logger); cm != nil {
		router.Use(cm)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.POST("/create_organization", s.handleCreateOrganization)
	router.POST("/unlock_vault", s.handleUnlockVault)
	router.POST("/revoke_user", s.handleRevokeUser)
	router.POST("/revoke_token", s.handleRevokeToken)
	router.POST("/new_document", s.handleNewDocument)
	router.POST("/list_documents", s.handleListDocuments)
	router.POST("/get_document_key", s.handleGetDocumentKey)
	router.POST("/get_document", s.handleGetDocument)
	router.POST("/update_document", s.handleUpdateDocument)
	router.POST("/delete_document", s.handleDeleteDocument)
	router.POST("/get_public_key_of_organization", s.handleGetPublicKeyOfOrganization)
	router.POST("/add_owner", s.handleAddOwner)

	s.router = router
}

// Handler exposes the router for the in-process transport binding and
// for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTPS listener. The caller supplies tlsConfig (TLS 1.3
// floor, server certificate).
func (s *Server) Start(tlsConfig *tls.Config) error {
	s.server.Handler = s.router
	if tlsConfig != nil {
		s.server.TLSConfig = tlsConfig
		s.logger.Info("starting vault server", slog.String("addr", s.server.Addr), slog.Bool("tls", true))
		err := s.server.ListenAndServeTLS("", "")
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
	s.logger.Info("starting vault server", slog.String("addr", s.server.Addr), slog.Bool("tls", false))
	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down vault server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	v, _, _ := s.reqGroup.Do("health", func() (interface{}, error) {
		return gin.H{"status": "healthy"}, nil
	})
	c.JSON(http.StatusOK, v)
}

func (s *Server) readinessHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
