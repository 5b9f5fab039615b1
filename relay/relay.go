// Package relay implements the same-origin endpoints the storefront calls:
// a projects proxy that shields the backend listing URL and a ccep forwarder
// that injects the server-held settlement credential.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecotoken/storefront/config"
	"github.com/ecotoken/storefront/logger"
	"github.com/ecotoken/storefront/metrics"
	"github.com/ecotoken/storefront/types"
)

// Server is the relay HTTP server.
type Server struct {
	cfg        *config.Config
	log        logger.Logger
	rec        metrics.Recorder
	httpClient *http.Client
	engine     *gin.Engine
}

// Option configures the server.
type Option func(*Server)

func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

func WithMetrics(r metrics.Recorder) Option {
	return func(s *Server) { s.rec = r }
}

// WithHTTPClient overrides the outbound client used for upstream calls.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Server) { s.httpClient = c }
}

// New builds the relay server and its routes.
func New(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		log:        logger.NoopLogger{},
		rec:        metrics.NoopRecorder{},
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}

	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())

	root := engine.Group(cfg.BasePath)
	root.GET("/api/projects", s.handleProjects)
	root.POST("/api/ccep", s.handleCcep)
	root.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	root.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine = engine
	return s
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler { return s.engine }

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info("relay listening", map[string]any{"addr": s.cfg.ListenAddr, "base_path": s.cfg.BasePath})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// handleProjects proxies the backend listing service with cache disabled and
// permissive cross-origin headers on the way out.
func (s *Server) handleProjects(c *gin.Context) {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, s.cfg.ProjectsUpstreamURL, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.log.Error("projects upstream unreachable", map[string]any{"error": err.Error()})
		s.rec.IncCounter("projects_upstream_error", nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.log.Warn("projects upstream failed", map[string]any{"status": resp.StatusCode})
		s.rec.IncCounter("projects_upstream_error", nil)
		c.JSON(resp.StatusCode, gin.H{"error": "Failed to fetch projects"})
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET")
	c.Header("Access-Control-Allow-Headers", "Content-Type")
	c.Data(http.StatusOK, "application/json", body)
}

// handleCcep validates the receipt and forwards it to the external
// settlement API with the server credential. The client's Authorization
// header is never forwarded.
func (s *Server) handleCcep(c *gin.Context) {
	var receipt types.Receipt
	if err := c.ShouldBindJSON(&receipt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing transaction details"})
		return
	}

	if err := receipt.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload, err := json.Marshal(&receipt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, s.cfg.SettlementEndpoint, bytes.NewReader(payload))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", s.cfg.AuthToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.log.Error("settlement forward failed", map[string]any{"error": err.Error()})
		s.rec.IncCounter("receipt_forward_error", nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.log.Error("settlement rejected receipt", map[string]any{
			"status":  resp.StatusCode,
			"project": receipt.ProjectID,
		})
		s.rec.IncCounter("receipt_forward_error", nil)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Failed to submit transaction. Status: %d", resp.StatusCode),
		})
		return
	}

	var result interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	s.rec.IncCounter("receipt_forwarded", nil)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		s.rec.ObserveLatency("http_request", elapsed, map[string]string{"network": ""})
		s.log.With(map[string]any{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		}).Debug("request handled", map[string]any{"elapsed": elapsed.String()})
	}
}
