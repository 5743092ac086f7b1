// Package server is the HTTP boundary: routing, middleware, error
// translation, and response shaping. It owns no business logic; everything
// behind it is the payment gate and the orchestrator.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cronosai/opsgate/clients"
	"github.com/cronosai/opsgate/config"
	"github.com/cronosai/opsgate/logger"
	"github.com/cronosai/opsgate/orchestrator"
	"github.com/cronosai/opsgate/payment"
	"github.com/cronosai/opsgate/registry"
)

// Server wires the gateway's HTTP surface.
type Server struct {
	cfg          *config.Config
	registry     *registry.Registry
	gate         *payment.Gate
	orchestrator *orchestrator.Orchestrator
	chain        clients.Chain
	text         clients.TextGenerator
	gatherer     prometheus.Gatherer
	log          logger.Logger

	engine *gin.Engine
}

// Options configures a Server. Chain, Text and Gatherer may be nil; the
// corresponding health checks and the metrics endpoint degrade gracefully.
type Options struct {
	Config       *config.Config
	Registry     *registry.Registry
	Gate         *payment.Gate
	Orchestrator *orchestrator.Orchestrator
	Chain        clients.Chain
	Text         clients.TextGenerator
	Gatherer     prometheus.Gatherer
	Log          logger.Logger
}

// New builds the server and its router.
func New(opts Options) *Server {
	if opts.Log == nil {
		opts.Log = logger.NoopLogger{}
	}
	s := &Server{
		cfg:          opts.Config,
		registry:     opts.Registry,
		gate:         opts.Gate,
		orchestrator: opts.Orchestrator,
		chain:        opts.Chain,
		text:         opts.Text,
		gatherer:     opts.Gatherer,
		log:          opts.Log,
	}
	s.engine = s.buildRouter()
	return s
}

// Engine exposes the router, primarily for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until the context is cancelled, then drains with a bounded
// shutdown window.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) buildRouter() *gin.Engine {
	if s.cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(requestID())
	r.Use(s.requestLogger())
	r.Use(s.recovery())
	r.Use(corsMiddleware(s.cfg.FrontendURL))

	infoLimit := newRateLimiter(s.cfg.InfoRateLimit, s.cfg.RateLimitWindow)
	capLimit := newRateLimiter(s.cfg.CapabilityRateLimit, s.cfg.RateLimitWindow)

	r.GET("/health", infoLimit.middleware(), s.handleHealth)
	r.GET("/network", infoLimit.middleware(), s.handleNetwork)
	r.GET("/capability", infoLimit.middleware(), s.handleCatalogue)
	r.GET("/payments/recent", infoLimit.middleware(), s.handleRecentPayments)

	r.POST("/capability/:slug",
		capLimit.middleware(),
		s.gate.Middleware(),
		s.handleExecute,
	)

	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "NOT_FOUND",
			"message": "Route not found.",
		})
	})

	return r
}
