// Package pubgen turns markdown documents into standalone article pages
// and keeps a JavaScript article index in step with them.
//
// The index file carries hand-written glue code around a single data
// declaration; pubgen rewrites only that declaration. A Pipeline runs the
// batch, an optional SQLite Catalog mirrors the index for queries, and
// Server previews a site directory over HTTP.
package pubgen

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eringen/pubgen/views"
)

// Server is the preview server for a site directory. It serves the site's
// static files, a read-only JSON view of the index, and Prometheus metrics.
type Server struct {
	Config  Config
	Echo    *echo.Echo
	Store   *IndexStore
	Cache   *RecordCache
	Metrics *Metrics

	registry *prometheus.Registry
	site     views.SiteConfig
	logger   *slog.Logger
}

// NewServer creates a preview server for cfg with middleware and routes
// registered.
func NewServer(cfg Config, logger *slog.Logger) *Server {
	cfg.setDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	store := NewIndexStore(cfg, logger)
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	s := &Server{
		Config:   cfg,
		Echo:     echo.New(),
		Store:    store,
		Cache:    NewRecordCache(store, cfg.TTL()),
		Metrics:  NewMetrics(registry),
		registry: registry,
		site:     views.SiteConfig{Name: cfg.SiteName, URL: cfg.SiteURL},
		logger:   logger,
	}
	s.Echo.HideBanner = true
	s.Echo.HidePort = true

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	e := s.Echo

	e.GET("/api/articles", s.handleArticles)
	e.GET("/api/articles/:slug", s.handleArticle)
	e.GET("/api/stats", s.handleStats)
	e.GET("/feed.xml", s.handleFeed)
	e.GET("/sitemap.xml", s.handleSitemap)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	e.Static("/", s.Config.SiteDir)
}

// Start listens on Config.Addr until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("preview server listening", slog.String("addr", s.Config.Addr), slog.String("site", s.Config.SiteDir))
	if err := s.Echo.Start(s.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
