// Package main runs the long-lived service:
// - Ingestion (startup): CSV inputs into the configured stores
// - Projection (scheduled): live slate for today in US Eastern time
// - HTTP: /health, /status and Prometheus /metrics
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"nba-seer/internal/app"
	"nba-seer/internal/config"
	"nba-seer/internal/features"
	"nba-seer/internal/logging"
	"nba-seer/internal/observability"
)

// Server holds all components of the service.
type Server struct {
	cfg     *config.Config
	stores  *app.Stores
	logger  *logrus.Logger
	log     *logrus.Entry
	metrics *observability.Metrics
	clock   features.Clock

	// State
	mu          sync.Mutex
	started     time.Time
	lastRun     time.Time
	lastSlate   string
	lastRunID   string
	lastError   string
	runs        int
	running     bool
	projections int
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	schedule := flag.String("schedule", "", "Cron spec with a seconds field, evaluated in US Eastern time")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for /metrics, /health and /status")
	runNow := flag.Bool("run-now", false, "Project today's slate once at startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *schedule != "" {
		cfg.Server.Schedule = *schedule
	}
	if *metricsAddr != "" {
		cfg.Server.MetricsAddr = *metricsAddr
	}
	cfg.Mode = config.ModeLive

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.SlateDate != "" {
		logger.WithField("slate_date", cfg.SlateDate).Warn("slate_date is ignored by the server, projecting today")
		cfg.SlateDate = ""
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	eastern, err := time.LoadLocation(features.Eastern)
	if err != nil {
		logger.WithError(err).Fatal("load eastern time zone")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics("nba_seer")
	stores, err := app.OpenStores(ctx, cfg.Storage, logger, metrics)
	if err != nil {
		logger.WithError(err).Fatal("open stores")
	}
	defer stores.Close()

	server := &Server{
		cfg:     cfg,
		stores:  stores,
		logger:  logger,
		log:     logging.Component(logger, "server"),
		metrics: metrics,
		clock:   func() time.Time { return time.Now().In(eastern) },
		started: time.Now(),
	}

	if err := server.ingest(ctx); err != nil {
		logger.WithError(err).Fatal("ingest inputs")
	}

	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(eastern),
		cron.WithLogger(cron.PrintfLogger(server.log)),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(server.log))),
	)
	if _, err := c.AddFunc(cfg.Server.Schedule, func() { server.runSlate(ctx) }); err != nil {
		logger.WithError(err).WithField("schedule", cfg.Server.Schedule).Fatal("invalid schedule")
	}
	c.Start()
	server.log.WithField("schedule", cfg.Server.Schedule).Info("scheduler started")

	httpServer := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           server.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		server.log.WithField("addr", httpServer.Addr).Info("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.log.WithError(err).Error("HTTP server error")
		}
	}()

	if *runNow {
		go server.runSlate(ctx)
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	server.log.WithField("signal", sig.String()).Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Wait for a running slate, or a second signal
	select {
	case <-c.Stop().Done():
	case <-shutdownCtx.Done():
		server.log.Warn("graceful shutdown timed out after 30s")
	case sig := <-sigCh:
		server.log.WithField("signal", sig.String()).Warn("forcing immediate shutdown")
		os.Exit(1)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		server.log.WithError(err).Warn("HTTP shutdown")
	}

	server.log.Info("shutdown complete")
}

// ingest loads the configured CSV inputs once. Scheduled runs read the stores.
func (s *Server) ingest(ctx context.Context) error {
	loaded, err := app.LoadInputs(ctx, s.options())
	if err != nil {
		return err
	}
	if loaded != nil {
		s.log.WithFields(logrus.Fields{
			"games":     loaded.Games,
			"directory": loaded.DirectoryEntries,
			"game_logs": loaded.GameLogRecords,
		}).Info("inputs loaded")
	}
	s.cfg.Inputs = config.InputsConfig{}
	return nil
}

func (s *Server) options() app.SlateOptions {
	return app.SlateOptions{
		Config:  s.cfg,
		Stores:  s.stores,
		Logger:  s.logger,
		Metrics: s.metrics,
		Clock:   s.clock,
	}
}

// runSlate projects today's slate. Overlapping calls are skipped.
func (s *Server) runSlate(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Info("slate already running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()

	out, err := app.RunSlate(ctx, s.options())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.lastRun = time.Now()
	s.runs++
	if err != nil {
		s.lastError = err.Error()
		s.log.WithError(err).Error("scheduled slate failed")
		return
	}
	s.lastError = ""
	s.lastSlate = out.SlateDate.Format("2006-01-02")
	s.lastRunID = out.Result.RunID
	s.projections = len(out.Result.Projections)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// StatusResponse is the /status payload.
type StatusResponse struct {
	Status      string    `json:"status"`
	Uptime      string    `json:"uptime"`
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"last_run,omitempty"`
	LastSlate   string    `json:"last_slate,omitempty"`
	LastRunID   string    `json:"last_run_id,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	Projections int       `json:"projections"`
	Runs        int       `json:"runs"`
	Running     bool      `json:"running"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:      "running",
		Uptime:      time.Since(s.started).Round(time.Second).String(),
		Schedule:    s.cfg.Server.Schedule,
		LastRun:     s.lastRun,
		LastSlate:   s.lastSlate,
		LastRunID:   s.lastRunID,
		LastError:   s.lastError,
		Projections: s.projections,
		Runs:        s.runs,
		Running:     s.running,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
