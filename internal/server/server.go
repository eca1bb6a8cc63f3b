// Package server assembles the bot's components and manages their lifecycle:
// the Telegram transport, the session core, the ledger retention sweep and
// the monitoring HTTP endpoint.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/robfig/cron/v3"

	"github.com/prestamax/chatbot/internal/backend"
	appconfig "github.com/prestamax/chatbot/internal/config"
	"github.com/prestamax/chatbot/internal/connectors/telegram"
	"github.com/prestamax/chatbot/internal/deletion_engine"
	"github.com/prestamax/chatbot/internal/lifecycle"
	"github.com/prestamax/chatbot/internal/message_ledger"
	"github.com/prestamax/chatbot/internal/middleware"
	"github.com/prestamax/chatbot/internal/navigation"
	"github.com/prestamax/chatbot/internal/session_store"
	"github.com/prestamax/chatbot/internal/storage"
	"github.com/prestamax/chatbot/internal/timeout_manager"
	"github.com/prestamax/chatbot/pkg/health"
	"github.com/prestamax/chatbot/pkg/health/checkers"
	"github.com/prestamax/chatbot/pkg/logger"
	"github.com/prestamax/chatbot/pkg/metrics"
)

// recentMessageTTL bounds how long a sent message id stays in the fast
// cleanup cache; the durable ledger covers anything older.
const recentMessageTTL = time.Hour

// sessionClearer adapts the lifecycle orchestrator to the timer manager's
// Clearer interface; the timers act on the error and never inspect the
// deletion outcome.
type sessionClearer struct {
	orchestrator *lifecycle.Orchestrator
}

var _ timeout_manager.Clearer = (*sessionClearer)(nil)

func (c *sessionClearer) Clear(ctx context.Context, chatID int64, suppressFarewell bool) error {
	_, err := c.orchestrator.Clear(ctx, chatID, suppressFarewell)
	return err
}

// Server encapsulates all bot components and their lifecycle.
type Server struct {
	cfg *appconfig.AppConfig
	log logger.Logger

	metrics   *metrics.Metrics
	ledger    *message_ledger.Ledger
	connector *telegram.Connector
	timers    *timeout_manager.Manager
	cron      *cron.Cron

	cancel context.CancelFunc
}

// New creates a Server with all components initialized and wired.
func New(ctx context.Context, cfg *appconfig.AppConfig, log logger.Logger) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
	}

	provider, err := storage.NewProvider(ctx, cfg.Ledger)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger storage: %w", err)
	}

	s.ledger, err = message_ledger.New(message_ledger.Config{
		File:     cfg.Ledger.File,
		Provider: provider,
		Logger:   log,
		Metrics:  s.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create message ledger: %w", err)
	}

	recent := deletion_engine.NewRecentCache(recentMessageTTL)
	sessions := session_store.New()
	nav := navigation.New()

	var backendClient *backend.Client
	if cfg.Backend.Enabled() {
		backendClient, err = backend.New(cfg.Backend, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create backend client: %w", err)
		}
		log.Info("Lending backend enabled", logger.StringField("base_url", cfg.Backend.BaseURL))
	} else {
		log.Info("Lending backend disabled (missing BACKEND_BASE_URL)")
	}

	s.connector, err = telegram.NewConnector(telegram.Config{
		BotToken:   cfg.Telegram.BotToken,
		Debug:      cfg.Telegram.Debug,
		Ledger:     s.ledger,
		Recent:     recent,
		Sessions:   sessions,
		Navigation: nav,
		Backend:    backendClient,
		Logger:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram connector: %w", err)
	}

	engine := deletion_engine.New(deletion_engine.Config{
		Deleter:    s.connector,
		Ledger:     s.ledger,
		Recent:     recent,
		Pacing:     cfg.Session.DeletePacing,
		BatchSize:  cfg.Session.DeleteBatchSize,
		BatchDelay: cfg.Session.BatchDelay,
		Logger:     log,
		Metrics:    s.metrics,
	})

	s.timers, err = timeout_manager.New(timeout_manager.Config{
		WarnAfter:      cfg.Session.WarnAfter,
		TerminateAfter: cfg.Session.TerminateAfter,
		ExitGrace:      cfg.Session.ExitGrace,
		Sessions:       sessions,
		Notifier:       s.connector,
		Logger:         log,
		Metrics:        s.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create timeout manager: %w", err)
	}

	lifecycleConfig := lifecycle.Config{
		Engine:     engine,
		Ledger:     s.ledger,
		Navigation: nav,
		Sessions:   sessions,
		Timers:     s.timers,
		Notifier:   s.connector,
		Recent:     recent,
		Logger:     log,
		Metrics:    s.metrics,
	}
	if backendClient != nil {
		lifecycleConfig.Backend = backendClient
	}

	orchestrator, err := lifecycle.New(lifecycleConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create lifecycle orchestrator: %w", err)
	}

	// Close the notification loop: terminations tear sessions down through
	// the orchestrator, and the connector routes everything else into it.
	s.timers.BindClearer(&sessionClearer{orchestrator: orchestrator})
	s.connector.Bind(orchestrator, s.timers)

	s.cron = s.createSweeper()

	return s, nil
}

// Run starts every component and blocks until shutdown.
func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	defer cancel()

	s.setupGracefulShutdown()

	var wg sync.WaitGroup

	if s.cfg.Monitoring.MetricsEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.startMonitoringServer(ctx); err != nil {
				s.log.Error("Monitoring server failed", logger.ErrorField(err))
			}
		}()
	}

	s.cron.Start()
	s.log.Info("Ledger retention sweep scheduled",
		logger.StringField("schedule", s.cfg.Ledger.SweepSchedule),
		logger.IntField("retention_hours", s.cfg.Ledger.RetentionHours))

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.log.Info("Starting Telegram connector")
		if err := s.connector.Start(ctx); err != nil {
			s.log.Error("Telegram connector error", logger.ErrorField(err))
			cancel()
		}
	}()

	wg.Wait()

	sweepCtx := s.cron.Stop()
	select {
	case <-sweepCtx.Done():
	case <-time.After(10 * time.Second):
		s.log.Warn("Timed out waiting for retention sweep to finish")
	}

	s.log.Info("All components stopped")
	return nil
}

// createSweeper schedules the periodic ledger retention sweep.
func (s *Server) createSweeper() *cron.Cron {
	c := cron.New()
	retention := time.Duration(s.cfg.Ledger.RetentionHours) * time.Hour

	sweep := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		removed, err := s.ledger.Sweep(ctx, retention)
		if err != nil {
			s.log.Error("Ledger retention sweep failed", logger.ErrorField(err))
			return
		}
		if removed > 0 {
			s.log.Info("Ledger retention sweep removed stale chats",
				logger.IntField("removed", removed))
		}
	}

	if _, err := c.AddFunc(s.cfg.Ledger.SweepSchedule, sweep); err != nil {
		// The default schedule always parses; a broken override falls back.
		s.log.Error("Invalid sweep schedule, falling back to hourly",
			logger.StringField("schedule", s.cfg.Ledger.SweepSchedule), logger.ErrorField(err))
		_, _ = c.AddFunc("@hourly", sweep)
	}
	return c
}

// startMonitoringServer serves liveness, readiness and metrics.
func (s *Server) startMonitoringServer(ctx context.Context) error {
	checker := health.New(
		health.WithTimeout(s.cfg.Monitoring.HealthCheckTimeout),
		health.WithLogger(s.log),
	)
	checker.AddLivenessCheck(health.NewCheckFunc("process", func(context.Context) error {
		return nil
	}))
	if s.cfg.Backend.Enabled() {
		checker.AddReadinessCheck(checkers.NewHTTPChecker(s.cfg.Backend.BaseURL+"/healthz", "backend"))
	}

	router := chi.NewRouter()
	router.Use(middleware.Recovery(s.log))
	router.Use(s.log.HTTPMiddleware)
	router.Get("/healthz", checker.LivenessHandler())
	router.Get("/readyz", checker.ReadinessHandler())
	router.Handle("/metrics", s.metrics.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Monitoring.MetricsPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.log.Info("Monitoring server listening", logger.IntField("port", s.cfg.Monitoring.MetricsPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("Monitoring server failed", logger.ErrorField(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second) //nolint:contextcheck // New context needed for shutdown
	defer cancel()
	return server.Shutdown(shutdownCtx) //nolint:contextcheck // Using new context for graceful shutdown
}

// setupGracefulShutdown sets up signal handling for graceful shutdown.
func (s *Server) setupGracefulShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		s.log.Info("Received shutdown signal", logger.StringField("signal", sig.String()))

		if s.cancel != nil {
			s.cancel()
		}

		// Give components time to stop, then force exit.
		time.AfterFunc(30*time.Second, func() {
			s.log.Warn("Force exiting due to timeout")
			os.Exit(1)
		})
	}()
}
