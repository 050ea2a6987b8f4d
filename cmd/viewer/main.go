package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmelton/liftview/internal/api"
	"github.com/dmelton/liftview/internal/config"
	"github.com/dmelton/liftview/internal/connection"
	"github.com/dmelton/liftview/internal/database"
	"github.com/dmelton/liftview/internal/dispatch"
	"github.com/dmelton/liftview/internal/model"
	"github.com/dmelton/liftview/internal/poller"
	"github.com/dmelton/liftview/internal/recorder"
	"github.com/dmelton/liftview/internal/store"
	"github.com/dmelton/liftview/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/viewer.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting viewer",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"rest_url", cfg.Server.RestURL,
		"ws_url", cfg.Server.WSURL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	apiClient := api.NewClient(
		cfg.Server.RestURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.Server.Timeout),
		api.WithRetries(cfg.Server.MaxRetries, time.Second),
	)

	st := store.New(cfg.Polling.StatsHistorySize, logger)

	// Seed the running flag from a one-time status query. An unreachable
	// server is not fatal: the flag stays false and the push channel keeps
	// retrying until the server appears.
	if status, err := apiClient.GetStatus(ctx); err != nil {
		logger.Warn("failed to query simulator status, assuming stopped", "error", err)
	} else {
		st.SetRunning(status.Running)
		logger.Info("simulator status",
			"running", status.Running,
			"sim_time", status.Time,
			"elevators", status.Elevators,
			"floors", status.Floors,
		)
	}

	// Seed the snapshot so consumers render before the first push frame.
	if snap, err := apiClient.GetState(ctx); err != nil {
		logger.Warn("failed to fetch initial state", "error", err)
	} else {
		st.ApplySnapshot(*snap)
	}

	// Optional session recorder
	var rec *recorder.Recorder
	if cfg.Recorder.Enabled {
		pool, err := database.Connect(ctx, cfg.Recorder.Postgres)
		if err != nil {
			logger.Error("failed to connect to recorder database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		rec = recorder.New(recorder.Config{
			BatchSize:     cfg.Recorder.BatchSize,
			FlushInterval: cfg.Recorder.FlushInterval,
		}, pool, logger)

		if err := rec.Start(ctx); err != nil {
			logger.Error("failed to start recorder", "error", err)
			os.Exit(1)
		}
		logger.Info("session recording enabled", "session", rec.Session())
	}

	// Connection Manager + Reconnect Policy
	manager := connection.NewManager(connection.ManagerConfig{
		WSURL:           cfg.Server.WSURL,
		PingInterval:    cfg.Connection.PingInterval,
		PingTimeout:     cfg.Connection.PingTimeout,
		WriteTimeout:    cfg.Connection.WriteTimeout,
		FrameBufferSize: cfg.Connection.FrameBufferSize,
	}, logger)

	policy := connection.FixedDelay{Delay: cfg.Connection.ReconnectDelay}
	reconnector := connection.NewReconnector(manager, policy, logger)
	manager.OnDisconnect(reconnector.NotifyDisconnect)
	manager.OnConnect(func() {
		logger.Debug("push channel connected")
	})

	// Message Dispatcher
	dispatcher := dispatch.New(manager.Frames(), logger)
	dispatcher.Handle("state_update", func(payload json.RawMessage, frame connection.RawFrame) {
		var snap model.Snapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			logger.Warn("malformed state_update payload", "error", err)
			return
		}
		st.ApplySnapshot(snap)
		if rec != nil {
			rec.RecordSnapshot(snap)
		}
	})
	dispatcher.Handle("passenger_added", func(payload json.RawMessage, frame connection.RawFrame) {
		logger.Debug("passenger added", "payload", string(payload))
	})
	dispatcher.Handle("button_pressed", func(payload json.RawMessage, frame connection.RawFrame) {
		logger.Debug("button pressed", "payload", string(payload))
	})

	if err := dispatcher.Start(ctx); err != nil {
		logger.Error("failed to start dispatcher", "error", err)
		os.Exit(1)
	}

	// Polling Fallback
	sink := pollSink{store: st, rec: rec}
	p := poller.New(poller.Config{
		EventsInterval: cfg.Polling.EventsInterval,
		EventsLimit:    cfg.Polling.EventsLimit,
		StatsInterval:  cfg.Polling.StatsInterval,
		Timeout:        cfg.Server.Timeout,
	}, apiClient, st, sink, logger)

	if err := p.Start(ctx); err != nil {
		logger.Error("failed to start poller", "error", err)
		os.Exit(1)
	}

	if err := reconnector.Start(ctx); err != nil {
		logger.Error("failed to start reconnector", "error", err)
		os.Exit(1)
	}

	// Open the push channel. A failed first dial is handed to the
	// reconnector rather than aborting startup.
	if err := manager.Acquire(ctx); err != nil {
		logger.Warn("initial push connection failed, will retry", "error", err)
		reconnector.NotifyDisconnect(err)
	}

	// Health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(manager, dispatcher, st, rec),
	}
	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("viewer running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Health.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	reconnector.Stop(shutdownCtx)
	p.Stop(shutdownCtx)
	manager.Stop(shutdownCtx)
	dispatcher.Stop(shutdownCtx)
	if rec != nil {
		rec.Stop(shutdownCtx)
	}
	healthServer.Shutdown(shutdownCtx)

	logger.Info("viewer stopped")
}

// pollSink fans polled data out to the store and, when enabled, the recorder.
type pollSink struct {
	store *store.Store
	rec   *recorder.Recorder
}

func (s pollSink) ReplaceEvents(events []model.Event) {
	s.store.ReplaceEvents(events)
	if s.rec != nil {
		s.rec.RecordEvents(events)
	}
}

func (s pollSink) AppendStatsPoint(p model.StatsPoint) {
	s.store.AppendStatsPoint(p)
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(manager *connection.Manager, dispatcher *dispatch.Dispatcher, st *store.Store, rec *recorder.Recorder) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		connStats := manager.Stats()
		dispStats := dispatcher.Stats()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		health.Components["connection"] = map[string]any{
			"open":          connStats.Open,
			"generation":    connStats.Generation,
			"dropped_sends": connStats.DroppedSends,
		}
		if !connStats.Open {
			health.Status = "degraded"
		}

		health.Components["dispatcher"] = map[string]any{
			"received":      dispStats.FramesReceived,
			"routed":        dispStats.FramesRouted,
			"decode_errors": dispStats.DecodeErrors,
			"unknown_kinds": dispStats.UnknownKinds,
		}

		snap := st.Snapshot()
		health.Components["store"] = map[string]any{
			"running":       st.Running(),
			"sim_time":      snap.Time,
			"elevators":     len(snap.Elevators),
			"events":        len(st.Events()),
			"stats_history": len(st.StatsHistory()),
		}

		if rec != nil {
			recStats := rec.Stats()
			health.Components["recorder"] = map[string]any{
				"session":          rec.Session().String(),
				"snapshot_inserts": recStats.SnapshotInserts,
				"event_inserts":    recStats.EventInserts,
				"errors":           recStats.Errors,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/snapshot", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(st.Snapshot())
	})

	return mux
}
