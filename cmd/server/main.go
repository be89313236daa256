package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hls-failover/internal/failover"
	"hls-failover/internal/platform/config"
	"hls-failover/internal/platform/logger"
	"hls-failover/internal/platform/metrics"
	"hls-failover/internal/player"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")

	log := logger.New(logLevel, logFormat)

	endpoints, policy, err := loadStreamConfig()
	if err != nil {
		log.Error("stream configuration invalid", "error", err)
		os.Exit(1)
	}

	met := metrics.New()

	probe := player.NewProbe(nil,
		logger.WithComponent(log, "player"),
		config.GetEnvDuration("PROBE_POLL_INTERVAL", player.DefaultPollInterval),
		config.GetEnvDuration("PROBE_FETCH_TIMEOUT", player.DefaultFetchTimeout),
	)

	history := failover.NewMemorySink(config.GetEnvInt("STATUS_HISTORY", failover.DefaultStatusHistory))
	sink := failover.MultiSink{
		failover.NewLogSink(logger.WithComponent(log, "status")),
		history,
		metricsStatusSink(met),
	}

	ctrl, err := failover.NewController(endpoints, probe, failover.NewWallScheduler(),
		sink, logger.WithComponent(log, "controller"), policy)
	if err != nil {
		log.Error("controller setup failed", "error", err)
		os.Exit(1)
	}
	probe.SetListener(ctrl)

	h := failover.NewHandler(ctrl, history, log, met)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		met.Handler(func() {
			snap := ctrl.Snapshot()
			met.SetPlaybackDesired(snap.Desired)
			met.SetCurrentEndpoint(snap.EndpointIndex)
		}).ServeHTTP(w, req)
	})
	r.Mount("/", h.Routes())

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"endpoints", len(endpoints),
		"max_cycle_retries", policy.MaxCycleRetries,
		"log_level", logLevel,
	)

	if config.GetEnv("AUTO_START", "true") == "true" {
		ctrl.Start()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping playback")
	ctrl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// loadStreamConfig resolves the endpoint pool and retry tuning: the YAML
// stream file named by STREAM_CONFIG wins, otherwise STREAM_ENDPOINTS and the
// retry env vars apply.
func loadStreamConfig() ([]string, failover.RetryPolicy, error) {
	if path := config.GetEnv("STREAM_CONFIG", ""); path != "" {
		sf, err := config.LoadStreamFile(path)
		if err != nil {
			return nil, failover.RetryPolicy{}, err
		}
		policy := failover.RetryPolicy{
			MaxCycleRetries:  sf.Retry.MaxCycleRetries,
			BaseDelay:        sf.Retry.BaseDelay(),
			BufferingTimeout: sf.Retry.BufferingTimeout(),
			SettleDelay:      sf.Retry.SettleDelay(),
		}
		return sf.Stream.Endpoints, policy, nil
	}

	endpoints := config.GetEnvList("STREAM_ENDPOINTS", nil)
	if len(endpoints) == 0 {
		return nil, failover.RetryPolicy{}, failover.ErrNoEndpoints
	}
	policy := failover.RetryPolicy{
		MaxCycleRetries:  config.GetEnvInt("MAX_CYCLE_RETRIES", failover.DefaultMaxCycleRetries),
		BaseDelay:        config.GetEnvDuration("BASE_DELAY", failover.DefaultBaseDelay),
		BufferingTimeout: config.GetEnvDuration("BUFFERING_TIMEOUT", failover.DefaultBufferingTimeout),
		SettleDelay:      config.GetEnvDuration("SETTLE_DELAY", failover.DefaultSettleDelay),
	}
	return endpoints, policy, nil
}

// metricsStatusSink translates status events into Prometheus counters.
func metricsStatusSink(met *metrics.Metrics) failover.StatusSink {
	return failover.StatusFunc(func(ev failover.StatusEvent) {
		switch ev.Kind {
		case failover.StatusSwitchingEndpoint:
			met.IncEndpointSwitches()
		case failover.StatusRetrying:
			met.IncCycleRetries()
		case failover.StatusStreamReady:
			met.IncStreamReady()
		case failover.StatusPermanentFailure:
			met.IncPermanentFailures()
		}
	})
}
