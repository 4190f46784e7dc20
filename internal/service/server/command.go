package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	api "github.com/faultmesh/alarm-correlator/internal/api/http"
	"github.com/faultmesh/alarm-correlator/internal/buffer"
	"github.com/faultmesh/alarm-correlator/internal/config"
	"github.com/faultmesh/alarm-correlator/internal/correlation"
	"github.com/faultmesh/alarm-correlator/internal/eventbus"
	"github.com/faultmesh/alarm-correlator/internal/logger"
	"github.com/faultmesh/alarm-correlator/internal/observability/metrics"
	incidentrepo "github.com/faultmesh/alarm-correlator/internal/repository/incident"
	"github.com/faultmesh/alarm-correlator/internal/service/formation"
)

// Options controls the alarm-correlator process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override.
	ListenAddress string
}

// Timeouts for server lifecycle operations.
const (
	// shutdownTimeout bounds the graceful HTTP shutdown.
	shutdownTimeout = 10 * time.Second
	// readHeaderTimeout bounds request header reads.
	readHeaderTimeout = 10 * time.Second
)

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run wires the correlation pipeline and serves HTTP until the context
// is canceled. Shutdown stops accepting alarms first, then drains every
// tenant buffer once so already-accepted alarms are correlated rather
// than lost.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-correlator")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok && cfg.LogLevel != "" {
		logger.SetLevel(level)
	}

	metrics.Init()

	repository, closeRepository, err := openRepository(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open incident store: %w", err)
	}
	defer closeRepository()

	formationService, err := formation.NewService(repository)
	if err != nil {
		return fmt.Errorf("initialise incident formation: %w", err)
	}

	bus := eventbus.New()
	bus.SubscribeClusterCreated(formationService.HandleClusterCreated)
	bus.SubscribeClusterCreated(logClusterCreated)

	engine := correlation.NewEngine(cfg.CorrelationWindow(), cfg.EmergencyEntityTypes)

	registry, err := buffer.NewRegistry(engine, bus, cfg.Window(), cfg.MaxBufferSize)
	if err != nil {
		return fmt.Errorf("initialise tenant registry: %w", err)
	}

	handler, err := api.NewHandler(registry)
	if err != nil {
		return fmt.Errorf("initialise HTTP handler: %w", err)
	}

	mux := http.NewServeMux()
	handler.Register(mux)

	listenAddress, err := resolveListenAddress(cfg.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	// Setup TCP listener for the HTTP server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logger.InfoKV(ctx, "Alarm correlator listening",
		"listen_address", listenAddress,
		"window_seconds", cfg.WindowSeconds,
		"max_buffer_size", cfg.MaxBufferSize,
		"correlation_window_seconds", cfg.CorrelationWindowSeconds)

	// Done channel is closed after shutdown and drain finish to ensure
	// we block until buffered alarms were handed to correlation.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)

		registry.FlushAll(logger.WithName(context.Background(), "drain"))
		close(done)
	}()

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	<-done
	logger.Info(ctx, "Correlator stopped")

	return nil
}

// openRepository selects the incident store: Postgres when a DSN is
// configured, otherwise the in-memory store for local runs.
func openRepository(ctx context.Context, cfg *config.Config) (incidentrepo.Repository, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn(ctx, "No database_url configured, incidents are stored in memory only")

		return incidentrepo.NewMemoryRepository(), func() {}, nil
	}

	repository, err := incidentrepo.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	closeRepository := func() {
		if err := repository.Close(); err != nil {
			logger.Errorf(ctx, "Failed to close incident store: %v", err)
		}
	}

	return repository, closeRepository, nil
}

// logClusterCreated is an extra bus listener that records every cluster.
func logClusterCreated(ctx context.Context, event eventbus.ClusterCreated) error {
	logger.InfoKV(ctx, "Cluster created",
		"tenant_id", event.TenantID,
		"cluster_id", event.Cluster.ID,
		"alarm_count", event.Cluster.AlarmCount,
		"severity", event.Cluster.Severity,
		"root_cause_entity_id", event.Cluster.RootCauseEntityID,
		"is_emergency_service", event.Cluster.IsEmergencyService)

	return nil
}

// resolveListenAddress determines the listen address for the HTTP server.
// If override is provided, uses it directly. Otherwise extracts the port
// from configAddr and binds on all interfaces.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return ":" + port, nil
}
