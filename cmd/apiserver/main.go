// API server entry point for the NMR report checker.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/NMReportChecker/internal/application/analysis"
	"github.com/turtacn/NMReportChecker/internal/config"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/monitoring/prometheus"
	grpcserver "github.com/turtacn/NMReportChecker/internal/interfaces/grpc"
	httpserver "github.com/turtacn/NMReportChecker/internal/interfaces/http"
	"github.com/turtacn/NMReportChecker/internal/interfaces/http/handlers"
	"github.com/turtacn/NMReportChecker/internal/interfaces/http/middleware"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

const (
	defaultShutdownTimeout = 30 * time.Second
	healthProbeInterval    = 15 * time.Second
	rateLimitIdleTTL       = 10 * time.Minute
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (environment only when empty)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logging.SetDefault(logger)

	logger.Info("starting NMR report checker API server",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.String("build_date", buildDate),
		logging.Int("http_port", cfg.Server.Port),
		logging.Int("grpc_port", cfg.Server.GRPCPort),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		collector prometheus.MetricsCollector
		metrics   *prometheus.NMRMetrics
	)
	if cfg.Metrics.Enabled {
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			Subsystem:            cfg.Metrics.Subsystem,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			return err
		}
		metrics = prometheus.NewNMRMetrics(collector)
	}

	in, err := buildInfra(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer in.close()

	in.deps.Metrics = metrics
	in.deps.Logger = logger
	svc, err := analysis.NewService(analysis.ConfigFrom(cfg), in.deps)
	if err != nil {
		return err
	}

	routerCfg := httpserver.RouterConfig{
		AnalysisHandler:  handlers.NewAnalysisHandler(svc, logger),
		HealthHandler:    handlers.NewHealthHandler(version, in.checkers...),
		Logging:          middleware.DefaultLoggingConfig(),
		MaxBodySize:      cfg.Server.MaxBodySize,
		Logger:           logger,
		Metrics:          metrics,
		MetricsCollector: collector,
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		cors := middleware.DefaultCORSConfig(cfg.Server.CORSOrigins...)
		routerCfg.CORS = &cors
	}
	if cfg.Server.RateLimitRPS > 0 {
		limiter := middleware.NewTokenBucketLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, rateLimitIdleTTL)
		defer limiter.Stop()
		routerCfg.RateLimiter = limiter
	}

	httpSrv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)
	grpcSrv, err := grpcserver.NewServer(cfg.Server,
		grpcserver.WithLogger(logger),
		grpcserver.WithMetrics(metrics),
		grpcserver.WithGracefulTimeout(cfg.Server.ShutdownTimeout),
	)
	if err != nil {
		return err
	}

	if configPath != "" {
		watchConfig(configPath, logger)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpSrv.Start)
	g.Go(grpcSrv.Start)
	g.Go(func() error {
		return grpcSrv.MonitorHealth(gctx, healthProbeInterval, in.probe)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down servers")

		timeout := cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return stderrors.Join(httpSrv.Stop(shutdownCtx), grpcSrv.Stop(shutdownCtx))
	})

	err = g.Wait()
	logger.Info("servers stopped")
	return err
}

func newLogger(cfg config.LogConfig) (logging.Logger, error) {
	lc := logging.LogConfig{Level: cfg.Level, Format: cfg.Format}
	if cfg.Output != "" {
		lc.OutputPaths = []string{cfg.Output}
	}
	return logging.NewLogger(lc)
}

// watchConfig reports edits to the config file.  Listener, adapter and
// render settings are read once, so a change is only logged.
func watchConfig(path string, logger logging.Logger) {
	err := config.Watch(path,
		func(c *config.Config) {
			logger.Warn("configuration file changed; restart to apply",
				logging.String("path", path),
				logging.String("log_level", c.Log.Level),
				logging.Bool("strict_coupling_count", c.Validator.StrictCouplingCount),
			)
		},
		func(err error) {
			logger.Error("configuration file changed but is invalid", logging.String("path", path), logging.Err(err))
		},
	)
	if err != nil {
		logger.Warn("config watch disabled", logging.Err(err))
	}
}

//Personal.AI order the ending
