package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ansarctica/ross/internal/catalog"
	"github.com/ansarctica/ross/internal/config"
	"github.com/ansarctica/ross/internal/engine"
	"github.com/ansarctica/ross/internal/logging"
	"github.com/ansarctica/ross/internal/observability"
	"github.com/ansarctica/ross/internal/server"
	"github.com/ansarctica/ross/internal/session"
)

var (
	configPath  string
	addr        string
	catalogPath string
	engineURL   string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "ross-server",
	Short: "ROSS degree-plan and schedule API",
	Long: `ross-server ingests scraped degree-plan course bubbles into a
semester-ordered registry and forwards majors and completed courses to the
scheduling engine.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&configPath, "config", "c", "ross.yaml", "path to YAML config")
	f.StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	f.StringVar(&catalogPath, "programs", "", "path to programs.gob (overrides config)")
	f.StringVar(&engineURL, "engine", "", "scheduling engine URL (overrides config)")
	f.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if catalogPath != "" {
		cfg.Server.CatalogPath = catalogPath
	}
	if engineURL != "" {
		cfg.Engine.URL = engineURL
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	cat, err := loadCatalog(cfg.Server.CatalogPath, logger)
	if err != nil {
		return err
	}

	scheduler, err := newScheduler(cfg, logger)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("close session store", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := server.NewRouter(server.Deps{
		Catalog:      cat,
		Scheduler:    scheduler,
		Store:        store,
		Metrics:      observability.NewMetrics(reg),
		Gatherer:     reg,
		Logger:       logger,
		StaticDir:    cfg.Server.StaticDir,
		AllowOrigins: cfg.Server.AllowOrigins,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func loadCatalog(path string, logger *zap.Logger) (*catalog.Catalog, error) {
	cat, err := catalog.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("program catalog not found, serving an empty list", zap.String("path", path))
		return catalog.New(nil), nil
	}
	if err != nil {
		return nil, err
	}
	logger.Info("loaded programs", zap.Int("count", cat.Len()), zap.String("path", path))
	return cat, nil
}

func newScheduler(cfg *config.Config, logger *zap.Logger) (engine.Scheduler, error) {
	if cfg.Engine.URL == "" {
		logger.Warn("engine url not set, serving the sample plan")
		return engine.NewStatic(), nil
	}
	return engine.NewHTTPClient(engine.HTTPConfig{
		URL:           cfg.Engine.URL,
		Timeout:       cfg.GetEngineTimeout(),
		RatePerSecond: cfg.Engine.RatePerSecond,
		Burst:         cfg.Engine.Burst,
	}, logger.Named("engine"))
}

func openStore(cfg *config.Config, logger *zap.Logger) (session.Store, error) {
	switch cfg.Session.Backend {
	case "badger":
		logger.Info("session store", zap.String("backend", "badger"), zap.String("path", cfg.Session.Path))
		return session.OpenBadger(session.BadgerConfig{
			Path:       cfg.Session.Path,
			TTL:        cfg.GetSessionTTL(),
			GCInterval: cfg.GetGCInterval(),
			Logger:     logger,
		})
	default:
		logger.Info("session store", zap.String("backend", "memory"))
		return session.NewMemoryStore(), nil
	}
}
