package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/carprice/config"
	"github.com/rushteam/carprice/feature"
	"github.com/rushteam/carprice/history"
	"github.com/rushteam/carprice/model"
	"github.com/rushteam/carprice/pkg/dsl"
	"github.com/rushteam/carprice/pkg/logutil"
	"github.com/rushteam/carprice/pricing"
	"github.com/rushteam/carprice/server"
)

func newServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the price estimation HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger := logutil.Init(cfg.Log)
			defer logger.Sync()
			logger.Info("config loaded", zap.String("config", configPath))
			return runServer(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config (yaml or json)")
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader, err := config.BuildLoader(ctx, cfg.Artifact)
	if err != nil {
		return fmt.Errorf("init artifact loader: %w", err)
	}
	cached := model.NewCachedLoader(loader)
	artifact, err := cached.Load(ctx, cfg.Artifact.Location)
	if err != nil {
		return fmt.Errorf("load artifact: %w", err)
	}
	monitor := feature.NewMonitor()
	estimator, err := pricing.NewEstimator(artifact, pricing.WithLogger(logger), pricing.WithMonitor(monitor))
	if err != nil {
		return err
	}
	logger.Info("artifact loaded",
		zap.String("source", cfg.Artifact.Source),
		zap.String("location", cfg.Artifact.Location),
		zap.String("version", artifact.Version()),
		zap.Int("numerical", len(artifact.NumericalFeatures)),
		zap.Int("categorical", len(artifact.CategoricalFeatures)),
		zap.Int("features", artifact.FeatureVectorLen()),
	)
	holder := pricing.NewHolder(estimator)

	if cfg.Artifact.Watch {
		watcher := model.NewWatcher(cfg.Artifact.Location, func(a *model.Artifact) {
			e, err := pricing.NewEstimator(a, pricing.WithLogger(logger), pricing.WithMonitor(monitor))
			if err != nil {
				logger.Error("rebuild estimator failed, keeping current model", zap.Error(err))
				return
			}
			cached.Invalidate(cfg.Artifact.Location)
			holder.Swap(e)
		}, model.WithWatcherLogger(logger))
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error("artifact watcher stopped", zap.Error(err))
			}
		}()
	}

	var journal server.Journal
	if cfg.History.Enabled {
		j, err := history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer j.Close()
		journal = j
	}

	rules, err := dsl.NewRuleSet(cfg.Validation.AllRules())
	if err != nil {
		return fmt.Errorf("compile validation rules: %w", err)
	}

	gin.SetMode(cfg.Server.Mode)
	engine := server.NewEngine(server.Deps{
		Holder:     holder,
		Predictor:  pricing.WrapLRUCache(holder, cfg.Cache.Size, time.Duration(cfg.Cache.TTL)*time.Second),
		Journal:    journal,
		Monitor:    monitor,
		Rules:      rules,
		Locale:     cfg.Locale,
		BatchLimit: cfg.Server.BatchLimit,
		Timeout:    time.Duration(cfg.Server.Timeout) * time.Second,
		Logger:     logger,

		BatchConcurrency: cfg.Server.BatchConcurrency,
	})

	srv := &http.Server{Addr: cfg.Server.Listen, Handler: engine}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.Listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
