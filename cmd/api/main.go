package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"aelin/internal/deal"
	"aelin/internal/httpapi"
	"aelin/internal/metrics"
	"aelin/internal/nftmetadata"
	"aelin/pkg/config"
	"aelin/pkg/db"
	"aelin/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(cfg.Log)
	defer func() { _ = log.Sync() }()

	metrics.Init(cfg.MetricsEnabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	defer conn.Close()

	if cfg.MigrationsPath != "" {
		if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
	}

	nftRepo := nftmetadata.NewRepository(conn)

	if cfg.NFT.RefreshCron != "" {
		opts := nftmetadata.OptionsFromConfig(cfg.NFT)
		sched, err := nftmetadata.NewScheduler(ctx, cfg.NFT.RefreshCron, func(ctx context.Context) error {
			_, err := nftmetadata.CollectWithBrowser(ctx, opts, cfg.NFT.Headless, nftRepo, log)
			return err
		}, log)
		if err != nil {
			log.Fatal("nft refresh schedule", zap.Error(err))
		}
		sched.Start()
		defer sched.Stop()
		log.Info("nft metadata refresh scheduled", zap.String("cron", cfg.NFT.RefreshCron))
	}

	router := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:         cfg,
		Log:         log,
		Deals:       deal.NewRepository(conn),
		Collections: nftmetadata.FallbackStore{
			Primary:   nftRepo,
			Secondary: nftmetadata.FileStore{Dir: cfg.NFT.OutputDir},
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http serve", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
}
