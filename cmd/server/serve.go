package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/handler"
	"github.com/WestCoastInformatics/snowstorm-1/internal/platform/config"
	"github.com/WestCoastInformatics/snowstorm-1/internal/platform/httpserver"
	"github.com/WestCoastInformatics/snowstorm-1/internal/platform/logger"
	"github.com/WestCoastInformatics/snowstorm-1/internal/platform/metrics"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/audit/worker"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin HTTP server and the audit outbox relay",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	log := logger.New(cfg.Log)

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.ensureBranch(ctx, cfg.DefaultBranch); err != nil {
		return err
	}
	relay, err := a.newRelay(ctx)
	if err != nil {
		return fmt.Errorf("start audit relay: %w", err)
	}

	if cfg.Server.AdminToken == "" {
		log.WarnContext(ctx, "MRCM_ADMIN_TOKEN not set, admin routes are unauthenticated")
	}
	router := handler.NewRouter(a.module.Handler,
		handler.WithHTTPMetrics(metrics.New()),
		handler.WithHealthChecks(a.checks),
		handler.WithAdminToken(cfg.Server.AdminToken, log),
	)
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting MRCM admin server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	if relay != nil {
		w := worker.NewWorker(relay, cfg.Outbox.Interval, cfg.Outbox.BatchSize, log)
		g.Go(func() error {
			return w.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down MRCM admin server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
