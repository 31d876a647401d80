package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/ppather/internal/overlay"
	"github.com/udisondev/ppather/internal/pather"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve route requests, overlay events and metrics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	slog.Info("ppather starting", "log_level", cfg.LogLevel)

	svc, closeSvc, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSvc()

	hub := overlay.NewHub()
	detach := hub.Attach(svc.Events())
	defer detach()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	apiMux := http.NewServeMux()
	apiMux.Handle("/overlay", hub)
	apiMux.Handle("/route", pather.NewRouteHandler(svc))

	servers := []*http.Server{
		{Addr: cfg.MetricsAddr, Handler: metricsMux, ReadHeaderTimeout: 5 * time.Second},
		{Addr: cfg.OverlayAddr, Handler: apiMux, ReadHeaderTimeout: 5 * time.Second},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			slog.Info("http server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Warn("http server shutdown", "addr", srv.Addr, "err", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
