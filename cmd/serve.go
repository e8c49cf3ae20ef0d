package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/socratic/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tutoring HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		t, err := newTutor(ctx, cmd, reg)
		if err != nil {
			return err
		}
		defer t.Close()

		cfg := t.cfg
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		server := api.NewServer(t.orch,
			api.WithLogger(t.logger),
			api.WithRateLimit(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst),
			api.WithGatherer(reg),
			api.WithHealthCheck(func(ctx context.Context) error { return t.st.DB().PingContext(ctx) }),
			api.WithSessionTimeout(cfg.Session.Timeout),
		)
		srv := &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      server.Routes(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		t.sessions.StartSweeper(ctx, cfg.Session.SweepInterval)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			t.logger.Info("http server listening", "addr", cfg.Server.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			t.logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides SOCRATIC_ADDR)")
}
