package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neonlead/leadscraper/internal/api"
	systemclock "github.com/neonlead/leadscraper/internal/clock/system"
	"github.com/neonlead/leadscraper/internal/id/uuid"
	"github.com/neonlead/leadscraper/internal/search"
	"github.com/neonlead/leadscraper/internal/worker"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Starts the HTTP API",
		Long: `Starts the scraper HTTP API: synchronous batch scraping, job
submission, job status/result reads, CSV export and keyword search. When the
queue provider is "memory" an in-process worker drains jobs too.`,
		RunE: runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer svc.close()

	searcher := search.New(search.Config{
		BingKey:      svc.cfg.Search.BingKey,
		BingEndpoint: svc.cfg.Search.BingEndpoint,
		SerpAPIKey:   svc.cfg.Search.SerpAPIKey,
	}, svc.logger)

	server := api.NewServer(
		svc.orch,
		svc.store,
		svc.queue(),
		searcher,
		uuid.New(),
		systemclock.New(),
		svc.cfg,
		svc.logger,
	)

	// The memory transport has no external worker process; drain it here.
	if svc.memQueue != nil {
		w := worker.New(svc.memQueue, svc.runner, svc.logger)
		go func() {
			if err := w.Run(ctx); err != nil {
				svc.logger.Error("in-process worker stopped", zap.Error(err))
			}
		}()
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", svc.cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		svc.logger.Info("http server listening", zap.Int("port", svc.cfg.Server.Port))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		svc.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}
