package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/neonlead/leadscraper/internal/worker"
)

func newWorkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "work",
		Short: "Starts a queue worker",
		Long: `Starts a worker process that pulls scrape jobs from the durable
queue, runs each batch through the pipeline and persists results. Run one or
more of these alongside the API when the queue provider is "pubsub".`,
		RunE: runWorkCommand,
	}
}

func runWorkCommand(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer svc.close()

	consumer := svc.consumer()
	if consumer == nil {
		return fmt.Errorf("worker mode requires a configured queue provider")
	}

	w := worker.New(consumer, svc.runner, svc.logger)
	svc.logger.Info("worker started")
	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("worker run: %w", err)
	}
	svc.logger.Info("worker stopped")
	return nil
}
