package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nurpe/rentflow/internal/config"
)

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the queue workers without the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if a.cfg.Queue.Backend != config.QueueBackendDatabase {
				return fmt.Errorf("worker needs QUEUE_BACKEND=%s, jobs in memory are only visible to serve", config.QueueBackendDatabase)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.worker.Run(ctx)
		},
	}
}
