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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nurpe/rentflow/internal/db"
)

func serveCmd() *cobra.Command {
	var (
		noWorker bool
		migrate  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API together with the queue workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if migrate {
				if err := db.Migrate(a.db); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			addr := fmt.Sprintf("%s:%d", a.cfg.HTTP.Host, a.cfg.HTTP.Port)
			server := &http.Server{
				Addr:              addr,
				Handler:           a.router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				a.log.Info().Str("addr", addr).Msg("starting rentflow api")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})
			if !noWorker {
				g.Go(func() error {
					return a.worker.Run(ctx)
				})
			}

			err = g.Wait()
			a.log.Info().Msg("rentflow stopped")
			return err
		},
	}

	cmd.Flags().BoolVar(&noWorker, "no-worker", false, "Serve HTTP only and leave jobs to separate worker processes")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")
	return cmd
}
