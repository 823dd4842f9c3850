package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"inventory/internal/config"
)

func newServeCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return st.serve(ctx)
		},
	}
	cmd.Flags().String("port", "", "listen address, for example :8080")
	_ = st.v.BindPFlag(config.KeyAppPort, cmd.Flags().Lookup("port"))
	return cmd
}

func (st *state) serve(ctx context.Context) error {
	a, err := st.open()
	if err != nil {
		return err
	}

	if err := a.ConsumeChanges(); err != nil {
		log.Printf("Failed to start change consumer: %v", err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.Listen(st.cfg.AppPort); err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Println("Shutting down server...")
		return a.Shutdown()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Println("Server gracefully stopped")
	return nil
}
