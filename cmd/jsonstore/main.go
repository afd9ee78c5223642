package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"biblioteca/pkg/config"
	"biblioteca/pkg/jsonstore"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "jsonstore",
		Short:        "In-memory JSON collection store for local development",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var addr, seed string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the livros, membros and emprestimos collections over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
			if addr == "" {
				addr = cfg.StoreAddr
			}

			store := jsonstore.NewLibrary()
			if seed != "" {
				if err := loadSeed(store, seed); err != nil {
					return err
				}
			}
			return serve(cmd.Context(), addr, store)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default JSONSTORE_ADDR or :3000)")
	cmd.Flags().StringVar(&seed, "seed", "", "db.json file to preload")
	return cmd
}

func loadSeed(store *jsonstore.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	if err := store.Load(f); err != nil {
		return err
	}
	for _, name := range store.Collections() {
		slog.Info("seed loaded", "collection", name, "records", len(store.Records(name)))
	}
	return nil
}

func serve(ctx context.Context, addr string, store *jsonstore.Store) error {
	srv := &http.Server{Addr: addr, Handler: store.Router(gin.Logger())}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("jsonstore starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("jsonstore shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
