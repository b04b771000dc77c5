// Package main - Entry point for the pricing engine HTTP server
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
	"go.uber.org/zap"

	"pricing-engine/adapters/storage"
	"pricing-engine/api"
	"pricing-engine/core/engine"
	"pricing-engine/internal/config"
	"pricing-engine/internal/logging"
)

const version = "1.0.0"

var (
	cfgFile   string
	addr      string
	backend   string
	storePath string
	noStore   bool
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:          "pricing-server",
	Short:        "Serve the pricing engine over HTTP",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runServer,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pricing-engine/config.yaml)")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	rootCmd.Flags().StringVar(&backend, "store", "", "storage backend: memory, file or bolt (overrides config)")
	rootCmd.Flags().StringVar(&storePath, "store-path", "", "storage path (overrides config)")
	rootCmd.Flags().BoolVar(&noStore, "no-store", false, "run without a document store")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func runServer(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if backend != "" {
		cfg.Storage.Backend = backend
	}
	if storePath != "" {
		cfg.Storage.Path = storePath
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	config.Set(cfg)

	if err := logging.Initialize(cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()
	logger := logging.Component("server")

	var store storage.Store
	if !noStore {
		store, err = storage.StoreFactory(storage.Backend(cfg.Storage.Backend), map[string]string{
			"path": cfg.Storage.Path,
		})
		if err != nil {
			return err
		}
		defer store.Close()
	}

	precision := cfg.Engine.DisplayPrecision
	eng := engine.NewEngine(engine.Config{
		Logger:           logging.Component("engine"),
		DisplayPrecision: &precision,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewServerWithStore(version, store, eng, logging.Component("api")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("version", version),
			zap.Bool("store", store != nil),
			zap.String("backend", cfg.Storage.Backend))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
