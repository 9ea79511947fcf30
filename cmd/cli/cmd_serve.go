package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the AirSentinel server",
	Long:  `Start the AirSentinel HTTP API, the live stream and the optional MQTT and Kafka integrations.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (overrides server.port)")
	serveCmd.Flags().Bool("access-log", true, "write combined access logs to stdout")
	settings.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	cfg := app.Config
	logger := app.Logger

	dbManager, err := app.openDatabase()
	if err != nil {
		return err
	}
	defer dbManager.Close()

	// Run migrations
	if err := dbManager.Init(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registryManager := InitRegistryManager(ctx, cfg, dbManager, logger)
	defer registryManager.Close()

	// Setup Router
	routeManager := NewRouteManager(dbManager, registryManager, cfg.Server, logger)
	routeManager.Setup()

	var accessLog io.Writer
	if enabled, _ := cmd.Flags().GetBool("access-log"); enabled {
		accessLog = os.Stdout
	}

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	server := &http.Server{
		Handler:      routeManager.Handler(accessLog),
		Addr:         addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		registryManager.Hub.Run()
		return nil
	})

	if sub := registryManager.Subscriber; sub != nil {
		g.Go(func() error {
			return sub.Run(gctx)
		})
	}

	g.Go(func() error {
		logger.Info("starting AirSentinel server", "addr", addr, "driver", dbManager.Driver())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	// Handle graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		registryManager.Hub.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		return nil
	})

	return g.Wait()
}
