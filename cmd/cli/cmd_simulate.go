package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/sguter90/airsentinel/pkg/api"
	"github.com/sguter90/airsentinel/pkg/simulator"
	"github.com/spf13/cobra"
)

const (
	healthAttempts = 10
	healthInterval = 5 * time.Second
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Send generated readings to a running server",
	Long: `Wait for the AirSentinel API to become healthy, then post one random
reading per interval until interrupted. About one in ten readings is drawn from a
wider spread so the outlier detection has something to find.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().String("url", "", "base URL of the API (overrides simulator.url)")
	simulateCmd.Flags().Duration("interval", 0, "time between readings (overrides simulator.interval)")
	simulateCmd.Flags().Float64("anomaly-chance", 0, "probability of a wide-spread reading")
	simulateCmd.Flags().Int64("seed", 0, "random seed, 0 picks one from the clock")
	settings.BindPFlag("simulator.url", simulateCmd.Flags().Lookup("url"))
	settings.BindPFlag("simulator.interval", simulateCmd.Flags().Lookup("interval"))
	settings.BindPFlag("simulator.anomaly_chance", simulateCmd.Flags().Lookup("anomaly-chance"))
	settings.BindPFlag("simulator.seed", simulateCmd.Flags().Lookup("seed"))
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	cfg := app.Config.Simulator

	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", cfg.Interval)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := api.NewClient(cfg.URL)

	app.Logger.Info("waiting for API", "url", client.BaseURL())
	if err := client.WaitUntilHealthy(ctx, healthAttempts, healthInterval); err != nil {
		return err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	service := simulator.NewService(client, simulator.NewGenerator(seed, cfg.AnomalyChance), cfg.Interval, app.Logger)
	service.Run(ctx)

	s := service.Stats()
	fmt.Printf("✓ Simulation stopped: %d sent, %d failed, %d anomalous\n", s.Sent, s.Failed, s.Anomalies)
	return nil
}
