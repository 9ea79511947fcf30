package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sguter90/airsentinel/pkg/config"
	"github.com/sguter90/airsentinel/pkg/database"
	"github.com/sguter90/airsentinel/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type appContextKey struct{}

// App carries what every command needs
type App struct {
	Config *config.Config
	Logger *slog.Logger
}

var (
	configFile string
	settings   = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "airsentinel",
	Short: "AirSentinel - Environmental Sensor Service",
	Long: `AirSentinel ingests temperature, humidity and air quality readings,
flags outliers against recent history and serves filtered and aggregated views.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadApp,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: airsentinel.yaml in ., $HOME/.airsentinel or /etc/airsentinel)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	settings.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadApp reads the configuration and stores the App on the command context
func loadApp(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(settings, configFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		NoColor: !cfg.Log.Color,
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	cmd.SetContext(context.WithValue(cmd.Context(), appContextKey{}, &App{Config: cfg, Logger: logger}))
	return nil
}

func appFrom(cmd *cobra.Command) *App {
	return cmd.Context().Value(appContextKey{}).(*App)
}

// openDatabase connects using the loaded database settings
func (a *App) openDatabase() (*database.DatabaseManager, error) {
	dbManager, err := database.NewDatabaseManager(a.Config.DatabaseSettings(), a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbManager, nil
}
