package main

import (
	"fmt"

	"github.com/sguter90/airsentinel/pkg/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  `Create or upgrade the sensor_data schema without starting the server.`,
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().Bool("list", false, "list embedded migrations instead of applying them")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)

	dbManager, err := app.openDatabase()
	if err != nil {
		return err
	}
	defer dbManager.Close()

	if list, _ := cmd.Flags().GetBool("list"); list {
		runner, err := database.NewMigrationsRunner(dbManager.GetDB(), app.Logger)
		if err != nil {
			return fmt.Errorf("failed to load migrations: %w", err)
		}
		for _, m := range runner.Migrations() {
			fmt.Printf("%06d  %s\n", m.Version, m.Name)
		}
		return nil
	}

	if err := dbManager.Init(); err != nil {
		return err
	}

	fmt.Printf("✓ Database migrated (%s)\n", dbManager.Driver())
	return nil
}
