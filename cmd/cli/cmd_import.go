package main

import (
	"fmt"
	"os"

	"github.com/sguter90/airsentinel/pkg/parser/csvformat"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Replace all readings with the contents of a CSV file",
	Long: `Load readings from a CSV file with a header row
(timestamp,temperature,humidity,air_quality). Existing readings are deleted and
every imported row is stored as not anomalous, in a single transaction.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	path := args[0]

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	readings, err := csvformat.New().Parse(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for i := range readings {
		readings[i].IsAnomaly = false
	}

	dbManager, err := app.openDatabase()
	if err != nil {
		return err
	}
	defer dbManager.Close()

	if err := dbManager.Init(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	count, err := dbManager.ReplaceReadings(cmd.Context(), readings)
	if err != nil {
		return fmt.Errorf("failed to import readings: %w", err)
	}

	stored, err := dbManager.CountReadings(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to count readings: %w", err)
	}
	if stored != count {
		return fmt.Errorf("import stored %d readings, expected %d", stored, count)
	}

	fmt.Printf("✓ Successfully imported %d records\n", count)
	return nil
}
