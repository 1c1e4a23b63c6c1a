package commands

import (
	"context"

	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the experiment tables",
	Long: `Create the config, portfolio, decision and signal tables if they
do not exist. Safe to run repeatedly.

Example:
  go run ./cmd/deepfund migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.db.Migrate(ctx); err != nil {
		printError(err.Error())
		return err
	}
	a.log.Info("Migration completed")
	printSuccess("schema up to date")
	return nil
}
