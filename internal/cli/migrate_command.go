package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewMigrateCommand(globalOptions *GlobalOptions) *cobra.Command {

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Reference schema migration tools",
		Long:  `Manage the reference schema used for local test databases. Use subcommands 'up', 'down', or 'status'.`,
	}

	var upCmd = &cobra.Command{
		Use:   "up",
		Short: "Migrate the database to the most recent version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, globalOptions, "up")
		},
	}

	var downCmd = &cobra.Command{
		Use:   "down",
		Short: "Roll back the database by one version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, globalOptions, "down")
		},
	}

	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Dump the migration status for the current DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, globalOptions, "status")
		},
	}

	var checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Fail when the database is behind the embedded migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := globalOptions.openRepository(false)
			if err != nil {
				return err
			}
			defer repo.Close()

			current, latest, err := repo.SchemaVersion()
			if err != nil {
				return err
			}
			out := printer(cmd)
			out.KV("current version", current)
			out.KV("latest version", latest)
			if err := repo.ValidateSchema(); err != nil {
				out.Fail("%v", err)
				return err
			}
			out.OK("Schema up to date")
			return nil
		},
	}

	// Add subcommands
	migrateCmd.AddCommand(upCmd)
	migrateCmd.AddCommand(downCmd)
	migrateCmd.AddCommand(statusCmd)
	migrateCmd.AddCommand(checkCmd)

	return migrateCmd
}

func runMigration(cmd *cobra.Command, globalOptions *GlobalOptions, command string) error {
	repo, err := globalOptions.openRepository(false)
	if err != nil {
		return err
	}
	defer repo.Close()

	logger := globalOptions.Logger
	logger.Infof("Running migration command: %s", command)

	ctx := cmd.Context()
	var migrateErr error
	switch command {
	case "up":
		migrateErr = repo.MigrateUp(ctx)
	case "down":
		migrateErr = repo.MigrateDown(ctx)
	case "status":
		migrateErr = repo.MigrateStatus(ctx)
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
	if migrateErr != nil {
		return fmt.Errorf("migration failed: %w", migrateErr)
	}

	if command != "status" {
		globalOptions.recordAudit(cmd, "migrate."+command, repo.Path, nil)
	}
	logger.Info("Migration operation completed successfully.")
	return nil
}

