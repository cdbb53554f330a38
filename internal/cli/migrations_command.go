package cli

import (
	"errors"
	"fmt"

	"courrierkit/internal/models"
	"courrierkit/internal/repository"
	"courrierkit/internal/shared"

	"github.com/spf13/cobra"
)

// NewMigrationsCommand manages the backend's own schema_migrations marks.
func NewMigrationsCommand(globalOptions *GlobalOptions) *cobra.Command {
	migrationsCmd := &cobra.Command{
		Use:   "migrations",
		Short: "Inspect and repair the backend's schema_migrations table",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List applied backend migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := globalOptions.openRepository(true)
			if err != nil {
				return err
			}
			defer repo.Close()

			applied, err := repo.AppliedMigrations(cmd.Context())
			if err != nil {
				return err
			}
			out := printer(cmd)
			out.Section("Applied migrations")
			out.Table([]string{"id", "filename", "applied_at"}, appliedRows(applied))
			return nil
		},
	}

	markCmd := &cobra.Command{
		Use:   "mark <filename>",
		Short: "Mark a backend migration as applied without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := globalOptions.openRepository(false)
			if err != nil {
				return err
			}
			defer repo.Close()

			ctx := cmd.Context()
			out := printer(cmd)
			if err := repo.EnsureMigrationsTable(ctx); err != nil {
				return err
			}
			err = repo.MarkMigration(ctx, args[0])
			switch {
			case errors.Is(err, shared.ErrAlreadyMarked):
				out.Warn("Migration %s already marked", args[0])
			case err != nil:
				return err
			default:
				out.OK("Migration %s marked as applied", args[0])
				globalOptions.recordAudit(cmd, "migration.mark", args[0], nil)
			}

			applied, err := repo.AppliedMigrations(ctx)
			if err != nil {
				return err
			}
			out.Table([]string{"id", "filename", "applied_at"}, appliedRows(applied))
			return nil
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check <filename>...",
		Short: "Tell whether backend migrations are marked as applied",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := globalOptions.openRepository(true)
			if err != nil {
				return err
			}
			defer repo.Close()

			out := printer(cmd)
			missing := 0
			for _, filename := range args {
				marked, err := repo.MigrationMarked(cmd.Context(), filename)
				if err != nil {
					return err
				}
				if marked {
					out.OK("%s applied", filename)
				} else {
					missing++
					out.Fail("%s not applied", filename)
				}
			}
			if missing > 0 {
				return fmt.Errorf("%d migration(s) not applied: %w", missing, shared.ErrNotFound)
			}
			return nil
		},
	}

	fixCmd := &cobra.Command{
		Use:   "fix",
		Short: "Mark the users merge, create refresh_tokens and mark it",
		Long: fmt.Sprintf("Marks %s as applied, creates refresh_tokens by hand and marks %s, so the backend stops failing on startup.",
			repository.MergeUsersMigration, repository.RefreshTokensMigration),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := globalOptions.openRepository(false)
			if err != nil {
				return err
			}
			defer repo.Close()

			report, err := repo.FixMigrations(cmd.Context())
			if err != nil {
				return err
			}

			out := printer(cmd)
			out.Section("Migrations before fix")
			out.Table([]string{"id", "filename", "applied_at"}, appliedRows(report.Before))
			for _, m := range report.Marks {
				if m.Added {
					out.OK("%s marked as applied", m.Filename)
					globalOptions.recordAudit(cmd, "migration.mark", m.Filename, nil)
				} else {
					out.Info("%s already marked", m.Filename)
				}
			}
			if !report.RefreshTokensTable {
				out.Fail("refresh_tokens table is still missing")
				return fmt.Errorf("refresh_tokens: %w", shared.ErrTableNotFound)
			}
			out.OK("refresh_tokens table present")
			return nil
		},
	}

	migrationsCmd.AddCommand(listCmd, markCmd, checkCmd, fixCmd)
	return migrationsCmd
}

func appliedRows(applied []models.AppliedMigration) [][]string {
	rows := make([][]string, 0, len(applied))
	for _, m := range applied {
		rows = append(rows, []string{fmt.Sprint(m.ID), m.Filename, models.Deref(m.AppliedAt, "")})
	}
	return rows
}
