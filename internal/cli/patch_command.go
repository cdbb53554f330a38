package cli

import (
	"fmt"
	"strings"

	"courrierkit/internal/models"
	"courrierkit/internal/repository"
	"courrierkit/internal/shared"

	"github.com/spf13/cobra"
)

type PatchOptions struct {
	Yes     bool
	DryRun  bool
	Table   string
	Columns []string
}

// NewPatchCommand groups the hand written schema and data repairs.
func NewPatchCommand(globalOptions *GlobalOptions) *cobra.Command {
	patchCmd := &cobra.Command{
		Use:   "patch",
		Short: "Apply schema and data repairs to the courrier database",
	}

	refreshCmd := &cobra.Command{
		Use:   "refresh-tokens",
		Short: "Create the refresh_tokens table and its indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWritableRepo(globalOptions, func(repo *repository.Repository) error {
				if err := repo.EnsureRefreshTokens(cmd.Context()); err != nil {
					return err
				}
				printer(cmd).OK("refresh_tokens ready")
				globalOptions.recordAudit(cmd, "patch.refresh_tokens", "refresh_tokens", nil)
				return nil
			})
		},
	}

	columnsOptions := &PatchOptions{}
	addColumnsCmd := &cobra.Command{
		Use:   "add-columns",
		Short: "Add missing columns, courriers_sortants by default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := columnsOptions.columnDefs()
			if err != nil {
				return err
			}
			return withWritableRepo(globalOptions, func(repo *repository.Repository) error {
				return runAddColumns(cmd, globalOptions, repo, columnsOptions.Table, defs)
			})
		},
	}
	addColumnsCmd.Flags().StringVar(&columnsOptions.Table, "table", "courriers_sortants", "Table to alter.")
	addColumnsCmd.Flags().StringArrayVar(&columnsOptions.Columns, "column", nil, "Column as name:TYPE, repeatable. Defaults to the known courriers_sortants columns.")

	dropOptions := &PatchOptions{}
	dropOutgoingCmd := &cobra.Command{
		Use:   "drop-outgoing",
		Short: "Drop courriers_sortants so the backend recreates it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !dropOptions.Yes {
				return fmt.Errorf("drop-outgoing: %w", shared.ErrConfirmationRequired)
			}
			return withWritableRepo(globalOptions, func(repo *repository.Repository) error {
				if err := repo.DropTable(cmd.Context(), "courriers_sortants"); err != nil {
					return err
				}
				out := printer(cmd)
				out.OK("courriers_sortants dropped")
				out.Info("Restart the backend to recreate it with the right structure")
				globalOptions.recordAudit(cmd, "patch.drop_table", "courriers_sortants", nil)
				return nil
			})
		},
	}
	dropOutgoingCmd.Flags().BoolVar(&dropOptions.Yes, "yes", false, "Confirm the destructive operation.")

	auditOptions := &PatchOptions{}
	auditLogsCmd := &cobra.Command{
		Use:   "audit-logs",
		Short: "Recreate audit_logs with the full schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !auditOptions.Yes {
				return fmt.Errorf("audit-logs: %w", shared.ErrConfirmationRequired)
			}
			return withWritableRepo(globalOptions, func(repo *repository.Repository) error {
				cols, err := repo.RecreateAuditLogs(cmd.Context())
				if err != nil {
					return err
				}
				out := printer(cmd)
				out.OK("audit_logs recreated")
				out.Table([]string{"cid", "name", "type", "notnull", "default", "pk"}, columnRows(cols))
				globalOptions.recordAudit(cmd, "patch.audit_logs", "audit_logs", map[string]interface{}{"columns": len(cols)})
				return nil
			})
		},
	}
	auditLogsCmd.Flags().BoolVar(&auditOptions.Yes, "yes", false, "Confirm the destructive operation.")

	provenanceOptions := &PatchOptions{}
	provenanceCmd := &cobra.Command{
		Use:   "archive-provenance",
		Short: "Fill missing archive service codes from their incoming mail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWritableRepo(globalOptions, func(repo *repository.Repository) error {
				return runArchiveProvenance(cmd, globalOptions, repo, provenanceOptions.DryRun)
			})
		},
	}
	provenanceCmd.Flags().BoolVar(&provenanceOptions.DryRun, "dry-run", false, "Report only, change nothing.")

	importOptions := &PatchOptions{}
	importCmd := &cobra.Command{
		Use:   "import-archived",
		Short: "Copy archived incoming mails into archives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWritableRepo(globalOptions, func(repo *repository.Repository) error {
				return runImportArchived(cmd, globalOptions, repo, importOptions.DryRun)
			})
		},
	}
	importCmd.Flags().BoolVar(&importOptions.DryRun, "dry-run", false, "Run inside a rolled back transaction.")

	patchCmd.AddCommand(refreshCmd, addColumnsCmd, dropOutgoingCmd, auditLogsCmd, provenanceCmd, importCmd)
	return patchCmd
}

func withWritableRepo(globalOptions *GlobalOptions, fn func(repo *repository.Repository) error) error {
	repo, err := globalOptions.openRepository(false)
	if err != nil {
		return err
	}
	defer repo.Close()
	return fn(repo)
}

// columnDefs parses --column name:TYPE values.
func (opt *PatchOptions) columnDefs() ([]models.ColumnDef, error) {
	if len(opt.Columns) == 0 {
		return repository.OutgoingColumns, nil
	}
	defs := make([]models.ColumnDef, 0, len(opt.Columns))
	for _, c := range opt.Columns {
		name, typ, ok := strings.Cut(c, ":")
		if !ok || strings.TrimSpace(typ) == "" {
			return nil, fmt.Errorf("column %q must be name:TYPE: %w", c, shared.ErrInvalidName)
		}
		defs = append(defs, models.ColumnDef{Name: strings.TrimSpace(name), Type: strings.TrimSpace(typ)})
	}
	return defs, nil
}

func runAddColumns(cmd *cobra.Command, globalOptions *GlobalOptions, repo *repository.Repository, table string, defs []models.ColumnDef) error {
	outcomes, err := repo.AddColumns(cmd.Context(), table, defs)
	if err != nil {
		return err
	}

	out := printer(cmd)
	out.Section(fmt.Sprintf("Adding columns to %s", table))
	added, failed := 0, 0
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			failed++
			out.Fail("%s: %v", o.Column, o.Err)
		case o.Existed:
			out.Info("%s already exists", o.Column)
		case o.Added:
			added++
			out.OK("%s added", o.Column)
		}
	}
	if added > 0 {
		globalOptions.recordAudit(cmd, "patch.add_columns", table, map[string]interface{}{"added": added})
	}
	if failed > 0 {
		return fmt.Errorf("%d column(s) could not be added to %s", failed, table)
	}
	return nil
}

func runArchiveProvenance(cmd *cobra.Command, globalOptions *GlobalOptions, repo *repository.Repository, dryRun bool) error {
	report, err := repo.FixArchiveProvenance(cmd.Context(), dryRun)
	if err != nil {
		return err
	}

	out := printer(cmd)
	title := "Archive provenance"
	if dryRun {
		title += " (dry run)"
	}
	out.Section(title)
	out.KV("archives without service", report.Found)
	for _, c := range report.Updated {
		out.OK("Archive %d (%s) -> %s", c.ArchiveID, c.Reference, c.ServiceCode)
	}
	for _, c := range report.Skipped {
		out.Warn("Archive %d (%s) skipped: no usable service on its mail", c.ArchiveID, c.Reference)
	}
	out.KV("updated", len(report.Updated))
	out.KV("skipped", len(report.Skipped))
	out.KV("remaining", report.Remaining)
	if len(report.Samples) > 0 {
		out.Line("")
		out.Table(report.Samples[0].Columns, rowStrings(report.Samples))
	}

	if !dryRun && len(report.Updated) > 0 {
		globalOptions.recordAudit(cmd, "patch.archive_provenance", "archives", map[string]interface{}{"updated": len(report.Updated)})
	}
	return nil
}

func runImportArchived(cmd *cobra.Command, globalOptions *GlobalOptions, repo *repository.Repository, dryRun bool) error {
	out := printer(cmd)
	if !dryRun {
		backup, err := repo.Backup()
		if err != nil {
			return err
		}
		out.OK("Backup written to %s", backup)
	}

	report, err := repo.ImportArchivedMails(cmd.Context(), dryRun)
	if err != nil {
		return err
	}

	title := "Import of archived mails"
	if dryRun {
		title += " (dry run, rolled back)"
	}
	out.Section(title)
	out.KV("predicates", strings.Join(report.Predicates, " OR "))
	out.KV("found", report.Found)
	out.KV("inserted", report.Inserted)
	for _, s := range report.Skipped {
		out.Warn("Mail %d (%s) skipped: %s", s.IncomingID, s.Reference, s.Reason)
	}

	if !dryRun && report.Inserted > 0 {
		globalOptions.recordAudit(cmd, "patch.import_archived", "archives", map[string]interface{}{
			"inserted": report.Inserted,
			"skipped":  len(report.Skipped),
		})
	}
	return nil
}

