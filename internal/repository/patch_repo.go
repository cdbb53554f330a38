// filepath: internal/repository/patch_repo.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"courrierkit/internal/models"
	"courrierkit/internal/shared"
)

// Migration files the backend fails to apply on databases created before them.
const (
	MergeUsersMigration    = "001_merge_users_personnel.sql"
	ArchivesMigration      = "002_consolidate_archives.sql"
	RefreshTokensMigration = "003_refresh_tokens.sql"
)

// OutgoingColumns are the courriers_sortants columns older databases lack.
var OutgoingColumns = []models.ColumnDef{
	{Name: "entete", Type: "TEXT"},
	{Name: "pied", Type: "TEXT"},
	{Name: "logo", Type: "TEXT"},
	{Name: "created_at", Type: "TIMESTAMP DEFAULT CURRENT_TIMESTAMP"},
	{Name: "updated_at", Type: "TIMESTAMP DEFAULT CURRENT_TIMESTAMP"},
	{Name: "validated_by", Type: "INTEGER"},
	{Name: "validated_at", Type: "TIMESTAMP"},
}

// EnsureRefreshTokens creates refresh_tokens and its indexes. It is idempotent.
func (s *Repository) EnsureRefreshTokens(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			token_hash TEXT NOT NULL UNIQUE,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME,
			replaced_by TEXT,
			ip_address TEXT,
			user_agent TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		"CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_refresh_tokens_token_hash ON refresh_tokens(token_hash)",
	}
	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure refresh_tokens: %w", err)
		}
	}
	s.invalidate("refresh_tokens")
	return nil
}

// MarkOutcome tells whether a migration mark was added by this run.
type MarkOutcome struct {
	Filename string
	Added    bool
}

// FixMigrationsReport summarizes FixMigrations.
type FixMigrationsReport struct {
	Before             []models.AppliedMigration
	Marks              []MarkOutcome
	RefreshTokensTable bool
}

// FixMigrations unblocks the backend's migration runner: it marks the users
// merge as applied, creates refresh_tokens by hand and marks that migration too.
func (s *Repository) FixMigrations(ctx context.Context) (*FixMigrationsReport, error) {
	if err := s.EnsureMigrationsTable(ctx); err != nil {
		return nil, err
	}

	before, err := s.AppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	report := &FixMigrationsReport{Before: before}

	mark := func(filename string) error {
		err := s.MarkMigration(ctx, filename)
		switch {
		case err == nil:
			report.Marks = append(report.Marks, MarkOutcome{Filename: filename, Added: true})
		case errors.Is(err, shared.ErrAlreadyMarked):
			report.Marks = append(report.Marks, MarkOutcome{Filename: filename, Added: false})
		default:
			return err
		}
		return nil
	}

	if err := mark(MergeUsersMigration); err != nil {
		return nil, err
	}
	if err := s.EnsureRefreshTokens(ctx); err != nil {
		return nil, err
	}
	if err := mark(RefreshTokensMigration); err != nil {
		return nil, err
	}

	report.RefreshTokensTable, err = s.TableExists(ctx, "refresh_tokens")
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ColumnOutcome is the result of adding one column.
type ColumnOutcome struct {
	Column  string
	Added   bool
	Existed bool
	Err     error
}

// AddColumns runs one ALTER TABLE per column. A failing column does not stop the others.
func (s *Repository) AddColumns(ctx context.Context, table string, defs []models.ColumnDef) ([]ColumnOutcome, error) {
	quotedTable, err := quoteIdent(table)
	if err != nil {
		return nil, err
	}
	exists, err := s.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("table %s: %w", table, shared.ErrTableNotFound)
	}

	have, err := s.columnSet(ctx, table)
	if err != nil {
		return nil, err
	}
	defer s.invalidate(table)

	outcomes := make([]ColumnOutcome, 0, len(defs))
	for _, def := range defs {
		out := ColumnOutcome{Column: def.Name}
		if have[def.Name] {
			out.Existed = true
			outcomes = append(outcomes, out)
			continue
		}
		col, err := quoteIdent(def.Name)
		if err != nil {
			out.Err = err
			outcomes = append(outcomes, out)
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", quotedTable, col, def.Type)
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			out.Err = err
			// SQLite refuses non-constant defaults on ALTER TABLE, retry bare.
			if strings.Contains(strings.ToUpper(def.Type), "DEFAULT CURRENT_") {
				bare := strings.Fields(def.Type)[0]
				if _, retryErr := s.DB.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", quotedTable, col, bare)); retryErr == nil {
					out.Err = nil
					out.Added = true
				}
			}
		} else {
			out.Added = true
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// DropTable drops table if it exists.
func (s *Repository) DropTable(ctx context.Context, table string) error {
	quoted, err := quoteIdent(table)
	if err != nil {
		return err
	}
	if _, err := s.DB.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoted); err != nil {
		return fmt.Errorf("drop %s: %w", table, err)
	}
	s.invalidate(table)
	return nil
}

// RecreateAuditLogs drops audit_logs and creates it with the full schema and indexes.
func (s *Repository) RecreateAuditLogs(ctx context.Context) ([]models.Column, error) {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmts := []string{
		"DROP TABLE IF EXISTS audit_logs",
		`CREATE TABLE audit_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER,
			user_email TEXT,
			action TEXT NOT NULL,
			module TEXT,
			entity_type TEXT,
			entity_id INTEGER,
			severity TEXT DEFAULT 'info',
			success INTEGER DEFAULT 1,
			ip TEXT,
			user_agent TEXT,
			meta TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE SET NULL
		)`,
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user ON audit_logs(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs(action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_ip ON audit_logs(ip)",
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("recreate audit_logs: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.invalidate("audit_logs")
	return s.Columns(ctx, "audit_logs")
}
