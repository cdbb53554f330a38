// filepath: internal/repository/migration_marks_repo.go
package repository

import (
	"context"
	"fmt"

	"courrierkit/internal/models"
	"courrierkit/internal/shared"
)

// EnsureMigrationsTable creates the backend's schema_migrations table when missing.
func (s *Repository) EnsureMigrationsTable(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT NOT NULL UNIQUE,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	s.invalidate("schema_migrations")
	return nil
}

// AppliedMigrations lists the backend migrations recorded as applied, oldest first.
func (s *Repository) AppliedMigrations(ctx context.Context) ([]models.AppliedMigration, error) {
	var marks []models.AppliedMigration
	err := s.DB.SelectContext(ctx, &marks, "SELECT id, filename, applied_at FROM schema_migrations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	return marks, nil
}

// MarkMigration records filename as applied without running it.
// It returns shared.ErrAlreadyMarked when the file is already recorded.
func (s *Repository) MarkMigration(ctx context.Context, filename string) error {
	_, err := s.DB.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", filename)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", filename, shared.ErrAlreadyMarked)
		}
		return fmt.Errorf("mark %s: %w", filename, err)
	}
	s.Logger.Infof("Migration %s marked as applied", filename)
	return nil
}

// MigrationMarked reports whether filename is recorded in schema_migrations.
func (s *Repository) MigrationMarked(ctx context.Context, filename string) (bool, error) {
	var n int
	if err := s.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", filename); err != nil {
		return false, err
	}
	return n > 0, nil
}
