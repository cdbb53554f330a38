// filepath: internal/repository/migration.go
package repository

import (
	"context"
	"fmt"

	"courrierkit/internal/db/migrations"

	"github.com/pressly/goose/v3"
)

// The 'internal/db/migrations' directory is embedded, so goose reads the root of its FS.
const migrationsDir = "."

func (s *Repository) setupGoose() error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(s.Logger)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// MigrateUp applies every pending reference schema migration.
func (s *Repository) MigrateUp(ctx context.Context) error {
	if err := s.setupGoose(); err != nil {
		return err
	}
	defer s.Cache.Flush()
	return goose.UpContext(ctx, s.DB.DB, migrationsDir)
}

// MigrateDown rolls back the most recent migration.
func (s *Repository) MigrateDown(ctx context.Context) error {
	if err := s.setupGoose(); err != nil {
		return err
	}
	defer s.Cache.Flush()
	return goose.DownContext(ctx, s.DB.DB, migrationsDir)
}

// MigrateStatus logs the state of every migration.
func (s *Repository) MigrateStatus(ctx context.Context) error {
	if err := s.setupGoose(); err != nil {
		return err
	}
	return goose.StatusContext(ctx, s.DB.DB, migrationsDir)
}

// SchemaVersion returns the applied and the latest embedded migration versions.
func (s *Repository) SchemaVersion() (current, latest int64, err error) {
	if err := s.setupGoose(); err != nil {
		return 0, 0, err
	}
	current, err = goose.GetDBVersion(s.DB.DB)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	all, err := goose.CollectMigrations(migrationsDir, 0, goose.MaxVersion)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to collect migrations: %w", err)
	}
	last, err := all.Last()
	if err != nil {
		return current, 0, err
	}
	return current, last.Version, nil
}

// ValidateSchema fails when the database is behind the embedded migrations.
func (s *Repository) ValidateSchema() error {
	current, latest, err := s.SchemaVersion()
	if err != nil {
		return err
	}
	if current < latest {
		return fmt.Errorf("database schema is outdated (version %d, expected %d): run 'courrierkit migrate up'", current, latest)
	}
	return nil
}

// EnsureSchemaBootstrapped migrates a brand new database. A database that
// already has a goose version table, or any table at all, is left alone.
func (s *Repository) EnsureSchemaBootstrapped(ctx context.Context) error {
	exists, err := s.TableExists(ctx, "goose_db_version")
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	tables, err := s.Tables(ctx)
	if err != nil {
		return err
	}
	if len(tables) > 0 {
		s.Logger.Infof("Database %s already has %d tables, skipping schema bootstrap", s.Path, len(tables))
		return nil
	}

	s.Logger.Info("Fresh database detected, applying reference schema")
	return s.MigrateUp(ctx)
}
