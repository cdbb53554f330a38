// filepath: internal/repository/repository.go
package repository

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"courrierkit/internal/config"
	"courrierkit/internal/logging"
	"courrierkit/internal/shared"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // SQLite driver
)

// SafeNameRegex validates identifiers before they are interpolated into SQL.
var SafeNameRegex = regexp.MustCompile("^[a-zA-Z_][a-zA-Z0-9_]*$")

const columnCacheTTL = 5 * time.Minute

// Repository gives access to the courrier application's SQLite file.
type Repository struct {
	DB       *sqlx.DB
	Cache    *cache.Cache
	Builder  squirrel.StatementBuilderType
	Logger   *logrus.Logger
	Path     string
	ReadOnly bool

	// Now returns the reference time for date based KPIs.
	Now func() time.Time
}

// Open connects to the database described by cfg.
func Open(cfg config.DatabaseConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("open database: empty path")
	}

	if _, err := os.Stat(cfg.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) && (cfg.MustExist || cfg.ReadOnly) {
			return nil, fmt.Errorf("database file %s: %w", cfg.Path, shared.ErrNotFound)
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat database file %s: %w", cfg.Path, err)
		}
	}

	db, err := sqlx.Open("sqlite", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database %s: %w", cfg.Path, err)
	}

	logging.Log.Debugf("Opened database %s (read-only: %t)", cfg.Path, cfg.ReadOnly)

	return &Repository{
		DB:       db,
		Cache:    cache.New(columnCacheTTL, 10*time.Minute),
		Builder:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question).RunWith(db),
		Logger:   logging.Log,
		Path:     cfg.Path,
		ReadOnly: cfg.ReadOnly,
		Now:      time.Now,
	}, nil
}

// dsn builds the modernc connection string. Pragmas are set per connection.
// time.Time arguments are written in the layout SQLite date functions read.
func dsn(cfg config.DatabaseConfig) string {
	params := []string{"_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)", "_time_format=sqlite"}
	if cfg.ReadOnly {
		params = append([]string{"mode=ro"}, params...)
	}
	return "file:" + cfg.Path + "?" + strings.Join(params, "&")
}

// Close releases the connection pool.
func (s *Repository) Close() error {
	return s.DB.Close()
}

// invalidate drops the cached schema information of a table.
func (s *Repository) invalidate(table string) {
	s.Cache.Delete(columnsCacheKey(table))
}

func columnsCacheKey(table string) string {
	return "columns:" + table
}

// quoteIdent validates and double-quotes a table or column name.
func quoteIdent(name string) (string, error) {
	if !SafeNameRegex.MatchString(name) {
		return "", fmt.Errorf("identifier %q: %w", name, shared.ErrInvalidName)
	}
	return `"` + name + `"`, nil
}

// isUniqueViolation reports whether err comes from a UNIQUE or PRIMARY KEY constraint.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY constraint failed")
}
