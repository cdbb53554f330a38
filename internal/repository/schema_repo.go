// filepath: internal/repository/schema_repo.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"courrierkit/internal/models"
	"courrierkit/internal/shared"

	"github.com/Masterminds/squirrel"
)

// Objects lists sqlite_master entries of the given types (all when empty),
// ordered by type then name.
func (s *Repository) Objects(ctx context.Context, types ...string) ([]models.Object, error) {
	q := s.Builder.Select("name", "type").From("sqlite_master").
		Where("name NOT LIKE 'sqlite_%'").
		OrderBy("type", "name")
	if len(types) > 0 {
		q = q.Where(squirrel.Eq{"type": types})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var objects []models.Object
	if err := s.DB.SelectContext(ctx, &objects, query, args...); err != nil {
		return nil, fmt.Errorf("list schema objects: %w", err)
	}
	return objects, nil
}

// Tables returns the user table names, sorted.
func (s *Repository) Tables(ctx context.Context) ([]string, error) {
	var names []string
	err := s.DB.SelectContext(ctx, &names,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

// TableExists reports whether a table with that name exists.
func (s *Repository) TableExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.DB.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Columns returns PRAGMA table_info for table. A missing table yields an empty slice.
func (s *Repository) Columns(ctx context.Context, table string) ([]models.Column, error) {
	key := columnsCacheKey(table)
	if cols, found := s.Cache.Get(key); found {
		return cols.([]models.Column), nil
	}

	quoted, err := quoteIdent(table)
	if err != nil {
		return nil, err
	}

	columns := []models.Column{}
	if err := s.DB.SelectContext(ctx, &columns, fmt.Sprintf("PRAGMA table_info(%s)", quoted)); err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}

	s.Cache.Set(key, columns, columnCacheTTL)
	return columns, nil
}

// ColumnNames returns the column names of table in declaration order.
func (s *Repository) ColumnNames(ctx context.Context, table string) ([]string, error) {
	cols, err := s.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names, nil
}

func (s *Repository) columnSet(ctx context.Context, table string) (map[string]bool, error) {
	names, err := s.ColumnNames(ctx, table)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set, nil
}

// HasColumn reports whether table has the column.
func (s *Repository) HasColumn(ctx context.Context, table, column string) (bool, error) {
	set, err := s.columnSet(ctx, table)
	if err != nil {
		return false, err
	}
	return set[column], nil
}

// DetectColumn returns the first candidate present in table, or "" when none is.
func (s *Repository) DetectColumn(ctx context.Context, table string, candidates ...string) (string, error) {
	set, err := s.columnSet(ctx, table)
	if err != nil {
		return "", err
	}
	for _, c := range candidates {
		if set[c] {
			return c, nil
		}
	}
	return "", nil
}

// TableSQL returns the CREATE statement stored for a table, index or view.
func (s *Repository) TableSQL(ctx context.Context, name string) (string, error) {
	var stmt sql.NullString
	err := s.DB.GetContext(ctx, &stmt, "SELECT sql FROM sqlite_master WHERE name = ?", name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("schema object %s: %w", name, shared.ErrNotFound)
		}
		return "", err
	}
	return stmt.String, nil
}

// Count returns COUNT(*) of a table.
func (s *Repository) Count(ctx context.Context, table string) (int, error) {
	quoted, err := quoteIdent(table)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.DB.GetContext(ctx, &n, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// SafeCount is Count that logs failures and returns 0.
func (s *Repository) SafeCount(ctx context.Context, table string) int {
	n, err := s.Count(ctx, table)
	if err != nil {
		s.Logger.Warnf("Count on %s failed: %v", table, err)
		return 0
	}
	return n
}

// SampleQuery selects rows of a table for inspection.
type SampleQuery struct {
	Table   string
	Columns []string // empty selects every column
	Where   squirrel.Sqlizer
	OrderBy string
	Limit   uint64
}

// SampleResult holds the rows and the requested columns that do not exist.
type SampleResult struct {
	Columns []string
	Missing []string
	Rows    []models.Row
}

// Sample reads rows from q.Table, selecting only the requested columns that exist.
func (s *Repository) Sample(ctx context.Context, q SampleQuery) (*SampleResult, error) {
	exists, err := s.TableExists(ctx, q.Table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("table %s: %w", q.Table, shared.ErrTableNotFound)
	}

	names, err := s.ColumnNames(ctx, q.Table)
	if err != nil {
		return nil, err
	}

	res := &SampleResult{Columns: names}
	if len(q.Columns) > 0 {
		set := make(map[string]bool, len(names))
		for _, n := range names {
			set[n] = true
		}
		res.Columns, res.Missing = filterExisting(q.Columns, set)
		if len(res.Columns) == 0 {
			return nil, fmt.Errorf("none of %v in %s: %w", q.Columns, q.Table, shared.ErrColumnNotFound)
		}
	}

	quoted := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		if quoted[i], err = quoteIdent(c); err != nil {
			return nil, err
		}
	}
	table, err := quoteIdent(q.Table)
	if err != nil {
		return nil, err
	}

	sb := s.Builder.Select(quoted...).From(table)
	if q.Where != nil {
		sb = sb.Where(q.Where)
	}
	if q.OrderBy != "" {
		sb = sb.OrderBy(q.OrderBy)
	}
	if q.Limit > 0 {
		sb = sb.Limit(q.Limit)
	}
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", q.Table, err)
	}
	res.Rows, err = collectRows(rows)
	if err != nil {
		return nil, err
	}
	return res, nil
}
