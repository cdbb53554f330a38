// filepath: internal/repository/dashboard_repo.go
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
)

// GroupCount is one bucket of a GROUP BY count. Key is nil for NULL.
type GroupCount struct {
	Key   *string `db:"k"`
	Count int     `db:"n"`
}

// CountBy groups table rows by column, largest buckets first.
func (s *Repository) CountBy(ctx context.Context, table, column string) ([]GroupCount, error) {
	t, err := quoteIdent(table)
	if err != nil {
		return nil, err
	}
	c, err := quoteIdent(column)
	if err != nil {
		return nil, err
	}

	query, args, err := s.Builder.
		Select(c+" AS k", "COUNT(*) AS n").
		From(t).
		GroupBy(c).
		OrderBy("n DESC", "k").
		ToSql()
	if err != nil {
		return nil, err
	}

	var groups []GroupCount
	if err := s.DB.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, fmt.Errorf("count %s by %s: %w", table, column, err)
	}
	return groups, nil
}

// CountStatusIn counts rows whose status is NULL or whose upper-cased status is in values.
func (s *Repository) CountStatusIn(ctx context.Context, table, statusColumn string, values []string) (int, error) {
	t, err := quoteIdent(table)
	if err != nil {
		return 0, err
	}
	c, err := quoteIdent(statusColumn)
	if err != nil {
		return 0, err
	}

	query, args, err := s.Builder.Select("COUNT(*)").From(t).
		Where(squirrel.Or{
			squirrel.Expr(c + " IS NULL"),
			squirrel.Eq{"UPPER(" + c + ")": upperAll(values)},
		}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var n int
	if err := s.DB.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count %s by status: %w", table, err)
	}
	return n, nil
}

// CountOverdue counts rows whose due column is before today. When statusColumn
// is set, rows whose upper-cased status is in doneValues are excluded.
func (s *Repository) CountOverdue(ctx context.Context, table, dueColumn, statusColumn string, doneValues []string, today string) (int, error) {
	t, err := quoteIdent(table)
	if err != nil {
		return 0, err
	}
	d, err := quoteIdent(dueColumn)
	if err != nil {
		return 0, err
	}

	cond := squirrel.And{
		squirrel.Expr(d + " IS NOT NULL"),
		squirrel.Expr("date("+d+") < date(?)", today),
	}
	if statusColumn != "" {
		c, err := quoteIdent(statusColumn)
		if err != nil {
			return 0, err
		}
		cond = append(cond, squirrel.Or{
			squirrel.Expr(c + " IS NULL"),
			squirrel.NotEq{"UPPER(" + c + ")": upperAll(doneValues)},
		})
	}

	query, args, err := s.Builder.Select("COUNT(*)").From(t).Where(cond).ToSql()
	if err != nil {
		return 0, err
	}

	var n int
	if err := s.DB.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count overdue %s: %w", table, err)
	}
	return n, nil
}

func upperAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToUpper(v)
	}
	return out
}
