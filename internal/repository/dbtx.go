// filepath: internal/repository/dbtx.go
package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Tx is a wrapper around *sqlx.Tx that provides transactional database operations.
type Tx struct {
	*sqlx.Tx
	repo *Repository
}

func (s *Repository) beginTx(ctx context.Context) (*Tx, error) {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, repo: s}, nil
}

// ArchiveRecord is a row to insert into archives.
type ArchiveRecord struct {
	Reference      string
	Category       interface{}
	Description    string
	Classeur       interface{}
	ArchivedDate   interface{}
	DocumentPath   string
	IncomingMailID int64
	IsCopy         int
	ExecutedTask   interface{}
}

// InsertArchiveInTx inserts rec, writing only the columns present in the archives table.
func (tx *Tx) InsertArchiveInTx(ctx context.Context, rec ArchiveRecord, have map[string]bool) (int64, error) {
	fields := []struct {
		name  string
		value interface{}
	}{
		{"reference", rec.Reference},
		{"category", rec.Category},
		{"description", rec.Description},
		{"classeur", rec.Classeur},
		{"archived_date", rec.ArchivedDate},
		{"document_path", rec.DocumentPath},
		{"incoming_mail_id", rec.IncomingMailID},
		{"is_copy", rec.IsCopy},
		{"executed_task", rec.ExecutedTask},
	}

	ins := tx.repo.Builder.Insert("archives")
	var cols []string
	var vals []interface{}
	for _, f := range fields {
		if !have[f.name] {
			continue
		}
		cols = append(cols, f.name)
		vals = append(vals, f.value)
	}
	query, args, err := ins.Columns(cols...).Values(vals...).ToSql()
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
