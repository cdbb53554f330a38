// filepath: internal/repository/archive_repo.go
package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"courrierkit/internal/models"
	"courrierkit/internal/shared"

	"github.com/oklog/ulid/v2"
)

const missingServiceCodeWhere = `(service_code IS NULL OR service_code = ''
	OR UPPER(service_code) = 'INCONNU' OR UPPER(service_code) = 'UNKNOWN')`

// ProvenanceChange is the decision taken for one archive.
type ProvenanceChange struct {
	ArchiveID   int64
	Reference   string
	ServiceCode string // empty when skipped
}

// ProvenanceReport summarizes FixArchiveProvenance.
type ProvenanceReport struct {
	DryRun    bool
	Found     int
	Updated   []ProvenanceChange
	Skipped   []ProvenanceChange
	Remaining int
	Samples   []models.Row
}

type provenanceCandidate struct {
	ID              int64   `db:"id"`
	Reference       string  `db:"reference"`
	AssignedService *string `db:"assigned_service"`
	Orientation     *string `db:"service_orientation_dg"`
}

func usableServiceCode(v *string) bool {
	if v == nil {
		return false
	}
	code := strings.TrimSpace(*v)
	upper := strings.ToUpper(code)
	return code != "" && upper != "INCONNU" && upper != "UNKNOWN"
}

// FixArchiveProvenance fills archives.service_code from the originating incoming
// mail when it is missing or unknown. With dryRun nothing is written.
func (s *Repository) FixArchiveProvenance(ctx context.Context, dryRun bool) (*ProvenanceReport, error) {
	if ok, err := s.HasColumn(ctx, "archives", "service_code"); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("archives.service_code: %w", shared.ErrColumnNotFound)
	}

	incoming, err := s.columnSet(ctx, "incoming_mails")
	if err != nil {
		return nil, err
	}
	assigned, orientation := "NULL", "NULL"
	if incoming["assigned_service"] {
		assigned = "i.assigned_service"
	}
	if incoming["service_orientation_dg"] {
		orientation = "i.service_orientation_dg"
	}

	query := fmt.Sprintf(`
		SELECT a.id, a.reference, %s AS assigned_service, %s AS service_orientation_dg
		FROM archives a
		LEFT JOIN incoming_mails i ON a.incoming_mail_id = i.id
		WHERE a.service_code IS NULL OR a.service_code = ''
			OR UPPER(a.service_code) = 'INCONNU' OR UPPER(a.service_code) = 'UNKNOWN'
		ORDER BY a.id`, assigned, orientation)

	var candidates []provenanceCandidate
	if err := s.DB.SelectContext(ctx, &candidates, query); err != nil {
		return nil, fmt.Errorf("find archives without provenance: %w", err)
	}

	report := &ProvenanceReport{DryRun: dryRun, Found: len(candidates)}
	for _, c := range candidates {
		change := ProvenanceChange{ArchiveID: c.ID, Reference: c.Reference}
		switch {
		case usableServiceCode(c.AssignedService):
			change.ServiceCode = strings.TrimSpace(*c.AssignedService)
		case usableServiceCode(c.Orientation):
			change.ServiceCode = strings.TrimSpace(*c.Orientation)
		default:
			report.Skipped = append(report.Skipped, change)
			continue
		}

		if !dryRun {
			if _, err := s.DB.ExecContext(ctx, "UPDATE archives SET service_code = ? WHERE id = ?", change.ServiceCode, c.ID); err != nil {
				return nil, fmt.Errorf("update archive %d: %w", c.ID, err)
			}
		}
		report.Updated = append(report.Updated, change)
	}

	if dryRun {
		report.Remaining = report.Found - len(report.Updated)
	} else if err := s.DB.GetContext(ctx, &report.Remaining,
		"SELECT COUNT(*) FROM archives WHERE "+missingServiceCodeWhere); err != nil {
		return nil, err
	}

	if report.Remaining > 0 {
		rows, err := s.DB.QueryContext(ctx,
			"SELECT id, reference, service_code, incoming_mail_id FROM archives WHERE "+missingServiceCodeWhere+" ORDER BY id LIMIT 10")
		if err != nil {
			return nil, err
		}
		if report.Samples, err = collectRows(rows); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// ImportReport summarizes ImportArchivedMails.
type ImportReport struct {
	DryRun     bool
	Predicates []string
	Found      int
	Inserted   int
	Skipped    []ImportSkip
}

// ImportSkip records an incoming mail that could not be copied.
type ImportSkip struct {
	IncomingID int64
	Reference  string
	Reason     string
}

// ImportArchivedMails copies incoming mails flagged as archived into the
// archives table inside one transaction. Rows that fail to insert, typically
// on a duplicate reference, are skipped. A dry run rolls the transaction back.
func (s *Repository) ImportArchivedMails(ctx context.Context, dryRun bool) (*ImportReport, error) {
	incoming, err := s.columnSet(ctx, "incoming_mails")
	if err != nil {
		return nil, err
	}
	archiveCols, err := s.columnSet(ctx, "archives")
	if err != nil {
		return nil, err
	}
	if len(archiveCols) == 0 {
		return nil, fmt.Errorf("archives: %w", shared.ErrTableNotFound)
	}

	var predicates []string
	if incoming["statut_global"] {
		predicates = append(predicates, "statut_global = 'Archivé'")
	}
	if incoming["status"] {
		predicates = append(predicates, "status = 'Archivé'")
	}
	if incoming["archived_at"] {
		predicates = append(predicates, "archived_at IS NOT NULL")
	}
	if len(predicates) == 0 {
		return nil, fmt.Errorf("no archived indicator on incoming_mails: %w", shared.ErrNothingToDo)
	}

	report := &ImportReport{DryRun: dryRun, Predicates: predicates}

	rows, err := s.DB.QueryContext(ctx,
		"SELECT * FROM incoming_mails WHERE ("+strings.Join(predicates, " OR ")+") ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("select archived incoming mails: %w", err)
	}
	mails, err := collectRows(rows)
	if err != nil {
		return nil, err
	}
	report.Found = len(mails)
	if len(mails) == 0 {
		return report, nil
	}

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for _, m := range mails {
		rec := archiveFromIncoming(m, s.Now())
		if _, err := tx.InsertArchiveInTx(ctx, rec, archiveCols); err != nil {
			s.Logger.Warnf("Skip incoming_mail id=%d ref=%s: %v", rec.IncomingMailID, rec.Reference, err)
			report.Skipped = append(report.Skipped, ImportSkip{
				IncomingID: rec.IncomingMailID,
				Reference:  rec.Reference,
				Reason:     err.Error(),
			})
			continue
		}
		report.Inserted++
	}

	if dryRun {
		return report, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit archive import: %w", err)
	}
	return report, nil
}

// firstValue returns the first non-empty value among cols.
func firstValue(r models.Row, cols ...string) interface{} {
	for _, c := range cols {
		v := r.Get(c)
		if v == nil {
			continue
		}
		if str, ok := v.(string); ok && str == "" {
			continue
		}
		return v
	}
	return nil
}

func archiveFromIncoming(m models.Row, now time.Time) ArchiveRecord {
	var id int64
	if v, ok := m.Get("id").(int64); ok {
		id = v
	}

	rec := ArchiveRecord{IncomingMailID: id}
	if ref := firstValue(m, "ref_code"); ref != nil {
		rec.Reference = models.FormatValue(ref)
	} else {
		rec.Reference = fmt.Sprintf("IMPORT_%s_%d", ulid.Make().String(), id)
	}
	if d := firstValue(m, "subject", "comment"); d != nil {
		rec.Description = models.FormatValue(d)
	}
	rec.Classeur = firstValue(m, "classeur")
	rec.ArchivedDate = firstValue(m, "archived_at", "treatment_completed_at", "created_at")
	if t, ok := rec.ArchivedDate.(time.Time); ok {
		rec.ArchivedDate = models.FormatTime(t)
	}
	if rec.ArchivedDate == nil {
		rec.ArchivedDate = models.FormatTime(now.UTC())
	}
	if p := firstValue(m, "document_path", "file_path"); p != nil {
		rec.DocumentPath = models.FormatValue(p)
	}
	return rec
}

// Backup copies the database file next to itself as <path>.bak.<unix seconds>.
func (s *Repository) Backup() (string, error) {
	dst := fmt.Sprintf("%s.bak.%d", s.Path, s.Now().Unix())

	in, err := os.Open(s.Path)
	if err != nil {
		return "", fmt.Errorf("open %s for backup: %w", s.Path, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create backup %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("copy backup: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return dst, nil
}
