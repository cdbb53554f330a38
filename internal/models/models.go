// filepath: internal/models/models.go
// Package models contains the value types shared by the repository, the
// dashboard agent and the console reports.
package models

import (
	"fmt"
	"time"
)

// Info represents general information about the agent service.
type Info struct {
	ServiceName string    `json:"service_name"`
	Version     string    `json:"version"`
	UptimeSince time.Time `json:"uptime_since"`
	ReadOnly    bool      `json:"read_only"`
}

// Object is an entry of sqlite_master.
type Object struct {
	Name string `db:"name" json:"name"`
	Type string `db:"type" json:"type"`
}

// Column mirrors one row of PRAGMA table_info.
type Column struct {
	CID     int     `db:"cid" json:"cid"`
	Name    string  `db:"name" json:"name"`
	Type    string  `db:"type" json:"type"`
	NotNull bool    `db:"notnull" json:"notnull"`
	Default *string `db:"dflt_value" json:"default,omitempty"`
	PK      int     `db:"pk" json:"pk"`
}

// ColumnDef describes a column to add with ALTER TABLE.
type ColumnDef struct {
	Name string
	Type string // SQL type plus optional DEFAULT clause
}

// Row is a generic result row that keeps the column order of the query.
type Row struct {
	Columns []string
	Values  []interface{}
}

// Get returns the value of the named column, nil when absent.
func (r Row) Get(name string) interface{} {
	for i, c := range r.Columns {
		if c == name {
			return r.Values[i]
		}
	}
	return nil
}

// Strings renders the values for console output, NULL as "NULL".
func (r Row) Strings() []string {
	out := make([]string, len(r.Values))
	for i, v := range r.Values {
		out[i] = FormatValue(v)
	}
	return out
}

// FormatValue renders a scanned SQLite value.
func FormatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case time.Time:
		return FormatTime(t)
	default:
		return fmt.Sprint(t)
	}
}

// SQLiteTimeLayout is the text layout SQLite date functions parse.
const SQLiteTimeLayout = "2006-01-02 15:04:05.999999999"

// FormatTime renders t the way SQLite stores DATETIME text. The offset is
// only appended outside UTC.
func FormatTime(t time.Time) string {
	if _, offset := t.Zone(); offset == 0 {
		return t.Format(SQLiteTimeLayout)
	}
	return t.Format(SQLiteTimeLayout + "-07:00")
}

// AppliedMigration is a row of the schema_migrations table kept by the backend.
type AppliedMigration struct {
	ID        int64   `db:"id" json:"id"`
	Filename  string  `db:"filename" json:"filename"`
	AppliedAt *string `db:"applied_at" json:"applied_at"`
}

// Role is a row of the roles table.
type Role struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// User is a row of the users table.
type User struct {
	ID           int64   `db:"id" json:"id"`
	Username     *string `db:"username" json:"username"`
	Email        *string `db:"email" json:"email"`
	PasswordHash *string `db:"password" json:"-"` // Omit from JSON responses
	RoleID       *int64  `db:"role_id" json:"role_id"`
}

// Notification is a row of notifications joined with its user's name.
type Notification struct {
	ID        int64   `db:"id" json:"id"`
	UserID    int64   `db:"user_id" json:"user_id"`
	Username  *string `db:"username" json:"username"`
	Type      string  `db:"type" json:"type"`
	Titre     string  `db:"titre" json:"titre"`
	MailID    *int64  `db:"mail_id" json:"mail_id"`
	CreatedAt *string `db:"created_at" json:"created_at"`
}

// Service is an organisational unit mail gets assigned to.
type Service struct {
	ID             int64   `db:"id" json:"id"`
	Code           string  `db:"code" json:"code"`
	Nom            string  `db:"nom" json:"nom"`
	Description    *string `db:"description" json:"description,omitempty"`
	Actif          int     `db:"actif" json:"actif"`
	Ordre          int     `db:"ordre" json:"ordre"`
	HasArchivePage int     `db:"has_archive_page" json:"has_archive_page"`
	ArchiveIcon    *string `db:"archive_icon" json:"archive_icon,omitempty"`
	ArchiveColor   *string `db:"archive_color" json:"archive_color,omitempty"`
}

// Share is a mail_shares row joined with the shared incoming mail.
type Share struct {
	ID                int64   `db:"id" json:"id"`
	IncomingMailID    int64   `db:"incoming_mail_id" json:"incoming_mail_id"`
	SharedByUserID    int64   `db:"shared_by_user_id" json:"shared_by_user_id"`
	SharedFromService *string `db:"shared_from_service" json:"shared_from_service"`
	SharedToService   string  `db:"shared_to_service" json:"shared_to_service"`
	ShareMessage      *string `db:"share_message" json:"share_message"`
	ShareType         *string `db:"share_type" json:"share_type"`
	Status            *string `db:"status" json:"status"`
	CreatedAt         *string `db:"created_at" json:"created_at"`
	RefCode           *string `db:"ref_code" json:"ref_code"`
	Subject           *string `db:"subject" json:"subject"`
}

// IncomingMail holds the incoming_mails columns the reports display.
type IncomingMail struct {
	ID              int64   `db:"id" json:"id"`
	RefCode         string  `db:"ref_code" json:"ref_code"`
	Subject         string  `db:"subject" json:"subject"`
	Sender          string  `db:"sender" json:"sender"`
	Status          *string `db:"status" json:"status"`
	AssignedService *string `db:"assigned_service" json:"assigned_service"`
	FilePath        *string `db:"file_path" json:"file_path"`
}

// Deref returns the pointed string or fallback.
func Deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
