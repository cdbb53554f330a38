// filepath: internal/repository/seed_repo.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"courrierkit/internal/models"
	"courrierkit/internal/shared"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost matches the cost the Node backend hashes with.
const PasswordCost = 10

// SeedShareArgs selects the mail and target of a test share. Zero values pick defaults.
type SeedShareArgs struct {
	MailID          int64
	PreferredTarget string
	SharedByUserID  int64
	Message         string
	ShareType       string
}

// SeedShare inserts a pending mail_shares row for an existing incoming mail.
func (s *Repository) SeedShare(ctx context.Context, args SeedShareArgs) (*models.Share, error) {
	var mail struct {
		ID      int64   `db:"id"`
		Service *string `db:"assigned_service"`
	}
	var err error
	if args.MailID > 0 {
		err = s.DB.GetContext(ctx, &mail, "SELECT id, assigned_service FROM incoming_mails WHERE id = ?", args.MailID)
	} else {
		err = s.DB.GetContext(ctx, &mail, "SELECT id, assigned_service FROM incoming_mails ORDER BY id LIMIT 1")
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("incoming mail to share: %w", shared.ErrNotFound)
		}
		return nil, err
	}

	var targets []string
	if err := s.DB.SelectContext(ctx, &targets,
		"SELECT code FROM services WHERE code IS NOT ? ORDER BY id", mail.Service); err != nil {
		return nil, fmt.Errorf("list target services: %w", err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("target service: %w", shared.ErrNotFound)
	}
	target := targets[0]
	for _, code := range targets {
		if args.PreferredTarget != "" && code == args.PreferredTarget {
			target = code
			break
		}
	}

	sharedBy := args.SharedByUserID
	if sharedBy == 0 {
		if err := s.DB.GetContext(ctx, &sharedBy, "SELECT id FROM users ORDER BY id LIMIT 1"); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("sharing user: %w", shared.ErrNotFound)
			}
			return nil, err
		}
	}

	message := args.Message
	if message == "" {
		message = "Test de partage automatique - Veuillez vérifier ce courrier"
	}
	shareType := args.ShareType
	if shareType == "" {
		shareType = "info"
	}

	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO mail_shares
		(incoming_mail_id, shared_by_user_id, shared_from_service, shared_to_service,
		 share_message, share_type, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 'pending', ?)`,
		mail.ID, sharedBy, mail.Service, target, message, shareType, s.Now().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert share: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.Share(ctx, id)
}

// Share returns one share joined with its incoming mail.
func (s *Repository) Share(ctx context.Context, id int64) (*models.Share, error) {
	var share models.Share
	err := s.DB.GetContext(ctx, &share, shareSelect+" WHERE ms.id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("share %d: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return &share, nil
}

// SeedOutgoingArgs describes a test courrier sortant. Empty fields get defaults.
type SeedOutgoingArgs struct {
	UserID       int64
	Reference    string
	UUID         string
	Destinataire string
	Objet        string
	Entete       map[string]string
	Courrier     map[string]string
	Pied         map[string]string
}

// SeedOutgoingResult reports the inserted row and the columns the table lacked.
type SeedOutgoingResult struct {
	ID        int64
	Reference string
	UUID      string
	Missing   []string
}

// SeedOutgoing inserts a draft courrier sortant.
func (s *Repository) SeedOutgoing(ctx context.Context, args SeedOutgoingArgs) (*SeedOutgoingResult, error) {
	have, err := s.columnSet(ctx, "courriers_sortants")
	if err != nil {
		return nil, err
	}
	if len(have) == 0 {
		return nil, fmt.Errorf("courriers_sortants: %w", shared.ErrTableNotFound)
	}

	id := ulid.Make().String()
	if args.UserID == 0 {
		if err := s.DB.GetContext(ctx, &args.UserID, "SELECT id FROM users ORDER BY id LIMIT 1"); err != nil {
			args.UserID = 1
		}
	}
	if args.Reference == "" {
		args.Reference = "REF-TEST-" + id
	}
	if args.UUID == "" {
		args.UUID = "UUID-" + id
	}
	if args.Destinataire == "" {
		args.Destinataire = "Destinataire Test"
	}
	if args.Objet == "" {
		args.Objet = "Objet test"
	}
	if args.Entete == nil {
		args.Entete = map[string]string{"ministere": "Test Ministère"}
	}
	if args.Courrier == nil {
		args.Courrier = map[string]string{"contenu": "Ceci est un test de courrier sortant."}
	}
	if args.Pied == nil {
		args.Pied = map[string]string{"adresse": "123 rue Test"}
	}

	entete, _ := json.Marshal(args.Entete)
	courrier, _ := json.Marshal(args.Courrier)
	pied, _ := json.Marshal(args.Pied)
	now := s.Now()

	values := []struct {
		col string
		val interface{}
	}{
		{"user_id", args.UserID},
		{"entete", string(entete)},
		{"courrier", string(courrier)},
		{"pied", string(pied)},
		{"logo", nil},
		{"statut", "brouillon"},
		{"reference_unique", args.Reference},
		{"uuid", args.UUID},
		{"original_filename", "testfile.docx"},
		{"destinataire", args.Destinataire},
		{"objet", args.Objet},
		{"date_edition", now.Format("2006-01-02")},
		{"created_at", now.Format(time.RFC3339)},
		{"updated_at", now.Format(time.RFC3339)},
	}

	result := &SeedOutgoingResult{Reference: args.Reference, UUID: args.UUID}
	ins := s.Builder.Insert("courriers_sortants")
	var cols []string
	var vals []interface{}
	for _, v := range values {
		if !have[v.col] {
			result.Missing = append(result.Missing, v.col)
			continue
		}
		cols = append(cols, v.col)
		vals = append(vals, v.val)
	}
	query, qargs, err := ins.Columns(cols...).Values(vals...).ToSql()
	if err != nil {
		return nil, err
	}

	res, err := s.DB.ExecContext(ctx, query, qargs...)
	if err != nil {
		return nil, fmt.Errorf("insert courrier sortant: %w", err)
	}
	if result.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return result, nil
}

// AdminArgs describes the account UpsertAdmin guarantees.
type AdminArgs struct {
	Email    string
	Username string
	Password string
	RoleID   int64
	RoleName string
}

// AdminResult tells what UpsertAdmin changed.
type AdminResult struct {
	UserID      int64
	UserCreated bool
	RoleCreated bool
	Linked      bool
}

// UpsertAdmin makes sure a user with args.Email exists, has args.Password and
// holds the role. Running it twice changes nothing but the password hash.
func (s *Repository) UpsertAdmin(ctx context.Context, args AdminArgs) (*AdminResult, error) {
	if args.Email == "" || args.Password == "" {
		return nil, fmt.Errorf("admin email and password are required")
	}
	if args.RoleID == 0 {
		args.RoleID = 1
	}
	if args.RoleName == "" {
		args.RoleName = "admin"
	}
	if args.Username == "" {
		args.Username = "admin_legacy"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(args.Password), PasswordCost)
	if err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ddl := []string{
		"CREATE TABLE IF NOT EXISTS roles (id INTEGER PRIMARY KEY, name TEXT NOT NULL)",
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT,
			email TEXT UNIQUE,
			password TEXT,
			role_id INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS user_roles (
			user_id INTEGER NOT NULL,
			role_id INTEGER NOT NULL,
			PRIMARY KEY (user_id, role_id)
		)`,
	}
	for _, stmt := range ddl {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("ensure auth tables: %w", err)
		}
	}

	result := &AdminResult{}

	res, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO roles (id, name) VALUES (?, ?)", args.RoleID, args.RoleName)
	if err != nil {
		return nil, fmt.Errorf("ensure role: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		result.RoleCreated = true
	}

	err = tx.GetContext(ctx, &result.UserID, "SELECT id FROM users WHERE email = ?", args.Email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx,
			"INSERT INTO users (username, email, password, role_id, created_at) VALUES (?, ?, ?, ?, datetime('now'))",
			args.Username, args.Email, string(hash), args.RoleID)
		if err != nil {
			return nil, fmt.Errorf("insert user: %w", err)
		}
		if result.UserID, err = res.LastInsertId(); err != nil {
			return nil, err
		}
		result.UserCreated = true
	case err != nil:
		return nil, err
	default:
		if _, err := tx.ExecContext(ctx, "UPDATE users SET password = ? WHERE id = ?", string(hash), result.UserID); err != nil {
			return nil, fmt.Errorf("update password: %w", err)
		}
	}

	res, err = tx.ExecContext(ctx, "INSERT OR IGNORE INTO user_roles (user_id, role_id) VALUES (?, ?)", result.UserID, args.RoleID)
	if err != nil {
		return nil, fmt.Errorf("link role: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		result.Linked = true
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	for _, t := range []string{"roles", "users", "user_roles"} {
		s.invalidate(t)
	}
	return result, nil
}
