package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// EnsureRole returns the id of the role called name, inserting it when
// missing. A non-zero id is used for the new row.
func (s *Repository) EnsureRole(ctx context.Context, id int64, name string) (int64, bool, error) {
	var existing int64
	err := s.DB.GetContext(ctx, &existing, "SELECT id FROM roles WHERE name = ? ORDER BY id LIMIT 1", name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("look up role %s: %w", name, err)
	}

	builder := s.Builder.Insert("roles").Columns("name").Values(name)
	if id > 0 {
		builder = s.Builder.Insert("roles").Columns("id", "name").Values(id, name)
	}
	res, err := builder.RunWith(s.DB).ExecContext(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("insert role %s: %w", name, err)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return 0, false, err
	}
	return newID, true, nil
}

// SeedService describes a service created by a seed plan.
type SeedService struct {
	Code           string
	Nom            string
	Description    string
	Actif          bool
	Ordre          int
	HasArchivePage bool
	ArchiveIcon    string
	ArchiveColor   string
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

// EnsureService inserts the service when no row has its code.
func (s *Repository) EnsureService(ctx context.Context, svc SeedService) (bool, error) {
	res, err := s.Builder.Insert("services").
		Options("OR IGNORE").
		Columns("code", "nom", "description", "actif", "ordre", "has_archive_page", "archive_icon", "archive_color").
		Values(svc.Code, svc.Nom, nullIfEmpty(svc.Description), boolInt(svc.Actif), svc.Ordre,
			boolInt(svc.HasArchivePage), nullIfEmpty(svc.ArchiveIcon), nullIfEmpty(svc.ArchiveColor)).
		RunWith(s.DB).
		ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("insert service %s: %w", svc.Code, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// SeedUserArgs describes a user created by a seed plan.
type SeedUserArgs struct {
	Username string
	Email    string
	Password string
	RoleID   int64
}

// SeedUserResult tells what EnsureUser did.
type SeedUserResult struct {
	ID          int64
	Created     bool
	RoleUpdated bool
}

// EnsureUser creates the user when neither the username nor the email is
// taken. An existing user only gets its role_id corrected.
func (s *Repository) EnsureUser(ctx context.Context, args SeedUserArgs) (*SeedUserResult, error) {
	var existing struct {
		ID     int64  `db:"id"`
		RoleID *int64 `db:"role_id"`
	}
	err := s.DB.GetContext(ctx, &existing,
		"SELECT id, role_id FROM users WHERE username = ? OR email = ? ORDER BY id LIMIT 1", args.Username, args.Email)
	switch {
	case err == nil:
		result := &SeedUserResult{ID: existing.ID}
		if existing.RoleID == nil || *existing.RoleID != args.RoleID {
			if _, err := s.DB.ExecContext(ctx, "UPDATE users SET role_id = ? WHERE id = ?", args.RoleID, existing.ID); err != nil {
				return nil, fmt.Errorf("update role of %s: %w", args.Username, err)
			}
			result.RoleUpdated = true
		}
		return result, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("look up user %s: %w", args.Username, err)
	}

	if args.Password == "" {
		return nil, fmt.Errorf("user %s: password is required", args.Username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(args.Password), PasswordCost)
	if err != nil {
		return nil, err
	}
	res, err := s.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password, role_id) VALUES (?, ?, ?, ?)",
		args.Username, args.Email, string(hash), args.RoleID)
	if err != nil {
		return nil, fmt.Errorf("insert user %s: %w", args.Username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &SeedUserResult{ID: id, Created: true}, nil
}
