// filepath: internal/repository/report_repo.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"courrierkit/internal/models"
	"courrierkit/internal/shared"

	"golang.org/x/crypto/bcrypt"
)

const shareSelect = `
	SELECT ms.id, ms.incoming_mail_id, ms.shared_by_user_id, ms.shared_from_service,
	       ms.shared_to_service, ms.share_message, ms.share_type, ms.status, ms.created_at,
	       im.ref_code, im.subject
	FROM mail_shares ms
	LEFT JOIN incoming_mails im ON im.id = ms.incoming_mail_id`

// existingColumns returns the comma separated subset of wanted present in table.
func (s *Repository) existingColumns(ctx context.Context, table string, wanted ...string) (string, error) {
	have, err := s.columnSet(ctx, table)
	if err != nil {
		return "", err
	}
	if len(have) == 0 {
		return "", fmt.Errorf("table %s: %w", table, shared.ErrTableNotFound)
	}
	present, _ := filterExisting(wanted, have)
	if len(present) == 0 {
		return "", fmt.Errorf("%s has none of %v: %w", table, wanted, shared.ErrColumnNotFound)
	}
	return strings.Join(present, ", "), nil
}

// Users lists the first users by id.
func (s *Repository) Users(ctx context.Context, limit int) ([]models.User, error) {
	cols, err := s.existingColumns(ctx, "users", "id", "username", "email", "password", "role_id")
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := s.DB.SelectContext(ctx, &users,
		fmt.Sprintf("SELECT %s FROM users ORDER BY id LIMIT ?", cols), limitOrAll(limit)); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Roles lists roles by id.
func (s *Repository) Roles(ctx context.Context, limit int) ([]models.Role, error) {
	var roles []models.Role
	if err := s.DB.SelectContext(ctx, &roles, "SELECT id, name FROM roles ORDER BY id LIMIT ?", limitOrAll(limit)); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// RecentNotifications returns the newest notifications with the recipient's username.
func (s *Repository) RecentNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	var notifs []models.Notification
	err := s.DB.SelectContext(ctx, &notifs, `
		SELECT n.id, n.user_id, u.username, n.type, n.titre, n.mail_id, n.created_at
		FROM notifications n
		LEFT JOIN users u ON n.user_id = u.id
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT ?`, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifs, nil
}

// UsersByRoleName returns the role called name and the users whose role_id points at it.
func (s *Repository) UsersByRoleName(ctx context.Context, name string) (*models.Role, []models.User, error) {
	var role models.Role
	if err := s.DB.GetContext(ctx, &role, "SELECT id, name FROM roles WHERE name = ?", name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("role %s: %w", name, shared.ErrNotFound)
		}
		return nil, nil, err
	}

	cols, err := s.existingColumns(ctx, "users", "id", "username", "email", "password", "role_id")
	if err != nil {
		return nil, nil, err
	}
	var users []models.User
	if err := s.DB.SelectContext(ctx, &users,
		fmt.Sprintf("SELECT %s FROM users WHERE role_id = ? ORDER BY id", cols), role.ID); err != nil {
		return nil, nil, fmt.Errorf("users of role %s: %w", name, err)
	}
	return &role, users, nil
}

var serviceColumns = []string{"id", "code", "nom", "description", "actif", "ordre", "has_archive_page", "archive_icon", "archive_color"}

// ServiceByCode returns the service with that code.
func (s *Repository) ServiceByCode(ctx context.Context, code string) (*models.Service, error) {
	cols, err := s.existingColumns(ctx, "services", serviceColumns...)
	if err != nil {
		return nil, err
	}
	var svc models.Service
	if err := s.DB.GetContext(ctx, &svc, fmt.Sprintf("SELECT %s FROM services WHERE code = ?", cols), code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("service %s: %w", code, shared.ErrNotFound)
		}
		return nil, err
	}
	return &svc, nil
}

// Services lists every service by id.
func (s *Repository) Services(ctx context.Context) ([]models.Service, error) {
	cols, err := s.existingColumns(ctx, "services", serviceColumns...)
	if err != nil {
		return nil, err
	}
	var services []models.Service
	if err := s.DB.SelectContext(ctx, &services, fmt.Sprintf("SELECT %s FROM services ORDER BY id", cols)); err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

// Shares lists the newest shares with their mail reference and subject.
func (s *Repository) Shares(ctx context.Context, limit int) ([]models.Share, error) {
	var shares []models.Share
	if err := s.DB.SelectContext(ctx, &shares, shareSelect+" ORDER BY ms.id DESC LIMIT ?", limitOrAll(limit)); err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	return shares, nil
}

// ShareCount counts mail_shares rows.
func (s *Repository) ShareCount(ctx context.Context) (int, error) {
	return s.Count(ctx, "mail_shares")
}

// ShareTargets lists the distinct services mail has been shared to.
func (s *Repository) ShareTargets(ctx context.Context) ([]string, error) {
	var targets []string
	if err := s.DB.SelectContext(ctx, &targets,
		"SELECT DISTINCT shared_to_service FROM mail_shares ORDER BY shared_to_service"); err != nil {
		return nil, fmt.Errorf("list share targets: %w", err)
	}
	return targets, nil
}

var incomingColumns = []string{"id", "ref_code", "subject", "sender", "status", "assigned_service", "file_path"}

// IncomingMail returns one incoming mail.
func (s *Repository) IncomingMail(ctx context.Context, id int64) (*models.IncomingMail, error) {
	cols, err := s.existingColumns(ctx, "incoming_mails", incomingColumns...)
	if err != nil {
		return nil, err
	}
	var mail models.IncomingMail
	if err := s.DB.GetContext(ctx, &mail, fmt.Sprintf("SELECT %s FROM incoming_mails WHERE id = ?", cols), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("incoming mail %d: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return &mail, nil
}

// IncomingWithFiles lists incoming mails that carry a file_path.
func (s *Repository) IncomingWithFiles(ctx context.Context, limit int) ([]models.IncomingMail, error) {
	if ok, err := s.HasColumn(ctx, "incoming_mails", "file_path"); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("incoming_mails.file_path: %w", shared.ErrColumnNotFound)
	}
	cols, err := s.existingColumns(ctx, "incoming_mails", incomingColumns...)
	if err != nil {
		return nil, err
	}
	var mails []models.IncomingMail
	if err := s.DB.SelectContext(ctx, &mails,
		fmt.Sprintf("SELECT %s FROM incoming_mails WHERE file_path IS NOT NULL ORDER BY id LIMIT ?", cols),
		limitOrAll(limit)); err != nil {
		return nil, fmt.Errorf("list incoming mails with files: %w", err)
	}
	return mails, nil
}

// DefaultCandidatePasswords are tried by CheckCredentials when none are given.
var DefaultCandidatePasswords = []string{"admin4321", "adminpassword", "admin"}

// CredentialCheck is the outcome for one user.
type CredentialCheck struct {
	User       models.User
	HashPrefix string
	Match      string // matching candidate, empty when none
}

// CheckCredentials reports, for the first users, which candidate password
// matches the stored hash. Invalid hashes simply never match.
func (s *Repository) CheckCredentials(ctx context.Context, candidates []string, limit int) ([]CredentialCheck, error) {
	if len(candidates) == 0 {
		candidates = DefaultCandidatePasswords
	}
	users, err := s.Users(ctx, limit)
	if err != nil {
		return nil, err
	}

	checks := make([]CredentialCheck, 0, len(users))
	for _, u := range users {
		c := CredentialCheck{User: u}
		if u.PasswordHash != nil && *u.PasswordHash != "" {
			hash := *u.PasswordHash
			c.HashPrefix = hash
			if len(hash) > 30 {
				c.HashPrefix = hash[:30] + "..."
			}
			for _, pwd := range candidates {
				if bcrypt.CompareHashAndPassword([]byte(hash), []byte(pwd)) == nil {
					c.Match = pwd
					break
				}
			}
		}
		checks = append(checks, c)
	}
	return checks, nil
}

// limitOrAll maps a non-positive limit to SQLite's "no limit".
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
