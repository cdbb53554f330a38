// filepath: internal/seedplan/seedplan.go
package seedplan

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"courrierkit/internal/console"
	"courrierkit/internal/repository"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

// Store is the part of the repository a plan is applied through.
type Store interface {
	EnsureRole(ctx context.Context, id int64, name string) (int64, bool, error)
	EnsureService(ctx context.Context, svc repository.SeedService) (bool, error)
	EnsureUser(ctx context.Context, args repository.SeedUserArgs) (*repository.SeedUserResult, error)
}

var _ Store = (*repository.Repository)(nil)

// Applier applies seed plans.
type Applier struct {
	store    Store
	out      *console.Printer
	logger   *logrus.Logger
	password func() (string, error)
}

// NewApplier builds an Applier printing generated passwords to out.
func NewApplier(store Store, out *console.Printer, logger *logrus.Logger) *Applier {
	return &Applier{store: store, out: out, logger: logger, password: GeneratePassword}
}

// Load reads and decodes a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed plan '%s': %w", path, err)
	}
	var plan Plan
	if _, err := toml.Decode(string(data), &plan); err != nil {
		return nil, fmt.Errorf("failed to parse seed plan '%s': %w", path, err)
	}
	return &plan, nil
}

// Run applies the plan at path, then rewrites the file with passwords cleared.
func (a *Applier) Run(ctx context.Context, path string) (*Report, error) {
	a.logger.Infof("Seed plan found at: %s. Processing...", path)

	plan, err := Load(path)
	if err != nil {
		return nil, err
	}
	a.logger.Infof("Found %d role(s), %d service(s) and %d user(s) in seed plan.",
		len(plan.Roles), len(plan.Services), len(plan.Users))

	report, err := a.Apply(ctx, plan)
	if err != nil {
		return report, err
	}

	report.PasswordsClear = a.clearPasswords(plan, path)
	return report, nil
}

// Apply creates what the plan describes and is missing from the database.
func (a *Applier) Apply(ctx context.Context, plan *Plan) (*Report, error) {
	report := &Report{Generated: map[string]string{}}

	roleIDs, err := a.processRoles(ctx, plan.Roles, report)
	if err != nil {
		return report, err
	}
	if err := a.processServices(ctx, plan.Services, report); err != nil {
		return report, err
	}
	if err := a.processUsers(ctx, plan.Users, roleIDs, report); err != nil {
		return report, err
	}

	if len(report.Generated) > 0 {
		a.out.Section("Generated passwords (shown once)")
		for _, u := range plan.Users {
			if pw, ok := report.Generated[u.Name]; ok {
				a.out.KV(u.Name, pw)
			}
		}
	}
	return report, nil
}

func (a *Applier) processRoles(ctx context.Context, roles []PlanRole, report *Report) (map[string]int64, error) {
	ids := make(map[string]int64, len(roles))
	for _, r := range roles {
		if r.Name == "" {
			a.logger.Warn("Skipping role with empty name.")
			report.Skipped++
			continue
		}
		id, created, err := a.store.EnsureRole(ctx, r.ID, r.Name)
		if err != nil {
			return ids, err
		}
		ids[r.Name] = id
		if created {
			report.RolesCreated++
			a.out.OK("Role %s created (id=%d)", r.Name, id)
		} else {
			a.out.Info("Role %s already exists (id=%d)", r.Name, id)
		}
	}
	return ids, nil
}

func (a *Applier) processServices(ctx context.Context, services []PlanService, report *Report) error {
	for _, s := range services {
		if s.Code == "" || s.Nom == "" {
			a.logger.Warn("Skipping service with empty code or nom.")
			report.Skipped++
			continue
		}
		created, err := a.store.EnsureService(ctx, repository.SeedService{
			Code:           s.Code,
			Nom:            s.Nom,
			Description:    s.Description,
			Actif:          s.Actif,
			Ordre:          s.Ordre,
			HasArchivePage: s.HasArchivePage,
			ArchiveIcon:    s.ArchiveIcon,
			ArchiveColor:   s.ArchiveColor,
		})
		if err != nil {
			return err
		}
		if created {
			report.ServicesCreated++
			a.out.OK("Service %s created", s.Code)
		} else {
			a.out.Info("Service %s already exists", s.Code)
		}
	}
	return nil
}

func (a *Applier) processUsers(ctx context.Context, users []PlanUser, roleIDs map[string]int64, report *Report) error {
	for _, u := range users {
		if u.Name == "" || u.Role == "" {
			a.logger.Warn("Skipping user with empty name or role.")
			report.Skipped++
			continue
		}

		roleID, ok := roleIDs[u.Role]
		if !ok {
			id, created, err := a.store.EnsureRole(ctx, 0, u.Role)
			if err != nil {
				return err
			}
			if created {
				report.RolesCreated++
			}
			roleIDs[u.Role] = id
			roleID = id
		}

		password := u.Password
		generated := false
		if password == "" {
			pw, err := a.password()
			if err != nil {
				return fmt.Errorf("generating password for %s: %w", u.Name, err)
			}
			password, generated = pw, true
		}

		res, err := a.store.EnsureUser(ctx, repository.SeedUserArgs{
			Username: u.Name,
			Email:    u.Email,
			Password: password,
			RoleID:   roleID,
		})
		if err != nil {
			return err
		}

		switch {
		case res.Created:
			report.UsersCreated++
			if generated {
				report.Generated[u.Name] = password
			}
			a.out.OK("User %s created (id=%d, role=%s)", u.Name, res.ID, u.Role)
		case res.RoleUpdated:
			report.RolesUpdated++
			a.out.Warn("User %s already exists, role set to %s", u.Name, u.Role)
		default:
			a.out.Info("User %s already exists", u.Name)
		}
	}
	return nil
}

// clearPasswords overwrites the plan file with every password removed.
func (a *Applier) clearPasswords(plan *Plan, path string) bool {
	a.logger.Info("Attempting to clear passwords from seed plan...")

	for i := range plan.Users {
		plan.Users[i].Password = ""
	}

	buf := new(bytes.Buffer)
	if err := toml.NewEncoder(buf).Encode(plan); err != nil {
		a.logger.Warnf("Could not re-encode seed plan to clear passwords: %v", err)
		a.logger.Warnf("SECURITY: Please manually remove passwords from '%s'", path)
		return false
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		a.logger.Warnf("Failed to write back seed plan to clear passwords: %v", err)
		a.logger.Warnf("SECURITY: Please manually remove passwords from '%s'", path)
		return false
	}

	a.logger.Info("Successfully cleared passwords from seed plan.")
	return true
}

// GeneratePassword returns 14 random alphanumerics followed by "A!".
func GeneratePassword() (string, error) {
	var b strings.Builder
	for b.Len() < 14 {
		raw := make([]byte, 24)
		if _, err := rand.Read(raw); err != nil {
			return "", err
		}
		for _, r := range base64.StdEncoding.EncodeToString(raw) {
			if b.Len() == 14 {
				break
			}
			if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
	}
	return b.String() + "A!", nil
}
