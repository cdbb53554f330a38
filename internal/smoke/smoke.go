// Package smoke runs end to end checks against a live backend. Each scenario
// logs in, walks one user flow and prints a status line per step.
package smoke

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"courrierkit/internal/backend"
	"courrierkit/internal/console"
	"courrierkit/internal/models"
	"courrierkit/internal/shared"

	"github.com/sirupsen/logrus"
)

// RoleDirectory looks up the users of a role in the local database.
type RoleDirectory interface {
	UsersByRoleName(ctx context.Context, name string) (*models.Role, []models.User, error)
}

// Options are the credentials and fixtures used by the scenarios.
type Options struct {
	Email        string
	Password     string
	Role         string
	RolePassword string
	RoleService  string
	Now          func() time.Time
}

// DefaultOptions returns the seeded admin and comptable accounts.
func DefaultOptions() Options {
	return Options{
		Email:        "admin@mail.com",
		Password:     "adminpassword",
		Role:         "comptable",
		RolePassword: "comptablepass",
		RoleService:  "COMPTABLE",
		Now:          time.Now,
	}
}

// Runner executes scenarios with one client and one printer.
type Runner struct {
	client    *backend.Client
	out       *console.Printer
	log       *logrus.Logger
	opts      Options
	directory RoleDirectory
}

// NewRunner wires a Runner. directory may be nil, which skips role-access.
func NewRunner(client *backend.Client, out *console.Printer, log *logrus.Logger, opts Options, directory RoleDirectory) *Runner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{client: client, out: out, log: log, opts: opts, directory: directory}
}

// Scenario is one named check.
type Scenario struct {
	Name        string
	Description string
	run         func(r *Runner, ctx context.Context) error
}

var registry = []Scenario{
	{"login", "admin login and token", (*Runner).login},
	{"services", "active services and their archive pages", (*Runner).services},
	{"create-service", "create the COMMUNICATION service", (*Runner).createService},
	{"service-lifecycle", "create, verify and delete a test service", (*Runner).serviceLifecycle},
	{"share", "share the first COMPTABLE mail with TRESORERIE", (*Runner).share},
	{"shared", "mails shared to TRESORERIE", (*Runner).shared},
	{"outgoing-stats", "outgoing mail statistics for the last 7 days", (*Runner).outgoingStats},
	{"dashboard-count", "internal correspondence counter increments", (*Runner).dashboardCount},
	{"archive-provenance", "indexation, treatment and archive keep the service", (*Runner).archiveProvenance},
	{"dynamic-menu", "archive menu routes and endpoints", (*Runner).dynamicMenu},
	{"service-dashboard", "service dashboard and validation data", (*Runner).serviceDashboard},
	{"role-access", "a role user can log in and read its archives", (*Runner).roleAccess},
	{"diagnose-401", "token accepted by a protected route", (*Runner).diagnose401},
}

// Scenarios lists the scenarios in run order.
func Scenarios() []Scenario {
	out := make([]Scenario, len(registry))
	copy(out, registry)
	return out
}

// Names lists the scenario names in run order.
func Names() []string {
	names := make([]string, len(registry))
	for i, s := range registry {
		names[i] = s.Name
	}
	return names
}

// Lookup finds a scenario by name.
func Lookup(name string) (Scenario, error) {
	for _, s := range registry {
		if s.Name == name {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("%w: %q (known: %s)", shared.ErrUnknownScenario, name, strings.Join(Names(), ", "))
}

// Run executes the named scenario.
func (r *Runner) Run(ctx context.Context, name string) error {
	s, err := Lookup(name)
	if err != nil {
		return err
	}
	return r.runScenario(ctx, s)
}

func (r *Runner) runScenario(ctx context.Context, s Scenario) error {
	entry := r.log.WithField("scenario", s.Name)
	entry.Debug("Smoke scenario started")
	r.out.Section(fmt.Sprintf("%s: %s", s.Name, s.Description))

	start := time.Now()
	err := s.run(r, ctx)
	entry = entry.WithField("duration", time.Since(start).String())
	if err != nil {
		r.out.Fail("%s: %v", s.Name, err)
		entry.WithError(err).Warn("Smoke scenario failed")
		return err
	}
	entry.Info("Smoke scenario passed")
	return nil
}

// Result is the outcome of one scenario in RunAll.
type Result struct {
	Name    string
	Err     error
	Skipped bool
}

// RunAll executes every scenario, keeps going on failure and prints a summary.
func (r *Runner) RunAll(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(registry))
	var failed []string
	for _, s := range registry {
		if s.Name == "role-access" && r.directory == nil {
			r.out.Warn("%s ignoré: aucune base locale", s.Name)
			results = append(results, Result{Name: s.Name, Skipped: true})
			continue
		}
		err := r.runScenario(ctx, s)
		if err != nil {
			failed = append(failed, s.Name)
		}
		results = append(results, Result{Name: s.Name, Err: err})
	}

	rows := make([][]string, 0, len(results))
	for _, res := range results {
		status := console.IconOK
		switch {
		case res.Skipped:
			status = "skipped"
		case res.Err != nil:
			status = console.IconFail
		}
		rows = append(rows, []string{res.Name, status})
	}
	r.out.Section("Résumé")
	r.out.Table([]string{"scenario", "result"}, rows)

	if len(failed) > 0 {
		return results, fmt.Errorf("%d scenario(s) failed (%s): %w", len(failed), strings.Join(failed, ", "), shared.ErrCheckFailed)
	}
	return results, nil
}

// signIn logs the admin in for scenarios whose subject is something else.
func (r *Runner) signIn(ctx context.Context) (*backend.Session, error) {
	sess, err := r.client.Login(ctx, r.opts.Email, r.opts.Password)
	if err != nil {
		return nil, fmt.Errorf("login %s: %w", r.opts.Email, err)
	}
	r.out.OK("Login OK (%s)", r.opts.Email)
	return sess, nil
}

func checkFailed(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), shared.ErrCheckFailed)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return shared.Truncate(s, n) + "..."
}

func byNom(services []backend.Service) []backend.Service {
	out := make([]backend.Service, len(services))
	copy(out, services)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Nom < out[j].Nom })
	return out
}

func isConflict(err error) bool {
	return errors.Is(err, shared.ErrConflict)
}

func ptr[T any](v T) *T { return &v }
