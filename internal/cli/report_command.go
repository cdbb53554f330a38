package cli

import (
	"fmt"
	"strconv"

	"courrierkit/internal/models"
	"courrierkit/internal/repository"

	"github.com/spf13/cobra"
)

// NewReportCommand prints read-only reports of the courrier data.
func NewReportCommand(globalOptions *GlobalOptions) *cobra.Command {
	var limit int

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Print reports of users, services, shares and mails",
	}
	reportCmd.PersistentFlags().IntVar(&limit, "limit", 10, "Maximum number of rows.")

	readOnly := func(fn func(cmd *cobra.Command, args []string, repo *repository.Repository) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			repo, err := globalOptions.openRepository(true)
			if err != nil {
				return err
			}
			defer repo.Close()
			return fn(cmd, args, repo)
		}
	}

	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: readOnly(func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
			users, err := repo.Users(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := printer(cmd)
			out.Section("Users")
			out.Table([]string{"id", "username", "email", "role_id"}, userRows(users))
			return nil
		}),
	}

	rolesCmd := &cobra.Command{
		Use:   "roles",
		Short: "List roles",
		Args:  cobra.NoArgs,
		RunE: readOnly(func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
			roles, err := repo.Roles(cmd.Context(), limit)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(roles))
			for _, r := range roles {
				rows = append(rows, []string{strconv.FormatInt(r.ID, 10), r.Name})
			}
			out := printer(cmd)
			out.Section("Roles")
			out.Table([]string{"id", "name"}, rows)
			return nil
		}),
	}

	notificationsCmd := &cobra.Command{
		Use:   "notifications",
		Short: "List the most recent notifications",
		Args:  cobra.NoArgs,
		RunE: readOnly(func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
			notes, err := repo.RecentNotifications(cmd.Context(), limit)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(notes))
			for _, n := range notes {
				rows = append(rows, []string{
					strconv.FormatInt(n.ID, 10),
					models.Deref(n.Username, strconv.FormatInt(n.UserID, 10)),
					n.Type,
					n.Titre,
					optInt(n.MailID),
					models.Deref(n.CreatedAt, ""),
				})
			}
			out := printer(cmd)
			out.Section("Recent notifications")
			out.Table([]string{"id", "user", "type", "titre", "mail", "created_at"}, rows)
			return nil
		}),
	}

	roleUsersCmd := &cobra.Command{
		Use:   "role-users <role>",
		Short: "List the users holding a role",
		Args:  cobra.ExactArgs(1),
		RunE: readOnly(func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
			role, users, err := repo.UsersByRoleName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := printer(cmd)
			out.Section(fmt.Sprintf("Role %s (id=%d)", role.Name, role.ID))
			if len(users) == 0 {
				out.Warn("No user holds role %s", role.Name)
				return nil
			}
			out.Table([]string{"id", "username", "email", "role_id"}, userRows(users))
			return nil
		}),
	}

	serviceCmd := &cobra.Command{
		Use:   "service <code>",
		Short: "Show one service",
		Args:  cobra.ExactArgs(1),
		RunE: readOnly(func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
			svc, err := repo.ServiceByCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := printer(cmd)
			out.OK("Service %s found", svc.Code)
			out.KV("id", svc.ID)
			out.KV("nom", svc.Nom)
			out.KV("description", models.Deref(svc.Description, "-"))
			out.KV("actif", svc.Actif == 1)
			out.KV("archive page", svc.HasArchivePage == 1)
			out.KV("icon", models.Deref(svc.ArchiveIcon, "-"))
			out.KV("color", models.Deref(svc.ArchiveColor, "-"))
			return nil
		}),
	}

	servicesCmd := &cobra.Command{
		Use:   "services",
		Short: "List every service",
		Args:  cobra.NoArgs,
		RunE: readOnly(func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
			services, err := repo.Services(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(services))
			for _, s := range services {
				rows = append(rows, []string{
					strconv.FormatInt(s.ID, 10),
					s.Code,
					s.Nom,
					strconv.Itoa(s.Actif),
					strconv.Itoa(s.HasArchivePage),
					models.Deref(s.ArchiveIcon, ""),
					models.Deref(s.ArchiveColor, ""),
				})
			}
			out := printer(cmd)
			out.Section(fmt.Sprintf("%d service(s)", len(services)))
			out.Table([]string{"id", "code", "nom", "actif", "archive", "icon", "color"}, rows)
			return nil
		}),
	}

	sharesCmd := &cobra.Command{
		Use:   "shares",
		Short: "List mail shares with their mail",
		Args:  cobra.NoArgs,
		RunE: readOnly(func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
			ctx := cmd.Context()
			total, err := repo.ShareCount(ctx)
			if err != nil {
				return err
			}
			shares, err := repo.Shares(ctx, limit)
			if err != nil {
				return err
			}
			targets, err := repo.ShareTargets(ctx)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(shares))
			for _, s := range shares {
				rows = append(rows, []string{
					strconv.FormatInt(s.ID, 10),
					models.Deref(s.RefCode, "-"),
					models.Deref(s.Subject, "-"),
					models.Deref(s.SharedFromService, "-"),
					s.SharedToService,
					models.Deref(s.Status, "-"),
				})
			}
			out := printer(cmd)
			out.Section(fmt.Sprintf("%d share(s)", total))
			out.Table([]string{"id", "ref", "subject", "from", "to", "status"}, rows)
			out.KV("target services", targets)
			return nil
		}),
	}

	mailCmd := &cobra.Command{
		Use:   "mail [id]",
		Short: "Show an incoming mail, or list the mails with a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: readOnly(func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
			out := printer(cmd)
			if len(args) == 0 {
				mails, err := repo.IncomingWithFiles(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out.Section("Incoming mails with a file")
				rows := make([][]string, 0, len(mails))
				for _, m := range mails {
					rows = append(rows, mailRow(m))
				}
				out.Table(mailHeaders, rows)
				return nil
			}

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("mail id %q: %w", args[0], err)
			}
			m, err := repo.IncomingMail(cmd.Context(), id)
			if err != nil {
				return err
			}
			out.Section(fmt.Sprintf("Incoming mail %d", m.ID))
			for i, h := range mailHeaders {
				out.KV(h, mailRow(*m)[i])
			}
			return nil
		}),
	}

	var candidates []string
	credentialsCmd := &cobra.Command{
		Use:   "credentials",
		Short: "Check which known password matches each user's hash",
		Args:  cobra.NoArgs,
		RunE: readOnly(func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
			checks, err := repo.CheckCredentials(cmd.Context(), candidates, limit)
			if err != nil {
				return err
			}
			out := printer(cmd)
			out.Section("Credential check")
			for _, c := range checks {
				name := models.Deref(c.User.Email, models.Deref(c.User.Username, strconv.FormatInt(c.User.ID, 10)))
				if c.Match != "" {
					out.OK("%s: password is %q (hash %s...)", name, c.Match, c.HashPrefix)
				} else {
					out.Fail("%s: no candidate matches (hash %s...)", name, c.HashPrefix)
				}
			}
			return nil
		}),
	}
	credentialsCmd.Flags().StringSliceVar(&candidates, "candidate", nil, "Passwords to try, a built in list when empty.")

	reportCmd.AddCommand(usersCmd, rolesCmd, notificationsCmd, roleUsersCmd, serviceCmd, servicesCmd, sharesCmd, mailCmd, credentialsCmd)
	return reportCmd
}

var mailHeaders = []string{"id", "ref_code", "subject", "sender", "status", "service", "file"}

func mailRow(m models.IncomingMail) []string {
	return []string{
		strconv.FormatInt(m.ID, 10),
		m.RefCode,
		m.Subject,
		m.Sender,
		models.Deref(m.Status, "NULL"),
		models.Deref(m.AssignedService, "NULL"),
		models.Deref(m.FilePath, "NULL"),
	}
}

func userRows(users []models.User) [][]string {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			strconv.FormatInt(u.ID, 10),
			models.Deref(u.Username, ""),
			models.Deref(u.Email, ""),
			optInt(u.RoleID),
		})
	}
	return rows
}

func optInt(v *int64) string {
	if v == nil {
		return "NULL"
	}
	return strconv.FormatInt(*v, 10)
}
