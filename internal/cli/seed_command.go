package cli

import (
	"courrierkit/internal/models"
	"courrierkit/internal/repository"
	"courrierkit/internal/seedplan"

	"github.com/spf13/cobra"
)

// NewSeedCommand inserts test data into the courrier database.
func NewSeedCommand(globalOptions *GlobalOptions) *cobra.Command {
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert test rows and accounts",
	}

	shareArgs := repository.SeedShareArgs{}
	shareCmd := &cobra.Command{
		Use:   "share",
		Short: "Share an incoming mail with another service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWritableRepo(globalOptions, func(repo *repository.Repository) error {
				share, err := repo.SeedShare(cmd.Context(), shareArgs)
				if err != nil {
					return err
				}
				out := printer(cmd)
				out.OK("Share %d created", share.ID)
				printShare(out.KV, share)
				globalOptions.recordAudit(cmd, "seed.share", "mail_shares", map[string]interface{}{
					"share_id": share.ID,
					"mail_id":  share.IncomingMailID,
				})
				return nil
			})
		},
	}
	shareCmd.Flags().Int64Var(&shareArgs.MailID, "mail-id", 0, "Incoming mail to share, the first one when 0.")
	shareCmd.Flags().StringVar(&shareArgs.PreferredTarget, "target", "TRESORERIE", "Service code to share with when it exists.")
	shareCmd.Flags().Int64Var(&shareArgs.SharedByUserID, "by", 0, "Sharing user id, the first user when 0.")
	shareCmd.Flags().StringVar(&shareArgs.Message, "message", "", "Share message.")
	shareCmd.Flags().StringVar(&shareArgs.ShareType, "type", "", "Share type.")

	outgoingArgs := repository.SeedOutgoingArgs{}
	outgoingCmd := &cobra.Command{
		Use:   "outgoing",
		Short: "Insert a draft courrier sortant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWritableRepo(globalOptions, func(repo *repository.Repository) error {
				res, err := repo.SeedOutgoing(cmd.Context(), outgoingArgs)
				if err != nil {
					return err
				}
				out := printer(cmd)
				out.OK("Courrier sortant %d inserted", res.ID)
				out.KV("reference", res.Reference)
				out.KV("uuid", res.UUID)
				for _, m := range res.Missing {
					out.Warn("Column %s missing, value not stored", m)
				}
				globalOptions.recordAudit(cmd, "seed.outgoing", "courriers_sortants", map[string]interface{}{"id": res.ID})
				return nil
			})
		},
	}
	outgoingCmd.Flags().Int64Var(&outgoingArgs.UserID, "user-id", 0, "Author user id, the first user when 0.")
	outgoingCmd.Flags().StringVar(&outgoingArgs.Reference, "reference", "", "Reference, generated when empty.")
	outgoingCmd.Flags().StringVar(&outgoingArgs.Destinataire, "destinataire", "", "Recipient.")
	outgoingCmd.Flags().StringVar(&outgoingArgs.Objet, "objet", "", "Subject.")

	adminArgs := repository.AdminArgs{}
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Create or reset the admin account used by the smoke tests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := adminArgs
			if a.Email == "" {
				a.Email = globalOptions.Conf.Backend.Email
			}
			if a.Password == "" {
				a.Password = globalOptions.Conf.Backend.Password
			}
			return withWritableRepo(globalOptions, func(repo *repository.Repository) error {
				res, err := repo.UpsertAdmin(cmd.Context(), a)
				if err != nil {
					return err
				}
				out := printer(cmd)
				if res.UserCreated {
					out.OK("User created (id=%d)", res.UserID)
				} else {
					out.Info("User %s already exists (id=%d), password updated", a.Email, res.UserID)
				}
				if res.RoleCreated {
					out.OK("Role created")
				}
				if res.Linked {
					out.OK("Role linked to user")
				}
				out.KV("Email", a.Email)
				out.KV("Password", a.Password)
				globalOptions.recordAudit(cmd, "seed.admin", a.Email, map[string]interface{}{"user_id": res.UserID})
				return nil
			})
		},
	}
	adminCmd.Flags().StringVar(&adminArgs.Email, "email", "", "Admin email, backend.email when empty.")
	adminCmd.Flags().StringVar(&adminArgs.Username, "username", "", "Username for a new account.")
	adminCmd.Flags().StringVar(&adminArgs.Password, "admin-password", "", "Password, backend.password when empty.")
	adminCmd.Flags().Int64Var(&adminArgs.RoleID, "role-id", 1, "Role id.")
	adminCmd.Flags().StringVar(&adminArgs.RoleName, "role", "admin", "Role name.")

	planCmd := &cobra.Command{
		Use:   "plan <file.toml>",
		Short: "Apply a TOML plan of roles, services and users",
		Long: `Creates the roles, services and users of the plan that are missing. Users without
a password get a generated one, printed once. The file is then rewritten with
every password cleared.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWritableRepo(globalOptions, func(repo *repository.Repository) error {
				applier := seedplan.NewApplier(repo, printer(cmd), globalOptions.Logger)
				report, err := applier.Run(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := printer(cmd)
				out.Section("Seed plan applied")
				out.KV("roles created", report.RolesCreated)
				out.KV("services created", report.ServicesCreated)
				out.KV("users created", report.UsersCreated)
				out.KV("roles corrected", report.RolesUpdated)
				if !report.PasswordsClear {
					out.Warn("Passwords could not be cleared from %s, remove them by hand", args[0])
				}
				globalOptions.recordAudit(cmd, "seed.plan", args[0], map[string]interface{}{
					"roles":    report.RolesCreated,
					"services": report.ServicesCreated,
					"users":    report.UsersCreated,
				})
				return nil
			})
		},
	}

	seedCmd.AddCommand(shareCmd, outgoingCmd, adminCmd, planCmd)
	return seedCmd
}

func printShare(kv func(string, interface{}), s *models.Share) {
	kv("mail", s.IncomingMailID)
	kv("ref", models.Deref(s.RefCode, "-"))
	kv("subject", models.Deref(s.Subject, "-"))
	kv("from", models.Deref(s.SharedFromService, "-"))
	kv("to", s.SharedToService)
	kv("status", models.Deref(s.Status, "-"))
}
