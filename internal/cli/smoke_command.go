package cli

import (
	"strings"

	"courrierkit/internal/smoke"

	"github.com/spf13/cobra"
)

type SmokeOptions struct {
	Email        string
	Password     string
	Role         string
	RolePassword string
	RoleService  string
}

func NewSmokeCommand(globalOptions *GlobalOptions) *cobra.Command {
	defaults := smoke.DefaultOptions()
	smokeOptions := &SmokeOptions{}

	smokeCmd := &cobra.Command{
		Use:       "smoke <scenario|all>",
		Short:     "Run end to end checks against the backend API",
		Long:      "Scenarios: " + strings.Join(smoke.Names(), ", ") + ".\nWith no argument the scenarios are listed.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: append(smoke.Names(), "all"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out := printer(cmd)
				out.Section("Smoke scenarios")
				rows := make([][]string, 0, len(smoke.Names()))
				for _, s := range smoke.Scenarios() {
					rows = append(rows, []string{s.Name, s.Description})
				}
				out.Table([]string{"scenario", "description"}, rows)
				return nil
			}
			return runSmoke(cmd, globalOptions, smokeOptions, args[0])
		},
	}

	smokeCmd.Flags().StringVar(&smokeOptions.Email, "email", "", "Admin login email. (Env: COURRIER_BACKEND_EMAIL)")
	smokeCmd.Flags().StringVar(&smokeOptions.Password, "password", "", "Admin login password. (Env: COURRIER_BACKEND_PASSWORD)")
	smokeCmd.Flags().StringVar(&smokeOptions.Role, "role", defaults.Role, "Role checked by role-access.")
	smokeCmd.Flags().StringVar(&smokeOptions.RolePassword, "role-password", defaults.RolePassword, "Password of the role-access user.")
	smokeCmd.Flags().StringVar(&smokeOptions.RoleService, "role-service", defaults.RoleService, "Service whose archives role-access reads.")

	return smokeCmd
}

func runSmoke(cmd *cobra.Command, globalOptions *GlobalOptions, smokeOptions *SmokeOptions, name string) error {
	opts := smoke.DefaultOptions()
	opts.Email = globalOptions.Conf.Backend.Email
	opts.Password = globalOptions.Conf.Backend.Password
	opts.Role = smokeOptions.Role
	opts.RolePassword = smokeOptions.RolePassword
	opts.RoleService = smokeOptions.RoleService

	var directory smoke.RoleDirectory
	repo, err := globalOptions.openRepository(true)
	if err != nil {
		globalOptions.Logger.Debugf("No local database for role lookups: %v", err)
	} else {
		defer repo.Close()
		directory = repo
	}

	runner := smoke.NewRunner(globalOptions.backendClient(), printer(cmd), globalOptions.Logger, opts, directory)
	if name == "all" {
		_, err := runner.RunAll(cmd.Context())
		return err
	}
	return runner.Run(cmd.Context(), name)
}
