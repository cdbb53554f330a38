// filepath: internal/cli/root.go
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"courrierkit/internal/audit"
	"courrierkit/internal/backend"
	"courrierkit/internal/config"
	"courrierkit/internal/console"
	"courrierkit/internal/logging"
	"courrierkit/internal/repository"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Version info
	Version   = "0.3.0"
	StartTime = time.Now()
)

// GlobalOptions holds the persistent flags and what initializeConfig derives from them.
type GlobalOptions struct {
	CfgFilePath string
	LogLevel    string
	DBPath      string
	BaseURL     string

	Logger  *logrus.Logger
	Conf    *config.Config
	Auditor audit.Auditor
}

// flagBindings ties config keys to the persistent and per-command flags.
var flagBindings = config.FlagBindings{
	"logging.level":    "log-level",
	"database.path":    "db",
	"backend.base_url": "base-url",
	"backend.email":    "email",
	"backend.password": "password",
	"server.host":      "host",
	"server.port":      "port",
}

func NewRootCMD() *cobra.Command {

	globalOptions := &GlobalOptions{}

	rootCMD := &cobra.Command{
		Use:           "courrierkit",
		Short:         "Courrier maintenance toolkit",
		Long:          "Inspects and patches the courrier SQLite database, runs smoke tests against its REST API and serves the dashboard agent.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return globalOptions.initializeConfig(cmd)
		},
	}

	// register global flags
	globalOptions.registerFlags(rootCMD)

	// add subcommands
	rootCMD.AddCommand(NewInspectCommand(globalOptions))
	rootCMD.AddCommand(NewMigrationsCommand(globalOptions))
	rootCMD.AddCommand(NewMigrateCommand(globalOptions))
	rootCMD.AddCommand(NewPatchCommand(globalOptions))
	rootCMD.AddCommand(NewSeedCommand(globalOptions))
	rootCMD.AddCommand(NewReportCommand(globalOptions))
	rootCMD.AddCommand(NewSmokeCommand(globalOptions))
	rootCMD.AddCommand(NewServeCommand(globalOptions))
	rootCMD.AddCommand(NewConfigCommand(globalOptions))

	return rootCMD
}

func (options *GlobalOptions) registerFlags(cmd *cobra.Command) {
	// flags that can be used for each command
	cmd.PersistentFlags().StringVar(&options.CfgFilePath, "config_path", "config.toml", "Path to the base configuration file. (Env: COURRIER_CONFIG_PATH)")
	cmd.PersistentFlags().StringVar(&options.LogLevel, "log-level", "", "Logging level (trace, debug, info, warn, error). (Env: COURRIER_LOGGING_LEVEL)")
	cmd.PersistentFlags().StringVar(&options.DBPath, "db", "", "Path to the courrier SQLite database. (Env: COURRIER_DATABASE_PATH)")
	cmd.PersistentFlags().StringVar(&options.BaseURL, "base-url", "", "Base URL of the backend API. (Env: COURRIER_BACKEND_BASE_URL)")
}

// initializeConfig loads the configuration and sets up logging for the command.
func (options *GlobalOptions) initializeConfig(cmd *cobra.Command) error {
	if envPath := os.Getenv("COURRIER_CONFIG_PATH"); envPath != "" && !cmd.Flags().Changed("config_path") {
		options.CfgFilePath = envPath
	}

	conf, err := config.Load(options.CfgFilePath, cmd.Flags(), flagBindings)
	if err != nil {
		return err
	}
	if err := conf.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	options.Conf = conf

	logging.Init(conf.Logging.Level, conf.Logging.Format)
	goose.SetLogger(logging.Log)
	options.Logger = logging.Log
	options.Auditor = audit.NewLoggerAuditor(conf.Logging.AuditEnabled).WithLogger(logging.Log)

	return nil
}

// openRepository opens the configured database. Read-only opens also require the file.
func (options *GlobalOptions) openRepository(readOnly bool) (*repository.Repository, error) {
	dbConf := options.Conf.Database
	if readOnly {
		dbConf.ReadOnly = true
		dbConf.MustExist = true
	}
	repo, err := repository.Open(dbConf)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbConf.Path, err)
	}
	repo.Logger = options.Logger
	return repo, nil
}

func (options *GlobalOptions) backendClient() *backend.Client {
	c := backend.New(options.Conf.Backend.BaseURL, options.Conf.Backend.Timeout())
	c.Logger = options.Logger
	return c
}

func printer(cmd *cobra.Command) *console.Printer {
	return console.New(cmd.OutOrStdout())
}

// recordAudit records a mutation made by the current OS user.
func (options *GlobalOptions) recordAudit(cmd *cobra.Command, action, resource string, details map[string]interface{}) {
	options.Auditor.Log(cmd.Context(), action, audit.CurrentActor(), resource, details)
}

// Execute runs the root command and exits 1 on error.
func Execute() {
	rootCmd := NewRootCMD()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Run executes the CLI with args, writing to out. Used by tests.
func Run(args []string, out io.Writer) error {
	rootCmd := NewRootCMD()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	return rootCmd.Execute()
}
