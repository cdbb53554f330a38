package cli

import (
	"os"
	"os/signal"
	"syscall"

	"courrierkit/internal/dashboard"
	"courrierkit/internal/httpserver"
	"courrierkit/internal/httpserver/handlers"
	"courrierkit/internal/models"

	"github.com/spf13/cobra"
)

const agentServiceName = "courrierkit-dashboard-agent"

type ServeOptions struct {
	Host string
	Port int
}

func NewServeCommand(globalOptions *GlobalOptions) *cobra.Command {
	serveOptions := &ServeOptions{}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard agent HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, globalOptions)
		},
	}

	serveOptions.registerFlags(serveCmd)

	return serveCmd
}

func (options *ServeOptions) registerFlags(cmd *cobra.Command) {
	// flags for the serve command only
	cmd.Flags().StringVar(&options.Host, "host", "", "Listen host. (Env: COURRIER_SERVER_HOST)")
	cmd.Flags().IntVar(&options.Port, "port", 0, "Listen port. (Env: COURRIER_SERVER_PORT)")
}

// serve runs the agent until SIGINT or SIGTERM.
func serve(cmd *cobra.Command, globalOptions *GlobalOptions) error {
	conf := globalOptions.Conf
	logger := globalOptions.Logger

	repo, err := globalOptions.openRepository(conf.Agent.ReadOnly)
	if err != nil {
		return err
	}
	defer repo.Close()

	if !conf.Agent.ReadOnly {
		if err := repo.EnsureSchemaBootstrapped(cmd.Context()); err != nil {
			logger.Errorf("Failed to bootstrap database: %v", err)
			return err
		}
	}

	var commenter dashboard.Commenter = dashboard.RuleCommenter{}
	if conf.Agent.OpenAIAPIKey != "" {
		openai := dashboard.NewOpenAICommenter(conf.Agent.OpenAIAPIKey, logger)
		if conf.Agent.OpenAIURL != "" {
			openai.URL = conf.Agent.OpenAIURL
		}
		if conf.Agent.Model != "" {
			openai.Model = conf.Agent.Model
		}
		commenter = openai
		logger.Infof("Dashboard comments generated by %s", openai.Model)
	} else {
		logger.Info("No OpenAI key configured, using rule based comments")
	}

	analyzer := dashboard.NewService(repo, commenter, logger)
	info := models.Info{
		ServiceName: agentServiceName,
		Version:     Version,
		UptimeSince: StartTime,
		ReadOnly:    conf.Agent.ReadOnly,
	}
	h := handlers.NewHandlers(analyzer, info, logger)
	router := httpserver.NewHandler(httpserver.SetupRouter(h), logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := httpserver.NewServer(conf.Server.Host, conf.Server.Port, router, logger)
	logger.Infof("Dashboard agent on %s (database %s, read only %v)", srv.Addr(), repo.Path, conf.Agent.ReadOnly)
	return srv.ListenAndRun(ctx)
}
