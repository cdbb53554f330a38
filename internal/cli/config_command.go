package cli

import (
	"fmt"
	"os"

	"courrierkit/internal/config"

	"github.com/spf13/cobra"
)

const maskedSecret = "********"

func NewConfigCommand(globalOptions *GlobalOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Write or print the configuration",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file at --config_path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalOptions.CfgFilePath
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			printer(cmd).OK("Configuration written to %s", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file.")

	var showSecrets bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := *globalOptions.Conf
			if !showSecrets {
				if conf.Backend.Password != "" {
					conf.Backend.Password = maskedSecret
				}
				if conf.Agent.OpenAIAPIKey != "" {
					conf.Agent.OpenAIAPIKey = maskedSecret
				}
			}
			return config.Encode(cmd.OutOrStdout(), &conf)
		},
	}
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print passwords and keys in clear.")

	configCmd.AddCommand(initCmd, showCmd)
	return configCmd
}
