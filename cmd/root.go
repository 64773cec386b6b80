// Package cmd implements the command-line interface of the site auditor.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/config"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/logger"
)

const (
	keyConfig = "config"
	keyDebug  = "debug"

	defaultConfigFile = "config.yml"
)

// rootCmd represents the base command of the CLI.
var rootCmd = newRootCommand()

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site-auditor",
		Short: "Crawl a website and report SEO issues",
		Long: `site-auditor crawls a website breadth-first, runs technical, performance,
mobile and accessibility checks on every page and reports prioritized findings.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().String(keyConfig, "", "config file (default is $CONFIG_PATH or ./config.yml when present)")
	cmd.PersistentFlags().Bool(keyDebug, false, "enable debug logging")

	cmd.AddCommand(newAuditCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

// Execute runs the root command.
func Execute() error {
	// Load .env early so viper sees the same environment as the config loader.
	_ = godotenv.Load()

	if err := bindRootFlags(rootCmd); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}
	return rootCmd.ExecuteContext(context.Background())
}

// bindRootFlags binds the global flags and their environment variables.
func bindRootFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlag(keyConfig, cmd.PersistentFlags().Lookup(keyConfig)); err != nil {
		return fmt.Errorf("failed to bind config flag: %w", err)
	}
	if err := viper.BindPFlag(keyDebug, cmd.PersistentFlags().Lookup(keyDebug)); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}
	if err := viper.BindEnv(keyConfig, "AUDITOR_CONFIG", "CONFIG_PATH"); err != nil {
		return fmt.Errorf("failed to bind AUDITOR_CONFIG: %w", err)
	}
	if err := viper.BindEnv(keyDebug, "AUDITOR_DEBUG"); err != nil {
		return fmt.Errorf("failed to bind AUDITOR_DEBUG: %w", err)
	}
	return nil
}

// configPath returns the config file to load. An explicit flag or
// environment value wins; otherwise ./config.yml is used when it exists.
func configPath() string {
	if path := viper.GetString(keyConfig); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

// loadConfig loads the configuration and applies global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath())
	if err != nil {
		return nil, err
	}
	if viper.GetBool(keyDebug) {
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = logger.FormatConsole
	}
	return cfg, nil
}
