// Package main is the pharmassist CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/pharmassist/internal/config"
	"github.com/hyperjump/pharmassist/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/pharmassist/config.yaml"

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	envFile    string
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "pharmassist",
		Short:         "Pharmaceutical information assistant",
		Long:          "pharmassist answers drug questions from drug labels using retrieval-augmented generation.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "config file path")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newServerCmd(opts),
		newAskCmd(opts),
		newSearchCmd(opts),
		newIngestCmd(opts),
		newStatusCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pharmassist version %s\n", version)
		},
	}
}

// loadConfig loads config from path. When path is the default and does not exist, config.yaml
// in the current directory is used if present, otherwise defaults and environment only.
// Returns the config and the path that was actually loaded.
func loadConfig(opts *rootOptions) (*config.Config, string, error) {
	if opts.envFile != "" {
		// A missing .env is normal in production.
		_ = godotenv.Load(opts.envFile)
	}
	path := opts.configPath
	if path == defaultConfigPath {
		if _, err := os.Stat(path); err != nil {
			path = ""
			if cwd, cwdErr := os.Getwd(); cwdErr == nil {
				fallback := filepath.Join(cwd, "config.yaml")
				if _, statErr := os.Stat(fallback); statErr == nil {
					path = fallback
				}
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// setup loads and validates config and builds the logger. Validation warnings are logged.
func setup(opts *rootOptions) (*config.Config, *zap.Logger, error) {
	cfg, path, err := loadConfig(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug || opts.debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	warnings, err := config.Validate(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	for _, w := range warnings {
		logger.Warn(w)
	}
	if path == "" {
		path = "(defaults)"
	}
	logger.Debug("config loaded", zap.String("config_path", path))
	return cfg, logger, nil
}

// joinArgs joins positional args so multi-word queries work with or without quotes.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
