// Package main is the cinesearch entrypoint: the web app and catalog maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cinesearch/internal/config"
	logpkg "github.com/kailas-cloud/cinesearch/internal/logger"
	"github.com/kailas-cloud/cinesearch/internal/version"
)

var (
	// envName selects config/<env>.yaml and the logger preset
	envName string
	// configPath overrides the env-based config lookup
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cinesearch",
	Short: "Semantic movie search web app",
	Long: `cinesearch serves a small web app where registered users describe the movie
they want in plain words and get the closest matches from a preloaded catalog.`,
	Version:      fmt.Sprintf("%s (commit %s, built %s)", version.Version, version.Commit, version.Date),
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", config.GetEnv(), "environment name (local, dev, prod)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (overrides --env lookup)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(embedCmd)
}

// bootstrap loads configuration and builds the logger shared by all commands.
func bootstrap() (config.Config, *zap.Logger, error) {
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(envName)
	}
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logpkg.NewLogger(envName, logpkg.Options{
		Level:    cfg.Logging.Level,
		Encoding: cfg.Logging.Encoding,
	})
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}
