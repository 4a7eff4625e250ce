package main

import (
	"alcyxob/coaching-platform/internal/config"
	"alcyxob/coaching-platform/internal/logging"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmdPersistentFlags struct {
	ConfigPath string
	LogLevel   string
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootCmdPersistentFlags.ConfigPath, "config", "c", ".", "Config directory (containing config.yaml) or path to a YAML file")
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogLevel, "log-level", "", "Log level (debug, info, warn, error) - overrides config file setting")
}

var rootCmd = &cobra.Command{
	Use:   "coaching-platform",
	Short: "Coaching platform API server",
	Long:  `Serves workout plans for athletes and coaches, and the admin-managed per-language defaults.`,
	Example: `coaching-platform serve --config ./config.yaml
  coaching-platform migrate -c /etc/coaching-platform
  coaching-platform hash-password`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the optional .env file, then the config file and
// environment, and builds the logger.
func loadConfig() (config.Config, *zap.Logger, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(rootCmdPersistentFlags.ConfigPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if rootCmdPersistentFlags.LogLevel != "" {
		cfg.Log.Level = rootCmdPersistentFlags.LogLevel
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger, nil
}
