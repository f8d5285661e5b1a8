package main

import (
	"github.com/spf13/cobra"

	"startright/internal/api"
	"startright/internal/config"
	appLog "startright/internal/log"
)

var (
	Version = "dev"
	Commit  = "none"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:     "startright",
	Version: Version + " (" + Commit + ")",
	Short:   "Start Right Conference website",
	Long: `startright serves the Start Right Conference website on top of the
conference REST API, and ships the operational tools around it: calendar
export, image cache maintenance and page snapshots.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./config.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")
}

// loadConfig reads the config file and applies the log level, with the
// --log-level flag winning over the file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	applyLogLevel(cfg)
	return cfg, nil
}

func applyLogLevel(cfg *config.Config) {
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(level))
}

func newAPIClient(cfg *config.Config) *api.Client {
	return api.NewClient(cfg.APIBaseURL, cfg.APITimeout)
}
