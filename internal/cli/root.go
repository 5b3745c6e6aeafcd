// Package cli provides the command-line interface for the team
// formation engine.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is set at build time.
var Version = "0.1.0"

var (
	configPath string
	verbose    bool

	appCfg AppConfig
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "balancer",
	Short: "Skill-balanced team formation for tournament rosters",
	Long: `Balancer forms skill-balanced teams from a checked-in tournament
roster. Each competitor's rank evidence is resolved to a single
effective weight, captains are seeded to anchor the teams, and the
remaining pool is assigned by exhaustive search or greedy look-ahead
depending on size. Every placement is recorded in an auditable
decision log.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		appCfg, err = LoadAppConfig(configPath)
		if err != nil {
			return err
		}
		if verbose {
			appCfg.LogLevel = "debug"
		}

		logger, err = newLogger(appCfg.LogLevel)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to CLI config YAML (env prefix NEXUS_)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging, including per-decision output")
	rootCmd.AddCommand(runCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.Set(level); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
