package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build variables set by ldflags
var buildVersion = "dev"

// rootOptions carries state shared by every subcommand.
type rootOptions struct {
	logLevel   string
	configPath string

	logger *slog.Logger
	cfg    *fileConfig
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{cfg: &fileConfig{}}
	rootCmd := &cobra.Command{
		Use:   "canutil",
		Short: "CAN bit-timing calculator and interface tool",
		Long: `canutil enumerates CAN and CAN-FD bit-timing register values for a
controller clock, bitrate and sample point, and programs them into Linux
SocketCAN interfaces or SLCAN serial adapters.`,
		Version:       buildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := new(slog.LevelVar)
			if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
				return fmt.Errorf("invalid --log-level: %w", err)
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			if opts.configPath == "" {
				return nil
			}
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger.Debug("loaded config", "path", opts.configPath, "controllers", len(cfg.Controllers))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "TOML file with controller profiles and defaults")

	rootCmd.AddCommand(solveCmd(opts))
	rootCmd.AddCommand(applyCmd(opts))
	rootCmd.AddCommand(dlcCmd())
	rootCmd.AddCommand(dumpCmd(opts))

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
