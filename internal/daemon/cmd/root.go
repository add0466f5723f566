// Package cmd implements the glanced command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagForeground bool
	flagPort       int
	flagWebPort    int
	flagLogLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "glanced",
	Short: "Glance daemon",
	Long: `glanced watches media, levels, power, connectivity, calendar and
timers, arbitrates what the overlay shows, and serves the result over gRPC.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptions{
			Foreground: flagForeground,
			Port:       flagPort,
			LogLevel:   flagLogLevel,
		}
		if cmd.Flags().Changed("web-port") {
			opts.WebPort = &flagWebPort
		}
		return run(opts)
	},
}

func init() {
	rootCmd.Flags().BoolVar(&flagForeground, "foreground", false, "Run in foreground without the system tray")
	rootCmd.Flags().IntVar(&flagPort, "port", 0, "Port to listen on (0 for dynamic allocation)")
	rootCmd.Flags().IntVar(&flagWebPort, "web-port", 0, "Port for gRPC-web and /metrics (overrides settings, 0 disables)")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "Log level (overrides settings)")
}

// Execute runs the daemon command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
