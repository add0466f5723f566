// Package cli implements the glance CLI commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/glance-io/glance/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:   "glance",
	Short: "Control the glance overlay",
	Long: `Glance keeps a live picture of media, volume, brightness, battery,
timers, notifications and more, and decides what the overlay shows.

Run without arguments to open the live view.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := EnsureDaemon(); err != nil {
			return err
		}
		return tui.Run()
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add subcommands (alphabetical)
	rootCmd.AddCommand(brightnessCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(dismissCmd)
	rootCmd.AddCommand(focusCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(pomodoroCmd)
	rootCmd.AddCommand(prevCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(timerCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(volumeCmd)
	rootCmd.AddCommand(watchCmd)
}
