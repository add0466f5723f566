package cli

import (
	"github.com/spf13/cobra"

	"github.com/glance-io/glance/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the live overlay view",
	Long: `Open the live overlay view in the terminal.

Moving the mouse over the view counts as hovering the overlay.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := EnsureDaemon(); err != nil {
			return err
		}
		return tui.Run()
	},
}
