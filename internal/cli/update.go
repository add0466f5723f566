package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/glance-io/glance/internal/buildinfo"
	"github.com/glance-io/glance/internal/daemon/updates"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check whether a newer glance is available",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Checking for updates...")

		ctx, cancel := context.WithTimeout(cmd.Context(), 20*time.Second)
		defer cancel()
		result, err := updates.NewChecker(buildinfo.Version).Check(ctx)
		if err != nil {
			return fmt.Errorf("failed to check for updates: %w", err)
		}

		if !result.Available {
			fmt.Printf("Already up to date (%s).\n", styleVersion.Render(result.CurrentVersion))
			return nil
		}

		fmt.Printf("%s v%s → v%s\n", styleUpdate.Render("Update available:"), result.CurrentVersion, result.LatestVersion)
		fmt.Printf("Release: %s\n", result.ReleaseURL)
		return nil
	},
}
