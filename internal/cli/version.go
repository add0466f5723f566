package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glance-io/glance/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show version information",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", styleBrand.Render("glance"), styleVersion.Render(buildinfo.Version))
		for _, r := range buildinfo.Details() {
			fmt.Printf("  %s %s\n", styleLabel.Render(fmt.Sprintf("%-8s", r[0]+":")), r[1])
		}
	},
}
