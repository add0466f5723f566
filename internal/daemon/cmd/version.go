package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/glance-io/glance/internal/api"
	"github.com/glance-io/glance/internal/buildinfo"
	"github.com/glance-io/glance/internal/config"
)

// Styles for daemon version output (matching CLI styles).
var (
	dStyleBrand   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "30", Dark: "45"})
	dStyleVersion = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "40"})
	dStyleLabel   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "242", Dark: "240"})
	dStyleValue   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "0", Dark: "15"})
)

var daemonVersionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show version information",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("  %s %s\n",
			dStyleBrand.Render("glanced"),
			dStyleVersion.Render(buildinfo.Version),
		)
		rows := append(buildinfo.Details(), [2]string{"API", api.ServiceName})
		if dir, err := config.GlobalDir(); err == nil {
			rows = append(rows, [2]string{"Config", dir})
		}
		for _, r := range rows {
			fmt.Printf("    %s %s\n", dStyleLabel.Width(8).Render(r[0]), dStyleValue.Render(r[1]))
		}
	},
}

func init() {
	rootCmd.AddCommand(daemonVersionCmd)
}
