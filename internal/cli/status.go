package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/glance-io/glance/internal/api"
	"github.com/glance-io/glance/internal/models"
)

var (
	statusCapabilities bool
	statusJSON         bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the overlay is displaying",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusCapabilities, "capabilities", "c", false, "Show backend resolution and channel freshness")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the raw payload as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	running, _, err := GetDaemonStatus()
	if err != nil {
		return err
	}
	if !running {
		fmt.Println(styleHint.Render("Daemon is not running. Start it with: ") + styleCommand.Render("glance daemon start"))
		return nil
	}

	var display models.Display
	var status models.DaemonStatus
	err = withClient(func(ctx context.Context, client *api.Client) error {
		d, err := client.GetDisplay(ctx)
		if err != nil {
			return err
		}
		display = d.Display
		if !statusCapabilities {
			return nil
		}
		s, err := client.GetStatus(ctx)
		if err != nil {
			return err
		}
		status = s.Status
		return nil
	})
	if err != nil {
		return err
	}

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if statusCapabilities {
			return enc.Encode(struct {
				Display models.Display      `json:"display"`
				Status  models.DaemonStatus `json:"status"`
			}{display, status})
		}
		return enc.Encode(display)
	}

	printDisplay(display)
	if statusCapabilities {
		fmt.Println()
		printCapabilities(status.Capabilities)
		fmt.Println()
		printChannels(status.Channels)
		fmt.Printf("\n%s %d\n", styleLabel.Render("Queued notifications:"), status.Queue)
	}
	return nil
}

func printDisplay(d models.Display) {
	fmt.Printf("%s %s\n", styleLabel.Render("State:"), renderState(d.State))
	if c, ok := d.Compact(); ok {
		fmt.Printf("%s %s\n", styleLabel.Render("Showing:"), styleValue.Render(c.ID+" "+c.Summary))
	}
	if n := d.Notification; n != nil {
		line := n.Title
		if n.Body != "" {
			line += ": " + n.Body
		}
		fmt.Printf("%s %s\n", styleLabel.Render("Notification:"), styleWarning.Render(line))
	}

	fmt.Printf("%s %s\n", styleLabel.Render("Volume:"), formatLevel(d.Controls.Volume))
	fmt.Printf("%s %s\n", styleLabel.Render("Brightness:"), formatLevel(d.Controls.Brightness))
	focus := "off"
	if d.Controls.Focus {
		focus = "on"
	}
	fmt.Printf("%s %s\n", styleLabel.Render("Focus:"), styleValue.Render(focus))

	fmt.Println()
	for _, p := range d.Providers {
		if !p.Active && p.Summary == "" {
			continue
		}
		marker := "  "
		if p.ID == d.CompactProviderID {
			marker = styleSuccess.Render("▸ ")
		}
		line := fmt.Sprintf("%s%-18s %s", marker, p.ID, p.Summary)
		if p.Stale {
			line += styleHint.Render(" (stale)")
		}
		fmt.Println(line)
	}
}

func formatLevel(l models.Level) string {
	if !l.Known {
		return styleHint.Render("unknown")
	}
	s := fmt.Sprintf("%.0f%%", l.Value*100)
	if l.Stale {
		s += styleHint.Render(" (stale)")
	}
	if !l.Writable {
		s += styleHint.Render(" read-only")
	}
	return styleValue.Render(s)
}

func printCapabilities(caps []models.CapabilityStatus) {
	fmt.Println(styleBrand.Render("Capabilities"))
	for _, c := range caps {
		active := styleSuccess.Render(c.Active)
		if c.Unavailable {
			active = styleError.Render("unavailable")
		} else if c.Active == "" {
			active = styleHint.Render("unresolved")
		}
		fmt.Printf("  %-18s %s", c.ID, active)
		if len(c.Demoted) > 0 {
			fmt.Print(styleHint.Render("  demoted: " + strings.Join(c.Demoted, ", ")))
		}
		fmt.Println()
		if c.LastError != "" {
			fmt.Printf("  %-18s %s\n", "", styleHint.Render(c.LastError))
		}
		if !c.NextRetry.IsZero() {
			fmt.Printf("  %-18s %s\n", "", styleHint.Render("retry in "+time.Until(c.NextRetry).Truncate(time.Second).String()))
		}
	}
}

func printChannels(channels []models.ChannelStatus) {
	fmt.Println(styleBrand.Render("Channels"))
	for _, ch := range channels {
		state := renderFreshness(ch.Known, ch.Stale)
		age := ""
		if !ch.Updated.IsZero() {
			age = time.Since(ch.Updated).Truncate(time.Second).String() + " ago"
		}
		fmt.Printf("  %-12s %-8s %-10s %-16s %s\n", ch.Name, state, ch.Origin, ch.Strategy, styleHint.Render(age))
	}
}
