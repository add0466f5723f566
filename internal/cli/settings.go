package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/glance-io/glance/internal/config"
	"github.com/glance-io/glance/internal/models"
)

var settingsCmd = &cobra.Command{
	Use:     "settings",
	Aliases: []string{"config"},
	Short:   "Show or edit global settings",
	Long: `Show or edit ~/.glance/settings.yaml.

The daemon picks up saved changes without a restart.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GlobalSettingsFile()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var settingsEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit common settings interactively",
	Long: `Edit common settings interactively.

Press Enter to keep the current value for any setting.`,
	Args: cobra.NoArgs,
	RunE: runSettingsEdit,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsPathCmd)
	settingsCmd.AddCommand(settingsEditCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func runSettingsEdit(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	changed, err := editSettings(bufio.NewReader(os.Stdin), settings)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Println("\nNo changes made.")
		return nil
	}

	if err := config.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Println("\nSettings updated.")
	return nil
}

// editSettings prompts for each editable setting and reports whether any
// value changed.
func editSettings(reader *bufio.Reader, s *models.Settings) (bool, error) {
	changed := false

	fmt.Println("Notifications:")
	if v := promptYesNoWithCurrent(reader, "Warn when the battery runs low?", s.Notifications.BatteryLow); v != s.Notifications.BatteryLow {
		s.Notifications.BatteryLow = v
		changed = true
	}
	if v := promptYesNoWithCurrent(reader, "Announce bluetooth connections?", s.Notifications.Bluetooth); v != s.Notifications.Bluetooth {
		s.Notifications.Bluetooth = v
		changed = true
	}
	d, err := promptDuration(reader, "Auto-dismiss after", s.Notifications.DefaultDismiss)
	if err != nil {
		return false, err
	}
	if d != s.Notifications.DefaultDismiss {
		s.Notifications.DefaultDismiss = d
		changed = true
	}

	fmt.Println("\nThresholds:")
	pct, err := promptPercent(reader, "Low battery at", s.Thresholds.BatteryLow)
	if err != nil {
		return false, err
	}
	if pct != s.Thresholds.BatteryLow {
		s.Thresholds.BatteryLow = pct
		changed = true
	}

	fmt.Println("\nPomodoro:")
	work, err := promptDuration(reader, "Work interval", s.Pomodoro.Work)
	if err != nil {
		return false, err
	}
	if work != s.Pomodoro.Work {
		s.Pomodoro.Work = work
		changed = true
	}
	short, err := promptDuration(reader, "Short break", s.Pomodoro.ShortBreak)
	if err != nil {
		return false, err
	}
	if short != s.Pomodoro.ShortBreak {
		s.Pomodoro.ShortBreak = short
		changed = true
	}

	fmt.Println("\nUpdates:")
	if v := promptYesNoWithCurrent(reader, "Check for updates on startup?", s.Updates.CheckOnStartup); v != s.Updates.CheckOnStartup {
		s.Updates.CheckOnStartup = v
		changed = true
	}

	return changed, nil
}

// promptYesNoWithCurrent prompts for a yes/no value showing the current value.
func promptYesNoWithCurrent(reader *bufio.Reader, prompt string, current bool) bool {
	currentStr := "no"
	if current {
		currentStr = "yes"
	}

	fmt.Printf("  %s [%s]: ", prompt, currentStr)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))

	if response == "" {
		return current
	}
	return response == "y" || response == "yes"
}

func promptDuration(reader *bufio.Reader, prompt string, current time.Duration) (time.Duration, error) {
	fmt.Printf("  %s [%s]: ", prompt, current)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(response)
	if response == "" {
		return current, nil
	}
	return parseDuration(response)
}

func promptPercent(reader *bufio.Reader, prompt string, current float64) (float64, error) {
	fmt.Printf("  %s [%.0f%%]: ", prompt, current)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSuffix(strings.TrimSpace(response), "%")
	if response == "" {
		return current, nil
	}
	v, err := strconv.ParseFloat(response, 64)
	if err != nil || v < 0 || v > 100 {
		return 0, fmt.Errorf("invalid percentage: %s", response)
	}
	return v, nil
}
