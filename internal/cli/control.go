package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/glance-io/glance/internal/api"
)

var playCmd = &cobra.Command{
	Use:     "play",
	Aliases: []string{"pause"},
	Short:   "Toggle playback on the active player",
	Args:    cobra.NoArgs,
	RunE:    actionRunner(api.ActionPlayPause),
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Skip to the next track",
	Args:  cobra.NoArgs,
	RunE:  actionRunner(api.ActionNext),
}

var prevCmd = &cobra.Command{
	Use:     "prev",
	Aliases: []string{"previous"},
	Short:   "Go back one track",
	Args:    cobra.NoArgs,
	RunE:    actionRunner(api.ActionPrevious),
}

var volumeCmd = &cobra.Command{
	Use:   "volume [level|+delta|-delta]",
	Short: "Set or adjust the output volume",
	Long: `Set or adjust the output volume.

Levels are fractions (0.4) or percentages (40%). A leading + or - adjusts
relative to the current level:

  glance volume 40%
  glance volume +5%
  glance volume -0.1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLevel(args[0], api.ActionSetVolume, api.ActionAdjustVolume)
	},
}

var brightnessCmd = &cobra.Command{
	Use:   "brightness [level|+delta|-delta]",
	Short: "Set or adjust the display brightness",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLevel(args[0], api.ActionSetBrightness, api.ActionAdjustBrightness)
	},
}

var focusCmd = &cobra.Command{
	Use:     "focus",
	Aliases: []string{"dnd"},
	Short:   "Toggle do-not-disturb",
	Args:    cobra.NoArgs,
	RunE:    actionRunner(api.ActionToggleFocus),
}

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Control the countdown timer",
}

var timerStartCmd = &cobra.Command{
	Use:   "start [duration]",
	Short: "Start a countdown (default from settings)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := &api.Command{Action: api.ActionStartTimer}
		if len(args) == 1 {
			d, err := parseDuration(args[0])
			if err != nil {
				return err
			}
			c.Duration = d
		}
		return execute(c)
	},
}

var timerPauseCmd = &cobra.Command{
	Use:     "pause",
	Aliases: []string{"resume"},
	Short:   "Pause or resume the countdown",
	Args:    cobra.NoArgs,
	RunE:    actionRunner(api.ActionPauseTimer),
}

var timerResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Cancel the countdown",
	Args:  cobra.NoArgs,
	RunE:  actionRunner(api.ActionResetTimer),
}

var pomodoroCmd = &cobra.Command{
	Use:     "pomodoro",
	Aliases: []string{"pomo"},
	Short:   "Control the pomodoro cycle",
}

var pomodoroStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Begin a work interval",
	Args:  cobra.NoArgs,
	RunE:  actionRunner(api.ActionStartPomodoro),
}

var pomodoroStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "End the cycle",
	Args:  cobra.NoArgs,
	RunE:  actionRunner(api.ActionStopPomodoro),
}

var pomodoroSkipCmd = &cobra.Command{
	Use:   "skip",
	Short: "End the current interval early",
	Args:  cobra.NoArgs,
	RunE:  actionRunner(api.ActionSkipPomodoro),
}

var (
	notifyBody    string
	notifyIcon    string
	notifyDismiss time.Duration
)

var notifyCmd = &cobra.Command{
	Use:   "notify [title]",
	Short: "Queue a notification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(&api.Command{
			Action:   api.ActionNotify,
			Title:    args[0],
			Body:     notifyBody,
			Icon:     notifyIcon,
			Duration: notifyDismiss,
		})
	},
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss",
	Short: "Dismiss the visible notification",
	Args:  cobra.NoArgs,
	RunE:  actionRunner(api.ActionDismiss),
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-detect backends and re-read every fact",
	Args:  cobra.NoArgs,
	RunE:  actionRunner(api.ActionRefresh),
}

func init() {
	timerCmd.AddCommand(timerStartCmd)
	timerCmd.AddCommand(timerPauseCmd)
	timerCmd.AddCommand(timerResetCmd)

	pomodoroCmd.AddCommand(pomodoroStartCmd)
	pomodoroCmd.AddCommand(pomodoroStopCmd)
	pomodoroCmd.AddCommand(pomodoroSkipCmd)

	notifyCmd.Flags().StringVarP(&notifyBody, "body", "b", "", "Notification body")
	notifyCmd.Flags().StringVarP(&notifyIcon, "icon", "i", "", "Icon name")
	notifyCmd.Flags().DurationVarP(&notifyDismiss, "dismiss", "d", 0, "Auto-dismiss after (default from settings)")
}

func actionRunner(action api.Action) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return execute(&api.Command{Action: action})
	}
}

func runLevel(arg string, set, adjust api.Action) error {
	v, relative, err := parseLevel(arg)
	if err != nil {
		return err
	}
	action := set
	if relative {
		action = adjust
	}
	return execute(&api.Command{Action: action, Value: v})
}

// parseLevel reads "0.4", "40%", "+5%" or "-0.1". A sign makes the value a
// delta.
func parseLevel(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, fmt.Errorf("empty level")
	}
	relative := s[0] == '+' || s[0] == '-'

	percent := strings.HasSuffix(s, "%")
	num := strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid level %q", s)
	}
	if percent {
		v /= 100
	}
	if !relative && (v < 0 || v > 1) {
		return 0, false, fmt.Errorf("level %q out of range 0..1 (or 0%%..100%%)", s)
	}
	return v, relative, nil
}

// parseDuration accepts Go durations ("90s", "1h30m") or bare minutes ("25").
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("duration must be positive")
		}
		return time.Duration(n) * time.Minute, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}
	return d, nil
}
