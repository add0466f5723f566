// Package updates checks GitHub Releases for a newer glance and announces
// it through the notification queue.
package updates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/glance-io/glance/internal/daemon/notification"
	"github.com/glance-io/glance/internal/models"
)

// DefaultReleasesURL is the latest-release endpoint.
const DefaultReleasesURL = "https://api.github.com/repos/glance-io/glance/releases/latest"

const (
	checkTimeout = 15 * time.Second
	// announceFor keeps the update notification up longer than the default.
	announceFor = 8 * time.Second
)

// Release is the subset of a GitHub release we read.
type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Result contains the result of an update check.
type Result struct {
	Available      bool
	CurrentVersion string
	LatestVersion  string
	ReleaseURL     string
}

// Checker queries a releases endpoint.
type Checker struct {
	URL     string
	Client  *http.Client
	Current string
}

// NewChecker checks DefaultReleasesURL against the running version.
func NewChecker(current string) *Checker {
	return &Checker{URL: DefaultReleasesURL, Client: &http.Client{Timeout: checkTimeout}, Current: current}
}

// Check queries the releases endpoint for a newer version.
func (c *Checker) Check(ctx context.Context) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "glance/"+c.Current)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch releases: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// No releases yet
		return Result{CurrentVersion: c.Current}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("GitHub API returned %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return Result{}, fmt.Errorf("decode release: %w", err)
	}

	res := Result{
		CurrentVersion: c.Current,
		LatestVersion:  strings.TrimPrefix(release.TagName, "v"),
		ReleaseURL:     release.HTMLURL,
	}
	latest, err := ParseSemver(res.LatestVersion)
	if err != nil {
		return Result{}, fmt.Errorf("parse latest version %q: %w", res.LatestVersion, err)
	}
	current, err := ParseSemver(c.Current)
	if err != nil {
		// Development builds never nag.
		return res, nil
	}
	res.Available = current.LessThan(latest)
	return res, nil
}

// Due reports whether a check should run now given the configured frequency.
func Due(cfg models.UpdatesConfig, now time.Time) bool {
	if !cfg.CheckOnStartup {
		return false
	}
	if cfg.LastChecked == nil {
		return true
	}
	since := now.Sub(*cfg.LastChecked)
	switch cfg.CheckFrequency {
	case "daily":
		return since >= 24*time.Hour
	case "weekly":
		return since >= 7*24*time.Hour
	}
	// "every_launch"
	return true
}

// Notifier receives the update announcement.
type Notifier interface {
	Notify(p notification.Payload, autoDismissAfter time.Duration)
}

// Settings loads and stores the settings file so the check time persists.
type Settings interface {
	Load() (*models.Settings, error)
	Save(*models.Settings) error
}

// Run performs one startup check when due and announces a newer release.
func Run(ctx context.Context, c *Checker, store Settings, n Notifier, logger *slog.Logger) {
	logger = logger.With("component", "updates")
	settings, err := store.Load()
	if err != nil {
		logger.Warn("failed to load settings", "error", err)
		return
	}
	now := time.Now()
	if !Due(settings.Updates, now) {
		return
	}

	result, err := c.Check(ctx)
	if err != nil {
		logger.Warn("update check failed", "error", err)
		return
	}

	// Update last_checked timestamp in settings
	settings.Updates.LastChecked = &now
	if err := store.Save(settings); err != nil {
		logger.Warn("failed to save last_checked", "error", err)
	}

	if !result.Available {
		logger.Info("up to date", "version", result.CurrentVersion)
		return
	}
	logger.Info("update available", "current", result.CurrentVersion, "latest", result.LatestVersion)
	n.Notify(notification.Payload{
		Title:  "Update available",
		Body:   fmt.Sprintf("glance %s is out", result.LatestVersion),
		Icon:   "update",
		Source: "updates",
	}, announceFor)
}
