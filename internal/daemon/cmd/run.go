package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/glance-io/glance/internal/buildinfo"
	"github.com/glance-io/glance/internal/config"
	"github.com/glance-io/glance/internal/daemon/engine"
	"github.com/glance-io/glance/internal/daemon/loop"
	"github.com/glance-io/glance/internal/daemon/metrics"
	"github.com/glance-io/glance/internal/daemon/platform"
	"github.com/glance-io/glance/internal/daemon/server"
	"github.com/glance-io/glance/internal/daemon/tray"
	"github.com/glance-io/glance/internal/daemon/updates"
	"github.com/glance-io/glance/internal/daemon/watcher"
	"github.com/glance-io/glance/internal/logging"
	"github.com/glance-io/glance/internal/models"
)

// stopTimeout bounds engine shutdown.
const stopTimeout = 5 * time.Second

type runOptions struct {
	Foreground bool
	Port       int
	// WebPort overrides settings when set.
	WebPort  *int
	LogLevel string
}

// daemon is one running glanced: engine, platform, API and file watcher.
type daemon struct {
	logger  *slog.Logger
	logFile io.Closer

	ctx    context.Context
	cancel context.CancelFunc

	lp      *loop.Dispatcher
	plat    *platform.Platform
	core    *engine.Core
	srv     *server.Server
	watcher *watcher.Watcher
}

func run(opts runOptions) error {
	// Ensure global directory exists
	if err := config.EnsureGlobalDir(); err != nil {
		return fmt.Errorf("failed to create global directory: %w", err)
	}

	// Check if daemon is already running
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return fmt.Errorf("daemon already running on port %d (PID %d)", info.Port, info.PID)
	}

	d, err := start(opts)
	if err != nil {
		return err
	}

	if opts.Foreground || !hasDisplay() {
		d.logger.Info("running in foreground mode (no system tray)")
		return d.runForeground()
	}
	d.logger.Info("running in background mode (with system tray)")
	d.runWithTray()
	return nil
}

// start builds every component and starts the engine. The API is not
// served yet.
func start(opts runOptions) (*daemon, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		// A broken settings file must not keep the overlay down.
		settings = models.NewSettings()
		fmt.Fprintf(os.Stderr, "glanced: using default settings: %v\n", err)
	}

	level := settings.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logFile, err := config.DaemonLogFile()
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.New(logging.Options{
		Level:  level,
		Format: settings.Logging.Format,
		File:   logFile,
		Stderr: opts.Foreground,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	d := &daemon{logger: logger, logFile: closer}
	d.ctx, d.cancel = context.WithCancel(context.Background())

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(registry)
	if err != nil {
		d.abort()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	eventsFile, _ := config.GlobalEventsFile()
	credentials, _ := config.GoogleCredentialsFile()
	token, _ := config.GoogleTokenFile()
	plat, backends := platform.New(platform.Options{
		EventsFile:            eventsFile,
		GoogleCredentialsFile: credentials,
		GoogleTokenFile:       token,
		Google:                settings.Calendar.Google,
		CalendarID:            settings.Calendar.CalendarID,
		CalendarLookahead:     settings.Calendar.Lookahead,
		CalendarCacheTTL:      settings.Calendar.CacheTTL,
	})
	d.plat = plat

	d.lp = loop.NewDispatcher(loop.DefaultWorkers, logger)
	d.lp.Start(d.ctx)

	core, err := engine.New(d.lp, backends, engine.Config{
		Settings:           settings,
		Version:            buildinfo.Version,
		Logger:             logger,
		CapabilityObserver: m,
		ChannelObserver:    m,
	})
	if err != nil {
		d.abort()
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}
	d.core = core

	webPort := settings.Server.WebPort
	if opts.WebPort != nil {
		webPort = *opts.WebPort
	}
	srv, err := server.New(core, server.Options{
		Port:     opts.Port,
		WebPort:  webPort,
		Registry: registry,
		Logger:   logger,
	})
	if err != nil {
		d.abort()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	d.srv = srv

	daemonInfo := models.NewDaemonInfo("localhost", srv.Port(), os.Getpid())
	daemonInfo.WebPort = srv.WebPort()
	if err := config.SaveDaemonInfo(daemonInfo); err != nil {
		d.abort()
		return nil, fmt.Errorf("failed to write daemon info: %w", err)
	}

	core.Start(d.ctx)

	w, err := watcher.New("", logger)
	if err == nil {
		err = w.Start()
	}
	if err != nil {
		// Settings still apply on the next start.
		logger.Warn("config watcher unavailable", "error", err)
	} else {
		d.watcher = w
		go d.followConfig()
	}

	if settings.Updates.CheckOnStartup {
		go updates.Run(d.ctx, updates.NewChecker(buildinfo.Version), settingsFile{}, core, logger)
	}

	logger.Info("daemon started", "port", srv.Port(), "web_port", srv.WebPort(), "pid", os.Getpid(), "version", buildinfo.Version)
	return d, nil
}

// followConfig hot-reloads settings and refreshes the calendar when its
// sources change on disk.
func (d *daemon) followConfig() {
	for {
		select {
		case <-d.ctx.Done():
			return
		case ev := <-d.watcher.Events():
			d.handleConfigEvent(ev)
		}
	}
}

func (d *daemon) handleConfigEvent(ev watcher.Event) {
	switch ev.Type {
	case watcher.EventSettingsChanged:
		s, err := config.LoadSettings()
		if err != nil {
			d.logger.Warn("ignoring invalid settings", "path", ev.Path, "error", err)
			return
		}
		d.core.ApplySettings(s)
	case watcher.EventCalendarChanged:
		d.core.RefreshCalendar()
	}
}

// runForeground runs the daemon without a system tray, blocking on signals.
func (d *daemon) runForeground() error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- d.srv.Serve()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var err error
	select {
	case sig := <-sigCh:
		d.logger.Info("received signal, shutting down", "signal", sig.String())
	case err = <-errCh:
		d.logger.Error("server error", "error", err)
	}

	d.shutdown()
	fmt.Println("Daemon stopped")
	return err
}

// runWithTray runs the daemon with a system tray icon on the main goroutine.
func (d *daemon) runWithTray() {
	onStart := func() {
		// Serve gRPC in background
		go func() {
			if err := d.srv.Serve(); err != nil {
				d.logger.Error("server error", "error", err)
				tray.Quit()
			}
		}()

		// Quit tray on SIGINT/SIGTERM
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			d.logger.Info("received signal, shutting down", "signal", sig.String())
			tray.Quit()
		}()
	}

	onExit := func() {
		d.shutdown()
		fmt.Println("Daemon stopped")
	}

	// This blocks the main goroutine until tray exits.
	tray.Run(server.NewTrayState(d.srv), d.logger, onStart, onExit)
}

// shutdown stops the API first so no command races engine teardown, then
// the engine, then the bus connections.
func (d *daemon) shutdown() {
	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.srv != nil {
		d.srv.Stop()
	}
	if d.core != nil {
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		if err := d.core.Stop(ctx); err != nil {
			d.logger.Warn("engine stop", "error", err)
		}
		cancel()
	}
	d.abort()
	if err := config.RemoveDaemonInfo(); err != nil {
		d.logger.Warn("failed to remove daemon info", "error", err)
	}
	d.logger.Info("daemon stopped")
	_ = d.logFile.Close()
}

// abort releases what start acquired before the engine existed.
func (d *daemon) abort() {
	d.cancel()
	if d.lp != nil {
		d.lp.Stop()
	}
	if d.plat != nil {
		if err := d.plat.Close(); err != nil {
			d.logger.Debug("closing buses", "error", err)
		}
	}
}

// hasDisplay reports whether a graphical session is available for the tray.
func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// settingsFile persists update-check state to settings.yaml.
type settingsFile struct{}

func (settingsFile) Load() (*models.Settings, error) { return config.LoadSettings() }

func (settingsFile) Save(s *models.Settings) error { return config.SaveSettings(s) }
