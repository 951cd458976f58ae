package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/aurad/cmd"
	"github.com/smazurov/aurad/internal/api"
	"github.com/smazurov/aurad/internal/aura"
	"github.com/smazurov/aurad/internal/config"
	"github.com/smazurov/aurad/internal/dbusapi"
	"github.com/smazurov/aurad/internal/events"
	"github.com/smazurov/aurad/internal/led"
	"github.com/smazurov/aurad/internal/logging"
	"github.com/smazurov/aurad/internal/metrics/exporters"
	"github.com/smazurov/aurad/internal/systemd"
	"github.com/smazurov/aurad/internal/version"
	"github.com/smazurov/aurad/internal/watch"
	"github.com/smazurov/aurad/pkg/hotplug"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config  string `help:"Path to configuration file" short:"c" default:"/etc/aurad/aurad.toml"`
	EnvFile string `help:"Dotenv file loaded before the config" default:"/etc/aurad/aurad.env"`

	// Keyboard settings
	AuraConfigPath string `help:"Persisted keyboard state" default:"/etc/asusd/aura.conf" toml:"aura.config_path" env:"AURA_CONFIG_PATH"`
	LedModesPath   string `help:"LED modes database" default:"/etc/asusd/asusd-ledmodes.toml" toml:"aura.ledmodes_path" env:"AURA_LEDMODES_PATH"`
	BrightnessPath string `help:"Keyboard backlight brightness attribute" default:"/sys/class/leds/asus::kbd_backlight/brightness" toml:"aura.brightness_path" env:"AURA_BRIGHTNESS_PATH"`
	SysfsRoot      string `help:"sysfs mount point" default:"/sys" toml:"aura.sysfs_root" env:"AURA_SYSFS_ROOT"`
	DevRoot        string `help:"Device node directory" default:"/dev" toml:"aura.dev_root" env:"AURA_DEV_ROOT"`

	// Integrations
	DBusEnabled        bool   `help:"Export org.asuslinux.Daemon on the system bus" default:"true" toml:"dbus.enabled" env:"DBUS_ENABLED"`
	LogindEnabled      bool   `help:"Follow logind sleep, shutdown, lid and power source" default:"true" toml:"logind.enabled" env:"LOGIND_ENABLED"`
	LogindPollInterval string `help:"Lid and power source poll interval" default:"2s" toml:"logind.poll_interval" env:"LOGIND_POLL_INTERVAL"`
	HotplugEnabled     bool   `help:"Re-resolve the LED node on hidraw hotplug" default:"true" toml:"hotplug.enabled" env:"HOTPLUG_ENABLED"`
	WatchBrightness    bool   `help:"Persist brightness changed outside the daemon" default:"true" toml:"watch.brightness" env:"WATCH_BRIGHTNESS"`
	WatchDebounce      string `help:"Debounce for attribute and config file changes" default:"250ms" toml:"watch.debounce" env:"WATCH_DEBOUNCE"`

	// HTTP API settings
	APIEnabled     bool   `help:"Serve the HTTP API" default:"false" toml:"api.enabled" env:"API_ENABLED"`
	APIAddr        string `help:"HTTP listen address" default:"127.0.0.1:8091" toml:"api.addr" env:"API_ADDR"`
	MetricsEnabled bool   `help:"Expose Prometheus metrics on /metrics" default:"true" toml:"api.metrics_enabled" env:"API_METRICS_ENABLED"`

	// Auth settings
	AuthUsername string `help:"Basic auth username, empty disables auth" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingLed     string `help:"LED controller logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
	LoggingStore   string `help:"Config store logging level" default:"info" toml:"logging.store" env:"LOGGING_STORE"`
	LoggingDBus    string `help:"D-Bus logging level" default:"info" toml:"logging.dbus" env:"LOGGING_DBUS"`
	LoggingSystemd string `help:"logind and notify logging level" default:"info" toml:"logging.systemd" env:"LOGGING_SYSTEMD"`
	LoggingWatch   string `help:"File watcher logging level" default:"info" toml:"logging.watch" env:"LOGGING_WATCH"`
	LoggingHotplug string `help:"Hotplug logging level" default:"info" toml:"logging.hotplug" env:"LOGGING_HOTPLUG"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if envErr := config.LoadEnvFile(opts.EnvFile); envErr != nil {
			slog.Warn("Failed to load env file", "error", envErr)
		}
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Error("Invalid configuration", "error", loadErr)
			os.Exit(1)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"led":     opts.LoggingLed,
				"store":   opts.LoggingStore,
				"dbus":    opts.LoggingDBus,
				"systemd": opts.LoggingSystemd,
				"watch":   opts.LoggingWatch,
				"hotplug": opts.LoggingHotplug,
				"api":     opts.LoggingAPI,
			},
		})

		logger := logging.GetLogger("main")
		logger.Info("Starting " + version.Banner())

		eventBus := events.New()
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.NewLogEntryEvent(entry))
		})

		ledLogger := logging.GetLogger("led")
		ctrl, err := led.New(led.Options{
			SysfsRoot:      opts.SysfsRoot,
			DevRoot:        opts.DevRoot,
			BrightnessPath: opts.BrightnessPath,
			ConfigPath:     opts.AuraConfigPath,
			LedModesPath:   opts.LedModesPath,
		}, eventBus, ledLogger)
		if err != nil {
			logger.Error("Failed to initialize keyboard", "error", err)
			os.Exit(1)
		}

		findLedNode := func() (string, error) {
			return led.FindLedNode(opts.SysfsRoot, opts.DevRoot, led.KnownProductIDs)
		}
		ledManager := led.NewManager(ctrl, eventBus, findLedNode, ledLogger)

		debounce := parseDuration(opts.WatchDebounce, watch.DefaultDebounce)
		watchLogger := logging.GetLogger("watch")

		var server *api.Server
		if opts.APIEnabled {
			apiOpts := &api.Options{
				AuthUsername: opts.AuthUsername,
				AuthPassword: opts.AuthPassword,
				Controller:   ctrl,
				EventBus:     eventBus,
				SysfsRoot:    opts.SysfsRoot,
			}
			if opts.MetricsEnabled {
				apiOpts.PrometheusHandler = exporters.HTTPHandler()
			}
			server = api.NewServer(apiOpts)
		}

		ctx, cancel := context.WithCancel(context.Background())
		var (
			stopMu sync.Mutex
			stops  []func()
		)
		onStop := func(fn func()) {
			stopMu.Lock()
			stops = append(stops, fn)
			stopMu.Unlock()
		}

		hooks.OnStart(func() {
			ledManager.Start()
			onStop(ledManager.Stop)

			if reloadErr := ledManager.Reload(); reloadErr != nil {
				logger.Warn("Failed to apply saved keyboard state", "error", reloadErr)
			}

			if opts.WatchBrightness {
				w := ledManager.WatchBrightness(opts.BrightnessPath, watchLogger,
					watch.WithDebounce[aura.LedBrightness](debounce))
				if startErr := w.Start(); startErr != nil {
					logger.Warn("Failed to watch keyboard brightness", "path", opts.BrightnessPath, "error", startErr)
				} else {
					onStop(func() { _ = w.Stop() })
				}
			}

			if opts.Config != "" {
				w := watch.New(opts.Config, func() (logging.Config, error) {
					return config.ReadLoggingConfig(opts.Config)
				}, func(cfg logging.Config) (bool, error) {
					logging.SetLevels(cfg)
					return true, nil
				}, watchLogger,
					watch.WithDebounce[logging.Config](debounce),
					watch.WithReplaceFollow[logging.Config]())
				w.OnChange(func(cfg logging.Config) {
					logger.Info("Logging levels reloaded", "level", cfg.Level, "modules", cfg.Modules)
				})
				if startErr := w.Start(); startErr != nil {
					logger.Debug("Config file not watched", "path", opts.Config, "error", startErr)
				} else {
					onStop(func() { _ = w.Stop() })
				}
			}

			if opts.LogindEnabled {
				systemdLogger := logging.GetLogger("systemd")
				logind, logindErr := systemd.NewLogind(ledManager, systemdLogger,
					systemd.WithPollInterval(parseDuration(opts.LogindPollInterval, systemd.DefaultPollInterval)),
					systemd.WithPublisher(eventBus))
				if logindErr == nil {
					logindErr = logind.Start(ctx)
				}
				if logindErr != nil {
					logger.Warn("logind integration unavailable", "error", logindErr)
				} else {
					onStop(logind.Stop)
				}
			}

			if opts.HotplugEnabled {
				startHotplug(ctx, eventBus, logging.GetLogger("hotplug"))
			}

			if opts.DBusEnabled {
				dbusServer := dbusapi.NewServer(ctrl, eventBus, opts.SysfsRoot, logging.GetLogger("dbus"))
				if startErr := dbusServer.Start(); startErr != nil {
					logger.Error("Failed to start D-Bus interface", "error", startErr)
					os.Exit(1)
				}
				onStop(dbusServer.Stop)
			}

			systemd.NotifyReady(logger)

			if server == nil {
				<-ctx.Done()
				return
			}
			if startErr := server.Start(opts.APIAddr); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			systemd.NotifyStopping(logger)

			if server != nil {
				if stopErr := server.Stop(); stopErr != nil {
					logger.Error("Error stopping HTTP server", "error", stopErr)
				}
			}
			cancel()

			stopMu.Lock()
			for i := len(stops) - 1; i >= 0; i-- {
				stops[i]()
			}
			stops = nil
			stopMu.Unlock()
			logging.SetLogCallback(nil)
		})
	})

	cli.Root().Use = version.Name
	cli.Root().Short = "ASUS keyboard LED daemon"
	cli.Root().Version = version.Banner()
	cli.Root().SetVersionTemplate("{{.Version}}\n")

	cli.Root().AddCommand(cmd.CreateLedCmd())
	cli.Root().AddCommand(cmd.CreateLedModesCmd())

	cli.Run()
}

// startHotplug publishes hidraw uevents until ctx is cancelled.
func startHotplug(ctx context.Context, bus *events.Bus, logger *slog.Logger) {
	monitor, err := hotplug.NewMonitor(hotplug.SubsystemHidraw)
	if err != nil {
		logger.Warn("Hotplug monitoring unavailable", "error", err)
		return
	}
	logger.Info("Hotplug monitor started", "subsystem", hotplug.SubsystemHidraw)

	go func() {
		defer monitor.Close()
		runErr := monitor.Run(ctx, func(ev hotplug.Event) {
			if ev.Action != hotplug.ActionAdd && ev.Action != hotplug.ActionRemove {
				return
			}
			logger.Debug("hidraw uevent", "action", ev.Action, "devname", ev.DevName)
			bus.Publish(events.DeviceHotplugEvent{
				Action:    ev.Action,
				DevName:   ev.DevName,
				Timestamp: events.Now(),
			})
		})
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			logger.Error("Hotplug monitor stopped", "error", runErr)
		}
	}()
}
