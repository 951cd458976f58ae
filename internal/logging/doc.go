// Package logging provides structured logging with per-module log level configuration.
//
// Records go to every available output:
//   - the systemd journal when journald is running, tagged SYSLOG_IDENTIFIER=aurad
//   - stdout when a terminal, pipe, socket or file is attached
//   - an in-memory ring buffer served by the HTTP log stream
//
// Initialize once at startup, then take a logger per module:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"led":   "debug",
//			"watch": "warn",
//		},
//	})
//
//	logger := logging.GetLogger("led")
//	logger.Info("Using device for LED control", "node", node)
//
// Loggers handed out before Initialize keep working and switch to the
// configured outputs and levels when it runs. SetLevels changes levels
// without touching outputs; the daemon calls it when its config file changes.
//
// Modules used by the daemon: main, aura, store, led, watch, systemd, dbus,
// api, http, hotplug, metrics.
//
// Reading the journal:
//
//	journalctl -t aurad -f
//	journalctl -t aurad MODULE=led -p warning
package logging
