package systemd

import (
	"log/slog"

	"github.com/coreos/go-systemd/v22/daemon"
)

// NotifyReady tells the service manager startup is complete.
// It is a no-op when not started by systemd.
func NotifyReady(logger *slog.Logger) {
	notify(daemon.SdNotifyReady, logger)
}

// NotifyStopping tells the service manager shutdown has begun.
func NotifyStopping(logger *slog.Logger) {
	notify(daemon.SdNotifyStopping, logger)
}

func notify(state string, logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logger.Warn("sd_notify failed", "state", state, "error", err)
		return
	}
	if sent {
		logger.Debug("sd_notify sent", "state", state)
	}
}
