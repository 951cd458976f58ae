package led

import (
	"log/slog"
	"strings"

	"github.com/smazurov/aurad/internal/aura"
	"github.com/smazurov/aurad/internal/events"
	"github.com/smazurov/aurad/internal/metrics"
	"github.com/smazurov/aurad/internal/watch"
)

// Manager connects system events to the controller.
//
//	sleep start       save hardware brightness (blocking)
//	sleep end         restore brightness and current mode (blocking)
//	shutdown start    save hardware brightness (blocking)
//	lid, power source no action
//	brightness write  save observed brightness, skipped if busy
//	hidraw hotplug    re-resolve led node, reload on change
type Manager struct {
	controller  *Controller
	eventBus    *events.Bus
	findLedNode func() (string, error)
	unsubscribe func()
	logger      *slog.Logger
}

// NewManager creates a manager. findLedNode may be nil to ignore hotplug.
func NewManager(controller *Controller, eventBus *events.Bus, findLedNode func() (string, error), logger *slog.Logger) *Manager {
	return &Manager{
		controller:  controller,
		eventBus:    eventBus,
		findLedNode: findLedNode,
		logger:      logger,
	}
}

// Start subscribes to hotplug events.
func (m *Manager) Start() {
	if m.eventBus != nil && m.findLedNode != nil {
		m.unsubscribe = m.eventBus.Subscribe(func(e events.DeviceHotplugEvent) {
			m.handleHotplug(e)
		})
	}
	m.logger.Info("LED manager started")
}

// Stop unsubscribes from events.
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.logger.Info("LED manager stopped")
}

// Reload re-applies the current mode and power states.
func (m *Manager) Reload() error {
	return m.controller.Do(func(k *KbdLed) error {
		return k.Reload()
	})
}

// OnSleep handles logind PrepareForSleep.
func (m *Manager) OnSleep(start bool) {
	metrics.IncSystemEvent(events.StateSleep)
	if start {
		m.saveBrightness(events.SourceSleep)
		return
	}

	m.logger.Info("Resuming, restoring brightness and mode")
	err := m.controller.Do(func(k *KbdLed) error {
		return k.RestoreState()
	})
	if err != nil {
		m.logger.Error("Failed to restore LED state", "error", err)
	}
}

// OnShutdown handles logind PrepareForShutdown.
func (m *Manager) OnShutdown(start bool) {
	metrics.IncSystemEvent(events.StateShutdown)
	if start {
		m.saveBrightness(events.SourceShutdown)
	}
}

// OnLidChanged handles lid open and close.
func (m *Manager) OnLidChanged(closed bool) {
	metrics.IncSystemEvent(events.StateLid)
	m.logger.Debug("Lid state changed", "closed", closed)
}

// OnPowerSourceChanged handles AC plug and unplug.
func (m *Manager) OnPowerSourceChanged(online bool) {
	metrics.IncSystemEvent(events.StatePowerSource)
	m.logger.Debug("Power source changed", "online", online)
}

// StoreObservedBrightness persists a brightness read from the node if the
// controller is free. It reports false when it skipped.
func (m *Manager) StoreObservedBrightness(level aura.LedBrightness) (bool, error) {
	var changed bool
	acquired, err := m.controller.TryDo(func(k *KbdLed) error {
		var storeErr error
		changed, storeErr = k.StoreBrightness(level, events.SourceWatch)
		return storeErr
	})
	if !acquired {
		metrics.IncWatchSkip()
		m.logger.Debug("Controller busy, skipping brightness change", "brightness", level)
		return false, nil
	}
	return changed, err
}

// WatchBrightness returns a watcher that feeds brightness node changes
// into StoreObservedBrightness.
func (m *Manager) WatchBrightness(path string, logger *slog.Logger, opts ...watch.Option[aura.LedBrightness]) *watch.Watcher[aura.LedBrightness] {
	return watch.New(path, func() (aura.LedBrightness, error) {
		return readBrightness(path)
	}, m.StoreObservedBrightness, logger, opts...)
}

func (m *Manager) saveBrightness(source string) {
	m.logger.Info("Saving keyboard brightness")
	err := m.controller.Do(func(k *KbdLed) error {
		_, err := k.SaveHardwareBrightness(source)
		return err
	})
	if err != nil {
		m.logger.Error("Failed to save brightness", "error", err)
	}
}

func (m *Manager) handleHotplug(e events.DeviceHotplugEvent) {
	if !strings.HasPrefix(e.DevName, "hidraw") {
		return
	}

	node, err := m.findLedNode()
	if err != nil {
		m.logger.Debug("No keyboard LED node after hotplug", "action", e.Action, "error", err)
		node = ""
	}

	var changed bool
	err = m.controller.Do(func(k *KbdLed) error {
		d, ok := k.Device().(*SysfsDevice)
		if !ok || d.LedNode() == node {
			return nil
		}
		k.SetLedNode(node)
		changed = true
		if node == "" {
			return nil
		}
		return k.Reload()
	})
	if changed {
		m.logger.Info("Keyboard LED node changed", "action", e.Action, "node", node)
	}
	if err != nil {
		m.logger.Error("Failed to reload after hotplug", "error", err)
	}
}
