package led

import (
	"fmt"
	"slices"

	"github.com/smazurov/aurad/internal/aura"
	"github.com/smazurov/aurad/internal/events"
	"github.com/smazurov/aurad/internal/logging"
	"github.com/smazurov/aurad/internal/metrics"
)

// ConfigStore persists the LED configuration.
type ConfigStore interface {
	Read(cfg *aura.Config) error
	Write(cfg *aura.Config) error
}

// Publisher receives state change events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ev events.Event)
}

// KbdLed is the keyboard LED state machine. Its methods are not safe for
// concurrent use; Controller serializes access.
type KbdLed struct {
	dev    Device
	store  ConfigStore
	caps   aura.LaptopLedData
	config *aura.Config
	bus    Publisher
	logger logging.Logger

	// flipEffectWrite reverses the row order of the next direct upload.
	// The keyboard expects successive custom effects in alternating order.
	flipEffectWrite bool
}

// NewKbdLed creates the state machine around a loaded config.
func NewKbdLed(dev Device, store ConfigStore, caps aura.LaptopLedData, cfg *aura.Config, bus Publisher, logger logging.Logger) (*KbdLed, error) {
	if dev == nil {
		return nil, aura.NewError(aura.KindCapabilityMissing, "no keyboard brightness control", nil)
	}
	if cfg == nil {
		cfg = aura.NewDefaultConfig(&caps)
	}
	return &KbdLed{
		dev:    dev,
		store:  store,
		caps:   caps,
		config: cfg,
		bus:    bus,
		logger: logger,
	}, nil
}

// Config returns the live config. Callers must not keep it past the
// Controller callback.
func (k *KbdLed) Config() *aura.Config {
	return k.config
}

// Capabilities returns the capability descriptor.
func (k *KbdLed) Capabilities() aura.LaptopLedData {
	return k.caps
}

// Device returns the write channel.
func (k *KbdLed) Device() Device {
	return k.dev
}

// Brightness reads the level currently set on the hardware.
func (k *KbdLed) Brightness() (aura.LedBrightness, error) {
	return k.dev.ReadBrightness()
}

// SetBrightness writes the level to the hardware without touching the config.
func (k *KbdLed) SetBrightness(level aura.LedBrightness) error {
	err := k.dev.SetBrightness(level)
	metrics.ObserveDeviceWrite(metrics.WriteBrightness, err)
	return err
}

// NextBrightness steps the brightness up, wrapping High to Off.
func (k *KbdLed) NextBrightness() error {
	return k.stepBrightness(k.config.Brightness.Next())
}

// PrevBrightness steps the brightness down, wrapping Off to High.
func (k *KbdLed) PrevBrightness() error {
	return k.stepBrightness(k.config.Brightness.Prev())
}

// stepBrightness persists before applying. A failed device write leaves the
// file ahead of the hardware.
func (k *KbdLed) stepBrightness(level aura.LedBrightness) error {
	k.config.Brightness = level
	k.persist()
	k.publish(events.BrightnessChangedEvent{Brightness: level, Source: events.SourceUser, Timestamp: events.Now()})
	return k.SetBrightness(level)
}

// WriteMode sends an effect followed by SET and APPLY. Modes or zones the
// keyboard does not support are rejected before anything is written.
func (k *KbdLed) WriteMode(e aura.Effect) error {
	if !k.caps.SupportsMode(e.Mode) {
		return aura.NewError(aura.KindNotSupported, fmt.Sprintf("mode %s is not supported by this keyboard", e.Mode), nil)
	}
	if !k.caps.SupportsZone(e.Zone) {
		return aura.NewError(aura.KindNotSupported, fmt.Sprintf("zone %s is not supported by this keyboard", e.Zone), nil)
	}

	msg := e.Packet()
	if err := k.writeBytes(metrics.WriteEffect, msg[:]); err != nil {
		return err
	}
	return k.commit()
}

// SetAndSave applies a user-chosen effect: re-read the file, write the
// effect, make it current, store it and persist.
func (k *KbdLed) SetAndSave(e aura.Effect) error {
	if err := k.store.Read(k.config); err != nil {
		return err
	}
	if err := k.WriteMode(e); err != nil {
		return err
	}
	k.config.CurrentMode = e.Mode
	k.config.SetBuiltin(e)
	k.persist()
	k.publish(events.EffectChangedEvent{Effect: e, Timestamp: events.Now()})
	return nil
}

// ToggleMode moves to the next or previous standard mode. It does nothing
// when the current mode is not in the capability list. The stored effect of
// the target mode is reused as is.
func (k *KbdLed) ToggleMode(reverse bool) error {
	modes := k.caps.Standard
	idx := slices.Index(modes, k.config.CurrentMode)
	if idx < 0 {
		return nil
	}
	if reverse {
		idx = (idx + len(modes) - 1) % len(modes)
	} else {
		idx = (idx + 1) % len(modes)
	}
	next := modes[idx]

	if err := k.store.Read(k.config); err != nil {
		return err
	}
	effect, ok := k.config.Builtins[next]
	if ok {
		if err := k.WriteMode(effect); err != nil {
			return err
		}
		k.config.CurrentMode = next
	}
	k.persist()
	if ok {
		k.publish(events.EffectChangedEvent{Effect: effect, Timestamp: events.Now()})
	}
	return nil
}

// ApplyPowerStates writes the configured power flags followed by SET and APPLY.
func (k *KbdLed) ApplyPowerStates() error {
	msg := k.config.PowerStates.Packet()
	if err := k.writeBytes(metrics.WritePower, msg[:]); err != nil {
		return err
	}
	return k.commit()
}

// SetPowerStates stores new power flags, persists them and applies them.
func (k *KbdLed) SetPowerStates(states aura.PowerStates) error {
	if err := k.store.Read(k.config); err != nil {
		return err
	}
	k.config.PowerStates = states
	k.persist()
	if err := k.ApplyPowerStates(); err != nil {
		return err
	}
	k.publish(events.PowerStatesChangedEvent{PowerStates: states, Timestamp: events.Now()})
	return nil
}

// WriteEffectBlock uploads raw per-key packets. Rows go out in forward
// order, then reversed on the next successful call, alternating. A failed
// upload keeps the direction of the next one unchanged.
func (k *KbdLed) WriteEffectBlock(rows [][]byte) error {
	reverse := k.flipEffectWrite
	for i := range rows {
		row := rows[i]
		if reverse {
			row = rows[len(rows)-1-i]
		}
		if err := k.writeBytes(metrics.WriteRaw, row); err != nil {
			return err
		}
	}
	k.flipEffectWrite = !k.flipEffectWrite
	return nil
}

// WriteCurrentMode re-sends the builtin effect of the current mode.
func (k *KbdLed) WriteCurrentMode() error {
	effect, ok := k.config.CurrentEffect()
	if !ok {
		return nil
	}
	return k.WriteMode(effect)
}

// SaveHardwareBrightness copies the hardware brightness into the config
// file if the file holds a different level. It reports whether the config
// changed.
func (k *KbdLed) SaveHardwareBrightness(source string) (bool, error) {
	level, err := k.dev.ReadBrightness()
	if err != nil {
		return false, err
	}
	return k.StoreBrightness(level, source)
}

// StoreBrightness re-reads the config file and persists an observed
// brightness level if it differs from the stored one.
func (k *KbdLed) StoreBrightness(level aura.LedBrightness, source string) (bool, error) {
	if err := k.store.Read(k.config); err != nil {
		return false, err
	}
	if level == k.config.Brightness {
		return false, nil
	}
	k.config.Brightness = level
	k.persist()
	k.publish(events.BrightnessChangedEvent{Brightness: level, Source: source, Timestamp: events.Now()})
	return true, nil
}

// RestoreState re-applies the persisted brightness and current mode. Both
// writes are attempted; the first error is returned.
func (k *KbdLed) RestoreState() error {
	brightErr := k.SetBrightness(k.config.Brightness)
	if brightErr != nil {
		k.logError("Failed to restore brightness", brightErr)
	}
	modeErr := k.WriteCurrentMode()
	if modeErr != nil {
		k.logError("Failed to restore mode", modeErr)
	}
	if brightErr != nil {
		return brightErr
	}
	return modeErr
}

// Reload re-applies the current mode through SetAndSave and then the power
// states.
func (k *KbdLed) Reload() error {
	var modeErr error
	if effect, ok := k.config.CurrentEffect(); ok {
		modeErr = k.SetAndSave(effect)
	}
	if err := k.ApplyPowerStates(); err != nil {
		k.logWarn("Failed to apply power states", err)
	}
	return modeErr
}

// SetLedNode points the write channel at a new hidraw node.
func (k *KbdLed) SetLedNode(path string) bool {
	d, ok := k.dev.(*SysfsDevice)
	if !ok {
		return false
	}
	d.SetLedNode(path)
	return true
}

// Functions summarises what this keyboard can do.
func (k *KbdLed) Functions() aura.SupportedFunctions {
	return k.caps.Functions(k.dev.HasLedNode())
}

func (k *KbdLed) commit() error {
	if err := k.writeBytes(metrics.WriteSet, aura.LedSet[:]); err != nil {
		return err
	}
	return k.writeBytes(metrics.WriteApply, aura.LedApply[:])
}

func (k *KbdLed) writeBytes(kind string, msg []byte) error {
	err := k.dev.WriteBytes(msg)
	metrics.ObserveDeviceWrite(kind, err)
	if err != nil {
		return fmt.Errorf("%s packet: %w", kind, err)
	}
	return nil
}

// persist writes the config. Failures are logged, not returned.
func (k *KbdLed) persist() {
	err := k.store.Write(k.config)
	metrics.ObserveConfigWrite(err)
	metrics.SetBrightness(int(k.config.Brightness))
	if err != nil {
		k.logError("Failed to write config", err)
	}
}

func (k *KbdLed) publish(ev events.Event) {
	if k.bus != nil {
		k.bus.Publish(ev)
	}
}

func (k *KbdLed) logError(msg string, err error) {
	if k.logger != nil {
		k.logger.Error(msg, "error", err)
	}
}

func (k *KbdLed) logWarn(msg string, err error) {
	if k.logger != nil {
		k.logger.Warn(msg, "error", err)
	}
}
