package events

import (
	"time"

	"github.com/smazurov/aurad/internal/aura"
	"github.com/smazurov/aurad/internal/logging"
)

// Event type constants for kelindar/event.
const (
	TypeEffectChanged uint32 = iota + 1
	TypePowerStatesChanged
	TypeBrightnessChanged
	TypeSystemState
	TypeDeviceHotplug
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// EffectChangedEvent is published after a new effect reached the keyboard.
type EffectChangedEvent struct {
	Effect    aura.Effect `json:"effect" doc:"Effect now shown on the keyboard"`
	Timestamp string      `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for EffectChangedEvent.
func (e EffectChangedEvent) Type() uint32 { return TypeEffectChanged }

// PowerStatesChangedEvent carries the full set of LED power flags after a change.
type PowerStatesChangedEvent struct {
	PowerStates aura.PowerStates `json:"power_states" doc:"LED power flags"`
	Timestamp   string           `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PowerStatesChangedEvent.
func (e PowerStatesChangedEvent) Type() uint32 { return TypePowerStatesChanged }

// Sources of a brightness change.
const (
	SourceUser     = "user"
	SourceWatch    = "watch"
	SourceSleep    = "sleep"
	SourceShutdown = "shutdown"
)

// BrightnessChangedEvent is published when the persisted brightness changes.
type BrightnessChangedEvent struct {
	Brightness aura.LedBrightness `json:"brightness" example:"2" doc:"Brightness level 0-3"`
	Source     string             `json:"source" example:"user" doc:"What changed it: user, watch, sleep or shutdown"`
	Timestamp  string             `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for BrightnessChangedEvent.
func (e BrightnessChangedEvent) Type() uint32 { return TypeBrightnessChanged }

// System state kinds.
const (
	StateSleep       = "sleep"
	StateShutdown    = "shutdown"
	StateLid         = "lid"
	StatePowerSource = "power_source"
)

// SystemStateEvent reports a logind transition.
type SystemStateEvent struct {
	Kind      string `json:"kind" example:"sleep" doc:"sleep, shutdown, lid or power_source"`
	Active    bool   `json:"active" doc:"Entering sleep or shutdown, lid closed, or on external power"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SystemStateEvent.
func (e SystemStateEvent) Type() uint32 { return TypeSystemState }

// DeviceHotplugEvent reports a hidraw node appearing or going away.
type DeviceHotplugEvent struct {
	Action    string `json:"action" example:"add" doc:"Kernel uevent action"`
	DevName   string `json:"devname" example:"hidraw2" doc:"Kernel device name"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DeviceHotplugEvent.
func (e DeviceHotplugEvent) Type() uint32 { return TypeDeviceHotplug }

// LogEntryEvent mirrors one log record for the HTTP log stream.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Position in the daemon's log buffer"`
	Timestamp  string         `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Record timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"led" doc:"Module that logged it"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

// NewLogEntryEvent converts a buffered log entry.
func NewLogEntryEvent(entry logging.LogEntry) LogEntryEvent {
	return LogEntryEvent{
		Seq:        entry.Seq,
		Timestamp:  entry.Timestamp.UTC().Format(time.RFC3339Nano),
		Level:      entry.Level,
		Module:     entry.Module,
		Message:    entry.Message,
		Attributes: entry.Attributes,
	}
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
