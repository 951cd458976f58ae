// Package metrics provides Prometheus metrics for the keyboard LED controller.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Device write kinds.
const (
	WriteEffect     = "effect"
	WriteSet        = "set"
	WriteApply      = "apply"
	WritePower      = "power"
	WriteRaw        = "raw"
	WriteBrightness = "brightness"
)

var (
	deviceWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aurad",
		Subsystem: "device",
		Name:      "writes_total",
		Help:      "Packets and brightness values written to the keyboard",
	}, []string{"kind"})

	deviceWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aurad",
		Subsystem: "device",
		Name:      "write_failures_total",
		Help:      "Failed writes to the keyboard",
	}, []string{"kind"})

	configWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aurad",
		Subsystem: "config",
		Name:      "writes_total",
		Help:      "Config file writes by result",
	}, []string{"result"})

	watchSkips = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aurad",
		Subsystem: "watch",
		Name:      "skipped_total",
		Help:      "Brightness node changes skipped because the controller was busy",
	})

	systemEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aurad",
		Subsystem: "system",
		Name:      "events_total",
		Help:      "logind transitions handled",
	}, []string{"kind"})

	brightnessLevel = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "aurad",
		Subsystem: "led",
		Name:      "brightness",
		Help:      "Persisted keyboard brightness level",
	})

	// Local copy of the counters for the status endpoint.
	snapshot   Snapshot
	snapshotMu sync.RWMutex
)

// Snapshot holds current metric values.
type Snapshot struct {
	DeviceWrites        uint64 `json:"device_writes"`
	DeviceWriteFailures uint64 `json:"device_write_failures"`
	ConfigWrites        uint64 `json:"config_writes"`
	ConfigWriteFailures uint64 `json:"config_write_failures"`
	WatchSkips          uint64 `json:"watch_skips"`
	Brightness          int    `json:"brightness"`
}

// ObserveDeviceWrite records one device write of the given kind.
func ObserveDeviceWrite(kind string, err error) {
	if err != nil {
		deviceWriteFailures.WithLabelValues(kind).Inc()
		update(func(s *Snapshot) { s.DeviceWriteFailures++ })
		return
	}
	deviceWrites.WithLabelValues(kind).Inc()
	update(func(s *Snapshot) { s.DeviceWrites++ })
}

// ObserveConfigWrite records one config file write.
func ObserveConfigWrite(err error) {
	if err != nil {
		configWrites.WithLabelValues("error").Inc()
		update(func(s *Snapshot) { s.ConfigWriteFailures++ })
		return
	}
	configWrites.WithLabelValues("ok").Inc()
	update(func(s *Snapshot) { s.ConfigWrites++ })
}

// IncWatchSkip records a brightness change that was dropped.
func IncWatchSkip() {
	watchSkips.Inc()
	update(func(s *Snapshot) { s.WatchSkips++ })
}

// IncSystemEvent records a handled logind transition.
func IncSystemEvent(kind string) {
	systemEvents.WithLabelValues(kind).Inc()
}

// SetBrightness records the persisted brightness level.
func SetBrightness(level int) {
	brightnessLevel.Set(float64(level))
	update(func(s *Snapshot) { s.Brightness = level })
}

// Get returns a copy of the current values.
func Get() Snapshot {
	snapshotMu.RLock()
	defer snapshotMu.RUnlock()
	return snapshot
}

func update(fn func(*Snapshot)) {
	snapshotMu.Lock()
	defer snapshotMu.Unlock()
	fn(&snapshot)
}
