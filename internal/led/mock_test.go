package led

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smazurov/aurad/internal/aura"
	"github.com/smazurov/aurad/internal/aura/store"
	"github.com/smazurov/aurad/internal/events"
)

var errInjected = errors.New("injected write failure")

// mockDevice records every write instead of touching hardware.
type mockDevice struct {
	mu               sync.Mutex
	writes           [][]byte
	brightness       aura.LedBrightness
	brightnessWrites []aura.LedBrightness
	calls            []string
	failWriteAt      int // 1-based WriteBytes call to fail, 0 never
	failBrightness   bool
	noLedNode        bool
}

func (d *mockDevice) WriteBytes(msg []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.noLedNode {
		return aura.NewError(aura.KindCapabilityMissing, "no led node", nil)
	}
	d.writes = append(d.writes, append([]byte(nil), msg...))
	d.calls = append(d.calls, "bytes")
	if d.failWriteAt > 0 && len(d.writes) == d.failWriteAt {
		return errInjected
	}
	return nil
}

func (d *mockDevice) ReadBrightness() (aura.LedBrightness, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.brightness, nil
}

func (d *mockDevice) SetBrightness(level aura.LedBrightness) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "brightness")
	if d.failBrightness {
		return errInjected
	}
	d.brightness = level
	d.brightnessWrites = append(d.brightnessWrites, level)
	return nil
}

func (d *mockDevice) HasLedNode() bool {
	return !d.noLedNode
}

func (d *mockDevice) Writes() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]byte(nil), d.writes...)
}

// recordingBus collects published events synchronously.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(ev events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

func (b *recordingBus) Events() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.events...)
}

type testRig struct {
	kbd   *KbdLed
	dev   *mockDevice
	store *store.JSONStore
	bus   *recordingBus
}

func standardCaps() aura.LaptopLedData {
	return aura.LaptopLedData{Standard: []aura.ModeID{aura.ModeStatic, aura.ModeBreathe, aura.ModeRainbow}}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newRig(t *testing.T, caps aura.LaptopLedData) *testRig {
	t.Helper()
	st := store.NewJSON(filepath.Join(t.TempDir(), "aura.conf"), nil)
	cfg, err := st.Load(&caps)
	require.NoError(t, err)

	dev := &mockDevice{brightness: cfg.Brightness}
	bus := &recordingBus{}
	kbd, err := NewKbdLed(dev, st, caps, cfg, bus, newTestLogger())
	require.NoError(t, err)
	return &testRig{kbd: kbd, dev: dev, store: st, bus: bus}
}

// persisted reads the config file back.
func (r *testRig) persisted(t *testing.T) *aura.Config {
	t.Helper()
	cfg := aura.NewConfig()
	require.NoError(t, r.store.Read(cfg))
	return cfg
}
