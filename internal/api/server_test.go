package api

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smazurov/aurad/internal/api/models"
	"github.com/smazurov/aurad/internal/aura"
	"github.com/smazurov/aurad/internal/aura/store"
	"github.com/smazurov/aurad/internal/events"
	"github.com/smazurov/aurad/internal/led"
	"github.com/smazurov/aurad/internal/metrics/exporters"
)

type testEnv struct {
	ts         *httptest.Server
	bus        *events.Bus
	node       string
	brightness string
}

func newTestEnv(t *testing.T, withNode bool) *testEnv {
	t.Helper()
	dir := t.TempDir()
	brightness := filepath.Join(dir, "brightness")
	require.NoError(t, os.WriteFile(brightness, []byte("2"), 0o644))

	node := ""
	if withNode {
		node = filepath.Join(dir, "hidraw0")
		require.NoError(t, os.WriteFile(node, nil, 0o644))
	}

	caps := aura.LaptopLedData{Standard: []aura.ModeID{aura.ModeStatic, aura.ModeBreathe, aura.ModePulse}}
	st := store.NewJSON(filepath.Join(dir, "aura.conf"), nil)
	cfg, err := st.Load(&caps)
	require.NoError(t, err)

	dev, err := led.NewSysfsDevice(node, brightness)
	require.NoError(t, err)
	bus := events.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	kbd, err := led.NewKbdLed(dev, st, caps, cfg, bus, logger)
	require.NoError(t, err)

	server := NewServer(&Options{
		AuthUsername:      "admin",
		AuthPassword:      "secret",
		Controller:        led.NewController(kbd),
		EventBus:          bus,
		SysfsRoot:         filepath.Join(dir, "sys"),
		PrometheusHandler: exporters.HTTPHandler(),
	})
	ts := httptest.NewServer(server.GetMux())
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, bus: bus, node: node, brightness: brightness}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth("admin", "secret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthWithoutAuth(t *testing.T) {
	env := newTestEnv(t, true)

	resp, err := http.Get(env.ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health models.HealthData
	decode(t, resp, &health)
	assert.Equal(t, "ok", health.Status)
}

func TestHealthDegradedWithoutNode(t *testing.T) {
	env := newTestEnv(t, false)

	resp, err := http.Get(env.ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health models.HealthData
	decode(t, resp, &health)
	assert.Equal(t, "degraded", health.Status)
}

func TestVersionWithoutAuth(t *testing.T) {
	env := newTestEnv(t, true)

	resp, err := http.Get(env.ts.URL + "/api/version")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var info models.VersionData
	decode(t, resp, &info)
	assert.Equal(t, "aurad", info.Name)
	assert.NotEmpty(t, info.GoVersion)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t, true)

	resp, err := http.Get(env.ts.URL + "/api/aura/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), `realm="aurad"`)

	req, err := http.NewRequest(http.MethodGet, env.ts.URL+"/api/aura/state", nil)
	require.NoError(t, err)
	req.SetBasicAuth("admin", "wrong")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestMetricsEndpointWithoutAuth(t *testing.T) {
	env := newTestEnv(t, true)

	resp, err := http.Get(env.ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBrightnessRoutes(t *testing.T) {
	env := newTestEnv(t, true)

	var b models.BrightnessData
	decode(t, env.do(t, http.MethodGet, "/api/aura/brightness", nil), &b)
	assert.Equal(t, 2, b.Level)
	assert.Equal(t, "Med", b.Name)

	// PUT clamps and does not persist.
	resp := env.do(t, http.MethodPut, "/api/aura/brightness", map[string]any{"level": 7})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &b)
	assert.Equal(t, 3, b.Level)
	assert.Equal(t, int(aura.BrightnessMed), b.Saved)

	// next steps from the saved level and persists.
	resp = env.do(t, http.MethodPost, "/api/aura/brightness/next", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	decode(t, env.do(t, http.MethodGet, "/api/aura/brightness", nil), &b)
	assert.Equal(t, 3, b.Level)
	assert.Equal(t, int(aura.BrightnessHigh), b.Saved)

	resp = env.do(t, http.MethodPost, "/api/aura/brightness/prev", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	decode(t, env.do(t, http.MethodGet, "/api/aura/brightness", nil), &b)
	assert.Equal(t, 2, b.Level)
	assert.Equal(t, int(aura.BrightnessMed), b.Saved)
}

func TestEffectRoutes(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.do(t, http.MethodPut, "/api/aura/effect", models.EffectData{Mode: "Breathe", Colour1: "#010203"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := os.ReadFile(env.node)
	require.NoError(t, err)
	assert.Len(t, data, aura.LedMsgLen)

	var effect models.EffectData
	decode(t, env.do(t, http.MethodGet, "/api/aura/effect", nil), &effect)
	assert.Equal(t, "Breathe", effect.Mode)
	assert.Equal(t, "#010203", effect.Colour1)
	assert.Equal(t, "Med", effect.Speed)

	var modes models.ModesData
	decode(t, env.do(t, http.MethodGet, "/api/aura/modes", nil), &modes)
	assert.Equal(t, "Breathe", modes.Current)
	assert.Len(t, modes.Builtins, 3)

	resp = env.do(t, http.MethodPost, "/api/aura/mode/next", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	decode(t, env.do(t, http.MethodGet, "/api/aura/effect", nil), &effect)
	assert.Equal(t, "Pulse", effect.Mode)

	resp = env.do(t, http.MethodPost, "/api/aura/mode/prev", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	decode(t, env.do(t, http.MethodGet, "/api/aura/effect", nil), &effect)
	assert.Equal(t, "Breathe", effect.Mode)
}

func TestEffectErrors(t *testing.T) {
	tests := []struct {
		name     string
		withNode bool
		body     models.EffectData
		status   int
	}{
		{"unknown mode", true, models.EffectData{Mode: "Disco"}, http.StatusBadRequest},
		{"bad colour", true, models.EffectData{Mode: "Static", Colour1: "red"}, http.StatusBadRequest},
		{"unsupported mode", true, models.EffectData{Mode: "Comet"}, http.StatusBadRequest},
		{"no led node", false, models.EffectData{Mode: "Static"}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.withNode)
			resp := env.do(t, http.MethodPut, "/api/aura/effect", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestPowerRoutes(t *testing.T) {
	env := newTestEnv(t, true)

	states := models.PowerStatesData{BootAnim: true, KeysLeds: true}
	resp := env.do(t, http.MethodPut, "/api/aura/power", states)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got models.PowerStatesData
	decode(t, env.do(t, http.MethodGet, "/api/aura/power", nil), &got)
	assert.Equal(t, states, got)

	var state models.StateData
	decode(t, env.do(t, http.MethodGet, "/api/aura/state", nil), &state)
	assert.Equal(t, states, state.PowerStates)
	require.NotNil(t, state.Effect)
	assert.Equal(t, "Static", state.Effect.Mode)
}

func TestRawAndCapabilities(t *testing.T) {
	env := newTestEnv(t, true)

	rows := [][]byte{{0x5D, 0xBC, 1}, {0x5D, 0xBC, 2}}
	resp := env.do(t, http.MethodPost, "/api/aura/raw", map[string]any{"rows": rows})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	data, err := os.ReadFile(env.node)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x5D, 0xBC, 2}, data)

	var caps models.CapabilitiesData
	decode(t, env.do(t, http.MethodGet, "/api/aura/capabilities", nil), &caps)
	assert.Equal(t, "Unknown", caps.DeviceType)
	assert.Equal(t, env.node, caps.LedNode)
	assert.True(t, caps.Functions.DirectAddress)
	assert.Equal(t, []aura.ModeID{aura.ModeStatic, aura.ModeBreathe, aura.ModePulse}, caps.Functions.Modes)
}

func TestEventsStream(t *testing.T) {
	env := newTestEnv(t, true)

	credentials := base64.StdEncoding.EncodeToString([]byte("admin:secret"))
	resp, err := http.Get(env.ts.URL + "/api/events?auth=" + credentials)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	lines := make(chan string, 32)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	waitFor := func(prefix string) string {
		timeout := time.After(2 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					t.Fatalf("stream closed waiting for %q", prefix)
				}
				if strings.HasPrefix(line, prefix) {
					return line
				}
			case <-timeout:
				t.Fatalf("timeout waiting for %q", prefix)
			}
		}
	}

	waitFor("event: brightness-changed")

	env.bus.Publish(events.SystemStateEvent{Kind: events.StateSleep, Active: true, Timestamp: events.Now()})
	waitFor("event: system-state")
	assert.Contains(t, waitFor("data:"), `"kind":"sleep"`)
}

func TestLogStreamModuleFilter(t *testing.T) {
	env := newTestEnv(t, true)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				env.bus.Publish(events.LogEntryEvent{Module: "store", Level: "warn", Message: "store only"})
				env.bus.Publish(events.LogEntryEvent{Module: "led", Level: "info", Message: "hello from led"})
			}
		}
	}()

	credentials := base64.StdEncoding.EncodeToString([]byte("admin:secret"))
	resp, err := http.Get(env.ts.URL + "/api/logs/stream?module=led&auth=" + credentials)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	found := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data:") {
				found <- line
				return
			}
		}
	}()

	select {
	case line := <-found:
		assert.Contains(t, line, "hello from led")
		assert.NotContains(t, line, "store only")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for a log entry")
	}
}
