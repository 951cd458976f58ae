package systemd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/smazurov/aurad/internal/events"
)

type recordingHandler struct {
	mu    sync.Mutex
	calls []string
}

func (h *recordingHandler) record(name string, v bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if v {
		name += "(true)"
	} else {
		name += "(false)"
	}
	h.calls = append(h.calls, name)
}

func (h *recordingHandler) OnSleep(start bool)               { h.record("sleep", start) }
func (h *recordingHandler) OnShutdown(start bool)            { h.record("shutdown", start) }
func (h *recordingHandler) OnLidChanged(closed bool)         { h.record("lid", closed) }
func (h *recordingHandler) OnPowerSourceChanged(online bool) { h.record("power", online) }

func (h *recordingHandler) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

type fakeProps struct {
	mu    sync.Mutex
	lid   bool
	power bool
	err   error
}

func (p *fakeProps) LidClosed() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lid, p.err
}

func (p *fakeProps) OnExternalPower() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.power, p.err
}

func (p *fakeProps) set(lid, power bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lid, p.power = lid, power
}

type fakeLock struct {
	closed *int
}

func (f fakeLock) Close() error {
	*f.closed++
	return nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(ev events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func signal(member string, start bool) *dbus.Signal {
	return &dbus.Signal{
		Path: logindPath,
		Name: managerIface + "." + member,
		Body: []any{start},
	}
}

func TestDispatchSleepCycle(t *testing.T) {
	h := &recordingHandler{}
	bus := &recordingBus{}
	l := newLogind(h, &fakeProps{}, testLogger(), WithPublisher(bus))

	taken, released := 0, 0
	l.inhibit = func() (io.Closer, error) {
		taken++
		return fakeLock{closed: &released}, nil
	}

	l.acquireInhibitor()
	l.dispatch(signal(signalSleep, true))
	l.dispatch(signal(signalSleep, false))
	l.dispatch(signal(signalShutdown, true))

	want := []string{"sleep(true)", "sleep(false)", "shutdown(true)"}
	got := h.Calls()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, got[i], want[i])
		}
	}

	if taken != 2 || released != 2 {
		t.Errorf("inhibitor taken %d released %d, want 2 and 2", taken, released)
	}
	if len(bus.events) != 3 {
		t.Fatalf("published %d events, want 3", len(bus.events))
	}
	if ev := bus.events[0].(events.SystemStateEvent); ev.Kind != events.StateSleep || !ev.Active {
		t.Errorf("first event = %+v, want active sleep", ev)
	}
}

func TestDispatchIgnoresMalformedSignals(t *testing.T) {
	h := &recordingHandler{}
	l := newLogind(h, &fakeProps{}, testLogger())

	l.dispatch(nil)
	l.dispatch(&dbus.Signal{Name: managerIface + "." + signalSleep})
	l.dispatch(&dbus.Signal{Name: managerIface + "." + signalSleep, Body: []any{"yes"}})
	l.dispatch(&dbus.Signal{Name: managerIface + ".SessionNew", Body: []any{true}})

	if calls := h.Calls(); len(calls) != 0 {
		t.Errorf("calls = %v, want none", calls)
	}
}

func TestInhibitorFailureIsNotFatal(t *testing.T) {
	h := &recordingHandler{}
	l := newLogind(h, &fakeProps{}, testLogger())
	l.inhibit = func() (io.Closer, error) {
		return nil, errors.New("access denied")
	}

	l.acquireInhibitor()
	l.dispatch(signal(signalSleep, true))

	if calls := h.Calls(); len(calls) != 1 {
		t.Errorf("calls = %v, want one sleep call", calls)
	}
}

func TestPollOnlyReportsChanges(t *testing.T) {
	h := &recordingHandler{}
	props := &fakeProps{power: true}
	l := newLogind(h, props, testLogger(), WithPollInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	props.set(true, false)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(h.Calls()) < 2 {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	l.Stop()

	got := h.Calls()
	want := []string{"lid(true)", "power(false)"}
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestPollIgnoresReadErrors(t *testing.T) {
	h := &recordingHandler{}
	l := newLogind(h, &fakeProps{}, testLogger())

	got := l.pollOnce(true, func() (bool, error) { return false, errors.New("gone") }, events.StateLid, h.OnLidChanged)

	if !got {
		t.Error("pollOnce() changed state on read error")
	}
	if calls := h.Calls(); len(calls) != 0 {
		t.Errorf("calls = %v, want none", calls)
	}
}
