package watch

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeValue(t *testing.T, path, value string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(value), 0o644))
}

func newAttribute(t *testing.T, value string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "brightness")
	writeValue(t, path, value)
	return path
}

func readInt(path string) func() (int, error) {
	return func() (int, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, err
		}
		return strconv.Atoi(strings.TrimSpace(string(data)))
	}
}

func accept(int) (bool, error) { return true, nil }

func startWatcher[T any](t *testing.T, w *Watcher[T]) {
	t.Helper()
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })
	// inotify watch is in place once Start returns; give the loop a moment.
	time.Sleep(20 * time.Millisecond)
}

// offer never blocks the watcher loop, so Stop in cleanup cannot hang.
func offer[T any](ch chan<- T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func waitValue[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for watcher")
		var zero T
		return zero
	}
}

func TestWatcherStoresThenNotifies(t *testing.T) {
	path := newAttribute(t, "1")

	var stored atomic.Int64
	notified := make(chan int, 1)
	w := New(path, readInt(path), func(v int) (bool, error) {
		stored.Store(int64(v))
		return true, nil
	}, quietLogger(), WithDebounce[int](20*time.Millisecond))
	w.OnChange(func(v int) { offer(notified, v) })
	startWatcher(t, w)

	writeValue(t, path, "3")

	assert.Equal(t, 3, waitValue(t, notified))
	assert.Equal(t, int64(3), stored.Load())
}

func TestWatcherDebounceCollapsesBursts(t *testing.T) {
	path := newAttribute(t, "0")

	var reads atomic.Int32
	got := make(chan int, 8)
	w := New(path, func() (int, error) {
		reads.Add(1)
		return readInt(path)()
	}, accept, quietLogger(), WithDebounce[int](150*time.Millisecond))
	w.OnChange(func(v int) { offer(got, v) })
	startWatcher(t, w)

	for _, v := range []string{"1", "2", "3"} {
		writeValue(t, path, v)
	}

	assert.Equal(t, 3, waitValue(t, got))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), reads.Load())
}

func TestWatcherRejectedValueDoesNotNotify(t *testing.T) {
	path := newAttribute(t, "1")

	attempts := make(chan int, 4)
	var notified atomic.Int32
	w := New(path, readInt(path), func(v int) (bool, error) {
		offer(attempts, v)
		return false, nil
	}, quietLogger(), WithDebounce[int](0))
	w.OnChange(func(int) { notified.Add(1) })
	startWatcher(t, w)

	writeValue(t, path, "2")

	waitValue(t, attempts)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, notified.Load())
}

func TestWatcherReportsErrors(t *testing.T) {
	tests := []struct {
		name  string
		read  func() (int, error)
		store func(int) (bool, error)
		want  string
	}{
		{
			name:  "read",
			read:  func() (int, error) { return 0, errors.New("parse failure") },
			store: func(int) (bool, error) {
				t.Error("store called after failed read")
				return true, nil
			},
			want:  "parse failure",
		},
		{
			name:  "store",
			read:  func() (int, error) { return 1, nil },
			store: func(int) (bool, error) { return false, errors.New("disk full") },
			want:  "disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := newAttribute(t, "1")
			errs := make(chan error, 4)
			w := New(path, tt.read, tt.store, quietLogger(),
				WithDebounce[int](10*time.Millisecond),
				WithErrorHandler[int](func(err error) { offer(errs, err) }))
			startWatcher(t, w)

			writeValue(t, path, "x")

			assert.EqualError(t, waitValue(t, errs), tt.want)
		})
	}
}

func TestWatcherUnsubscribe(t *testing.T) {
	path := newAttribute(t, "0")

	stored := make(chan int, 4)
	var notified atomic.Int32
	w := New(path, readInt(path), func(v int) (bool, error) {
		offer(stored, v)
		return true, nil
	}, quietLogger(), WithDebounce[int](10*time.Millisecond))
	unsub := w.OnChange(func(int) { notified.Add(1) })
	unsub()
	unsub()
	startWatcher(t, w)

	writeValue(t, path, "2")

	waitValue(t, stored)
	assert.Zero(t, notified.Load())
}

func TestWatcherFollowsReplacedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aurad.toml")
	writeValue(t, path, "1")

	got := make(chan int, 4)
	w := New(path, readInt(path), accept, quietLogger(),
		WithDebounce[int](20*time.Millisecond),
		WithReplaceFollow[int]())
	w.OnChange(func(v int) { offer(got, v) })
	startWatcher(t, w)

	for _, v := range []string{"4", "5"} {
		tmp := filepath.Join(dir, ".aurad.toml.tmp")
		writeValue(t, tmp, v)
		require.NoError(t, os.Rename(tmp, path))
		want, _ := strconv.Atoi(v)
		assert.Equal(t, want, waitValue(t, got))
	}
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aurad.toml")
	writeValue(t, path, "1")

	var reads atomic.Int32
	w := New(path, func() (int, error) {
		reads.Add(1)
		return 1, nil
	}, accept, quietLogger(), WithDebounce[int](0), WithReplaceFollow[int]())
	startWatcher(t, w)

	writeValue(t, filepath.Join(dir, "other.toml"), "2")
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, reads.Load())
}

func TestWatcherStartMissingFile(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing"), readInt("missing"), accept, quietLogger())
	assert.Error(t, w.Start())
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
