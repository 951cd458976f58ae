package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/coreos/go-systemd/v22/journal"
)

const defaultBufferSize = 1000

// SyslogIdentifier tags every journal entry.
const SyslogIdentifier = "aurad"

// Logger is the logging surface packages accept, so tests can pass any
// *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the global level, the output format (text or json) and
// per-module level overrides.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

type moduleState struct {
	level  slog.LevelVar
	root   atomic.Pointer[slog.Handler]
	logger *slog.Logger
}

func (m *moduleState) rebuild(format string) {
	h := createHandler(format, &m.level)
	m.root.Store(&h)
}

type registry struct {
	mu       sync.RWMutex
	config   Config
	ready    bool
	level    slog.LevelVar
	modules  map[string]*moduleState
	buffer   *RingBuffer
	callback LogCallback
}

var reg = &registry{modules: make(map[string]*moduleState)}

func (r *registry) format() string {
	if !r.ready || r.config.Format == "" {
		return "text"
	}
	return r.config.Format
}

// Initialize applies config and starts a fresh ring buffer. Loggers already
// returned by GetLogger switch to the new outputs and levels.
func Initialize(config Config) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.config = config
	reg.ready = true
	reg.buffer = NewRingBuffer(defaultBufferSize)
	reg.level.Set(levelFor(config, ""))
	for name, m := range reg.modules {
		m.level.Set(levelFor(config, name))
		m.rebuild(reg.format())
	}

	slog.SetDefault(slog.New(createHandler(reg.format(), &reg.level)))
}

// SetLevels changes the global and per-module levels in place. Outputs and
// the ring buffer are kept, so it can run on every config file edit.
func SetLevels(config Config) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.config.Level = config.Level
	reg.config.Modules = config.Modules
	reg.level.Set(levelFor(config, ""))
	for name, m := range reg.modules {
		m.level.Set(levelFor(config, name))
	}
}

// levelFor resolves the level of module: its own override, else the global
// level, else info.
func levelFor(config Config, module string) slog.Level {
	if module != "" {
		if level := parseLevel(config.Modules[module]); level != nil {
			return *level
		}
	}
	if level := parseLevel(config.Level); level != nil {
		return *level
	}
	return slog.LevelInfo
}

// GetBuffer returns the ring buffer, nil before Initialize.
func GetBuffer() *RingBuffer {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.buffer
}

// SetLogCallback registers fn to receive every buffered entry; nil removes it.
func SetLogCallback(fn LogCallback) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.callback = fn
}

func bufferTargets() (*RingBuffer, LogCallback) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.buffer, reg.callback
}

// GetLogger returns the logger for module, tagged with a module attribute.
// The same *slog.Logger is returned on every call.
func GetLogger(module string) *slog.Logger {
	reg.mu.RLock()
	m, ok := reg.modules[module]
	reg.mu.RUnlock()
	if ok {
		return m.logger
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if m, ok := reg.modules[module]; ok {
		return m.logger
	}

	m = &moduleState{}
	m.level.Set(levelFor(reg.config, module))
	m.rebuild(reg.format())
	m.logger = slog.New(&liveHandler{root: &m.root}).With("module", module)
	reg.modules[module] = m
	return m.logger
}

// createHandler builds the output chain for one level: the journal when
// journald is running, stdout unless it already feeds the journal or goes
// nowhere, and always the ring buffer.
func createHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	var stdout slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if format == "json" {
		stdout = slog.NewJSONHandler(os.Stdout, opts)
	}

	var handlers []slog.Handler
	journalUp := IsJournalAvailable()
	if journalUp {
		handlers = append(handlers, NewJournalHandler(level))
	}
	if isStdoutAvailable() && !(journalUp && stdoutIsJournal()) {
		handlers = append(handlers, stdout)
	}
	handlers = append(handlers, NewBufferHandler(level))
	return NewMultiHandler(handlers...)
}

// stdoutIsJournal reports whether systemd connected stdout to journald, in
// which case writing there as well would log every record twice.
func stdoutIsJournal() bool {
	ok, err := journal.StdoutIsJournalStream()
	return err == nil && ok
}

// isStdoutAvailable reports whether stdout is a terminal, pipe, socket or
// regular file. /dev/null is a device and does not count.
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&(os.ModeCharDevice|os.ModeNamedPipe|os.ModeSocket) != 0 || mode.IsRegular()
}

// parseLevel accepts slog level names in any case, with an optional offset
// such as "info+2", plus "warning". Returns nil for anything else.
func parseLevel(level string) *slog.Level {
	if strings.EqualFold(level, "warning") {
		level = "warn"
	}
	var l slog.Level
	if level == "" || l.UnmarshalText([]byte(level)) != nil {
		return nil
	}
	return &l
}
