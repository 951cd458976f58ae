package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/smazurov/aurad/internal/aura"
	"github.com/smazurov/aurad/internal/logging"
)

// DefaultPath is the well-known location of the LED configuration.
const DefaultPath = "/etc/asusd/aura.conf"

// BackupSuffix is appended to a config file that could not be parsed.
const BackupSuffix = "-old"

// JSONStore persists an aura.Config as JSON.
type JSONStore struct {
	path   string
	logger logging.Logger
}

// NewJSON creates a store for the file at path.
func NewJSON(path string, logger logging.Logger) *JSONStore {
	if path == "" {
		path = DefaultPath
	}
	return &JSONStore{path: path, logger: logger}
}

// Path returns the config file location.
func (s *JSONStore) Path() string {
	return s.path
}

// Load opens the config file, creating it if absent.
//
// An empty file is filled with defaults seeded from caps. A file that does
// not parse is renamed with BackupSuffix and replaced by defaults. A missing
// directory, or a failed rename or write, is returned as an error and is
// meant to stop the daemon.
func (s *JSONStore) Load(caps *aura.LaptopLedData) (*aura.Config, error) {
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); err != nil {
		return nil, aura.NewPathError(aura.KindIO, dir, "config directory is missing", err)
	}

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, aura.NewPathError(aura.KindIO, s.path, "open config", err)
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return nil, aura.NewPathError(aura.KindIO, s.path, "read config", err)
	}

	if len(bytes.TrimSpace(data)) > 0 {
		cfg, parseErr := decode(data)
		if parseErr == nil {
			return cfg, nil
		}

		backup := s.path + BackupSuffix
		if s.logger != nil {
			s.logger.Warn("Could not parse config, recreating defaults", "path", s.path, "backup", backup, "error", parseErr)
		}
		if renameErr := os.Rename(s.path, backup); renameErr != nil {
			return nil, aura.NewPathError(aura.KindIO, s.path, fmt.Sprintf("rename to %s failed, remove the file and restart", backup), renameErr)
		}
	}

	cfg := aura.NewDefaultConfig(caps)
	if err := s.Write(cfg); err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("Created default config", "path", s.path, "modes", len(cfg.Builtins))
	}
	return cfg, nil
}

// Read replaces cfg with the file contents. An empty file leaves cfg
// unchanged. On error cfg is not modified.
func (s *JSONStore) Read(cfg *aura.Config) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return aura.NewPathError(aura.KindIO, s.path, "read config", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		if s.logger != nil {
			s.logger.Warn("Config file is empty, keeping current state", "path", s.path)
		}
		return nil
	}

	parsed, err := decode(data)
	if err != nil {
		return aura.NewPathError(aura.KindParse, s.path, "could not parse config", err)
	}
	*cfg = *parsed
	return nil
}

// Write serializes cfg and replaces the file.
func (s *JSONStore) Write(cfg *aura.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return aura.NewPathError(aura.KindParse, s.path, "marshal config", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp*")
	if err != nil {
		return aura.NewPathError(aura.KindIO, s.path, "create temp file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return aura.NewPathError(aura.KindIO, s.path, "write config", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return aura.NewPathError(aura.KindIO, s.path, "chmod config", err)
	}
	if err := tmp.Close(); err != nil {
		return aura.NewPathError(aura.KindIO, s.path, "close config", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return aura.NewPathError(aura.KindIO, s.path, "replace config", err)
	}
	return nil
}

func decode(data []byte) (*aura.Config, error) {
	cfg := &aura.Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
