package led

import (
	"fmt"

	"github.com/smazurov/aurad/internal/aura"
	"github.com/smazurov/aurad/internal/aura/store"
	"github.com/smazurov/aurad/internal/logging"
)

// Options locate the hardware nodes and files used by New.
type Options struct {
	SysfsRoot      string
	DevRoot        string
	BrightnessPath string
	ConfigPath     string
	LedModesPath   string
}

func (o *Options) setDefaults() {
	if o.SysfsRoot == "" {
		o.SysfsRoot = "/sys"
	}
	if o.DevRoot == "" {
		o.DevRoot = "/dev"
	}
	if o.BrightnessPath == "" {
		o.BrightnessPath = DefaultBrightnessPath
	}
	if o.ConfigPath == "" {
		o.ConfigPath = store.DefaultPath
	}
	if o.LedModesPath == "" {
		o.LedModesPath = aura.DefaultLedModesPath
	}
}

// New detects the keyboard, loads its config and returns the controller.
// A missing brightness node or config directory is an error; a missing
// hidraw node only disables effect writes.
func New(opts Options, bus Publisher, logger logging.Logger) (*Controller, error) {
	opts.setDefaults()

	caps := aura.DetectLedData(opts.SysfsRoot, opts.LedModesPath, logger)

	ledNode, err := FindLedNode(opts.SysfsRoot, opts.DevRoot, KnownProductIDs)
	if err != nil {
		if logger != nil {
			logger.Warn("No keyboard LED controller found, effects disabled", "error", err)
		}
		ledNode = ""
	} else if logger != nil {
		logger.Info("Using device for LED control", "node", ledNode)
	}

	dev, err := NewSysfsDevice(ledNode, opts.BrightnessPath)
	if err != nil {
		return nil, fmt.Errorf("keyboard brightness control unavailable: %w", err)
	}

	st := store.NewJSON(opts.ConfigPath, logging.GetLogger("store"))
	cfg, err := st.Load(&caps)
	if err != nil {
		return nil, fmt.Errorf("failed to load LED config: %w", err)
	}

	kbd, err := NewKbdLed(dev, st, caps, cfg, bus, logger)
	if err != nil {
		return nil, err
	}
	return NewController(kbd), nil
}
