package led

import (
	"sync"

	"github.com/smazurov/aurad/internal/aura"
)

// Controller guards the single KbdLed instance. Bus requests and system
// sleep hooks use Do and wait for their turn; the brightness watch uses
// TryDo and gives up when the controller is busy.
type Controller struct {
	mu  sync.Mutex
	kbd *KbdLed
}

// NewController wraps kbd.
func NewController(kbd *KbdLed) *Controller {
	return &Controller{kbd: kbd}
}

// Do runs fn with exclusive access, blocking until it is available.
func (c *Controller) Do(fn func(k *KbdLed) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.kbd)
}

// TryDo runs fn only if exclusive access is available right now.
// acquired is false when fn was skipped.
func (c *Controller) TryDo(fn func(k *KbdLed) error) (acquired bool, err error) {
	if !c.mu.TryLock() {
		return false, nil
	}
	defer c.mu.Unlock()
	return true, fn(c.kbd)
}

// State is a point-in-time copy of the controller state.
type State struct {
	Brightness  aura.LedBrightness            `json:"brightness"`
	CurrentMode aura.ModeID                   `json:"current_mode"`
	Effect      *aura.Effect                  `json:"effect,omitempty"`
	Builtins    map[aura.ModeID]aura.Effect   `json:"builtins"`
	Multizone   map[aura.ModeID][]aura.Effect `json:"multizone"`
	PowerStates aura.PowerStates              `json:"power_states"`
	Functions   aura.SupportedFunctions       `json:"functions"`
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() State {
	var s State
	_ = c.Do(func(k *KbdLed) error {
		cfg := k.Config().Clone()
		s = State{
			Brightness:  cfg.Brightness,
			CurrentMode: cfg.CurrentMode,
			Builtins:    cfg.Builtins,
			Multizone:   cfg.Multizone,
			PowerStates: cfg.PowerStates,
			Functions:   k.Functions(),
		}
		if e, ok := cfg.CurrentEffect(); ok {
			s.Effect = &e
		}
		return nil
	})
	return s
}

// LedNode returns the current hidraw path, empty when effects are unavailable.
func (c *Controller) LedNode() string {
	var node string
	_ = c.Do(func(k *KbdLed) error {
		if d, ok := k.Device().(*SysfsDevice); ok {
			node = d.LedNode()
		}
		return nil
	})
	return node
}
