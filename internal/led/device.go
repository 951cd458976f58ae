package led

import (
	"os"

	"github.com/smazurov/aurad/internal/aura"
)

// DefaultBrightnessPath is the kernel keyboard backlight node.
const DefaultBrightnessPath = "/sys/class/leds/asus::kbd_backlight/brightness"

// Device is the write channel to the keyboard hardware.
type Device interface {
	// WriteBytes sends one packet to the LED node in a single write.
	WriteBytes(msg []byte) error

	ReadBrightness() (aura.LedBrightness, error)
	SetBrightness(level aura.LedBrightness) error

	// HasLedNode is false for keyboards that only expose brightness.
	HasLedNode() bool
}

// SysfsDevice talks to a hidraw node and the brightness sysfs node.
type SysfsDevice struct {
	ledNode        string
	brightnessPath string
}

// NewSysfsDevice creates a device. ledNode may be empty; the brightness
// node must exist.
func NewSysfsDevice(ledNode, brightnessPath string) (*SysfsDevice, error) {
	if brightnessPath == "" {
		brightnessPath = DefaultBrightnessPath
	}
	if _, err := os.Stat(brightnessPath); err != nil {
		return nil, aura.NewPathError(aura.KindCapabilityMissing, brightnessPath, "keyboard brightness node not found", err)
	}
	return &SysfsDevice{ledNode: ledNode, brightnessPath: brightnessPath}, nil
}

// WriteBytes implements Device.
func (d *SysfsDevice) WriteBytes(msg []byte) error {
	if d.ledNode == "" {
		return aura.NewError(aura.KindCapabilityMissing, "keyboard has no led write node", nil)
	}
	return writeHidraw(d.ledNode, msg)
}

// ReadBrightness implements Device.
func (d *SysfsDevice) ReadBrightness() (aura.LedBrightness, error) {
	return readBrightness(d.brightnessPath)
}

// SetBrightness implements Device.
func (d *SysfsDevice) SetBrightness(level aura.LedBrightness) error {
	return writeBrightness(d.brightnessPath, level)
}

// HasLedNode implements Device.
func (d *SysfsDevice) HasLedNode() bool {
	return d.ledNode != ""
}

// LedNode returns the hidraw path, empty if none.
func (d *SysfsDevice) LedNode() string {
	return d.ledNode
}

// SetLedNode replaces the hidraw path after a hotplug event.
func (d *SysfsDevice) SetLedNode(path string) {
	d.ledNode = path
}

// BrightnessPath returns the brightness node path.
func (d *SysfsDevice) BrightnessPath() string {
	return d.brightnessPath
}
