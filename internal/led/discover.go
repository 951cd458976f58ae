package led

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/smazurov/aurad/internal/aura"
)

// KnownProductIDs are the USB product ids of supported keyboards, in lookup order.
var KnownProductIDs = []string{"1866", "1869", "1854", "19b6", "1a30"}

// maxParentDepth bounds the walk from a hidraw device to its usb_device.
const maxParentDepth = 8

// FindLedNode returns the /dev path of the first hidraw node whose parent USB
// device has an allow-listed product id.
func FindLedNode(sysfsRoot, devRoot string, productIDs []string) (string, error) {
	classDir := filepath.Join(sysfsRoot, "class", "hidraw")
	entries, err := os.ReadDir(classDir)
	if err != nil {
		return "", aura.NewPathError(aura.KindEnumeration, classDir, "list hidraw devices", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	found := make(map[string]string, len(names))
	for _, name := range names {
		pid, ok := usbProductID(filepath.Join(classDir, name, "device"))
		if !ok {
			continue
		}
		if _, seen := found[pid]; !seen {
			found[pid] = name
		}
	}

	for _, pid := range productIDs {
		if name, ok := found[strings.ToLower(pid)]; ok {
			return filepath.Join(devRoot, name), nil
		}
	}
	return "", aura.NewError(aura.KindCapabilityMissing, "no supported keyboard hidraw device found", nil)
}

// usbProductID walks up from a hid device to the nearest ancestor carrying
// an idProduct attribute.
func usbProductID(devicePath string) (string, bool) {
	dir, err := filepath.EvalSymlinks(devicePath)
	if err != nil {
		return "", false
	}
	for range maxParentDepth {
		data, err := os.ReadFile(filepath.Join(dir, "idProduct"))
		if err == nil {
			return strings.ToLower(strings.TrimSpace(string(data))), true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

// NodeProductID returns the USB product id behind a /dev/hidrawN path, or ""
// if it cannot be resolved.
func NodeProductID(sysfsRoot, node string) string {
	if node == "" {
		return ""
	}
	pid, _ := usbProductID(filepath.Join(sysfsRoot, "class", "hidraw", filepath.Base(node), "device"))
	return pid
}

// DeviceType names a keyboard by its product id, "Unknown" if none.
func DeviceType(productID string) string {
	if productID == "" {
		return "Unknown"
	}
	return "X" + strings.ToUpper(productID)
}
