package led

import (
	"errors"
	"io"
	"os"

	"github.com/smazurov/aurad/internal/aura"
)

// readBrightness reads the first byte of the brightness node.
func readBrightness(path string) (aura.LedBrightness, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nodeError(path, "open brightness node", err)
	}
	defer f.Close()

	var buf [1]byte
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		return 0, aura.NewPathError(aura.KindIO, path, "read brightness node", err)
	}
	return aura.BrightnessFromCharCode(buf[0])
}

// writeBrightness writes the level's character code as a single byte.
func writeBrightness(path string, level aura.LedBrightness) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nodeError(path, "open brightness node", err)
	}
	if _, err := f.Write([]byte{level.CharCode()}); err != nil {
		f.Close()
		return aura.NewPathError(aura.KindIO, path, "write brightness node", err)
	}
	if err := f.Close(); err != nil {
		return aura.NewPathError(aura.KindIO, path, "close brightness node", err)
	}
	return nil
}

func nodeError(path, msg string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return aura.NewPathError(aura.KindNodeMissing, path, msg, err)
	}
	return aura.NewPathError(aura.KindIO, path, msg, err)
}
