package led

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/smazurov/aurad/internal/aura"
)

// writeHidraw opens the node and writes msg with one write(2) call.
// hidraw treats each write as one report, so the packet must not be split.
func writeHidraw(path string, msg []byte) error {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		if errors.Is(err, unix.ENOENT) || errors.Is(err, unix.ENODEV) {
			return aura.NewPathError(aura.KindNodeMissing, path, "open led node", err)
		}
		return aura.NewPathError(aura.KindIO, path, "open led node", err)
	}
	defer unix.Close(fd)

	n, err := unix.Write(fd, msg)
	if err != nil {
		return aura.NewPathError(aura.KindIO, path, "write led node", err)
	}
	if n != len(msg) {
		return aura.NewPathError(aura.KindIO, path, fmt.Sprintf("short write %d of %d bytes", n, len(msg)), nil)
	}
	return nil
}
