package aura

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/smazurov/aurad/internal/logging"
)

//go:embed ledmodes.toml
var embeddedLedModes []byte

// DefaultLedModesPath is where a distribution may ship its own capability database.
const DefaultLedModesPath = "/etc/asusd/asusd-ledmodes.toml"

// LaptopLedData describes which modes and zones a laptop family supports.
type LaptopLedData struct {
	ProdFamily string   `toml:"prod_family" json:"prod_family"`
	BoardNames []string `toml:"board_names" json:"board_names"`
	Standard   []ModeID `toml:"standard" json:"standard"`
	Multizone  []Zone   `toml:"multizone" json:"multizone"`
	PerKey     bool     `toml:"per_key" json:"per_key"`
}

// FallbackLedData is used when the hardware has no entry in the database.
func FallbackLedData() LaptopLedData {
	return LaptopLedData{Standard: []ModeID{ModeStatic, ModeBreathe, ModePulse}}
}

// SupportsMode reports whether m is one of the standard modes.
func (d *LaptopLedData) SupportsMode(m ModeID) bool {
	return slices.Contains(d.Standard, m)
}

// SupportsZone reports whether z is addressable. ZoneNone always is.
func (d *LaptopLedData) SupportsZone(z Zone) bool {
	return z == ZoneNone || slices.Contains(d.Multizone, z)
}

type ledModesFile struct {
	LedData []LaptopLedData `toml:"led_data"`
}

// ParseLedModes decodes a capability database.
func ParseLedModes(data []byte) ([]LaptopLedData, error) {
	var f ledModesFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, NewError(KindParse, "invalid led modes database", err)
	}
	return f.LedData, nil
}

// LoadLedModes reads the database at path, falling back to the built-in copy
// when the file does not exist.
func LoadLedModes(path string) ([]LaptopLedData, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ParseLedModes(embeddedLedModes)
	}
	if err != nil {
		return nil, NewPathError(KindIO, path, "read led modes", err)
	}
	return ParseLedModes(data)
}

// MatchLedData finds the entry for a product family and board name.
func MatchLedData(db []LaptopLedData, family, board string) (LaptopLedData, bool) {
	for _, d := range db {
		if d.ProdFamily != "" && !strings.EqualFold(d.ProdFamily, family) {
			continue
		}
		for _, name := range d.BoardNames {
			if name != "" && strings.Contains(board, name) {
				return d, true
			}
		}
	}
	return FallbackLedData(), false
}

// ReadDMI returns the product family and board name under sysfsRoot.
func ReadDMI(sysfsRoot string) (family, board string, err error) {
	dir := filepath.Join(sysfsRoot, "class", "dmi", "id")
	f, err := os.ReadFile(filepath.Join(dir, "product_family"))
	if err != nil {
		return "", "", NewPathError(KindCapabilityMissing, dir, "read product_family", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "board_name"))
	if err != nil {
		return "", "", NewPathError(KindCapabilityMissing, dir, "read board_name", err)
	}
	return strings.TrimSpace(string(f)), strings.TrimSpace(string(b)), nil
}

// DetectLedData resolves the capability descriptor of the running machine.
// It never fails: unknown hardware gets FallbackLedData.
func DetectLedData(sysfsRoot, ledModesPath string, logger logging.Logger) LaptopLedData {
	db, err := LoadLedModes(ledModesPath)
	if err != nil {
		if logger != nil {
			logger.Warn("Could not load led modes database, using built-in", "path", ledModesPath, "error", err)
		}
		db, _ = ParseLedModes(embeddedLedModes)
	}

	family, board, err := ReadDMI(sysfsRoot)
	if err != nil {
		if logger != nil {
			logger.Warn("Could not identify laptop", "error", err)
		}
		return FallbackLedData()
	}

	data, ok := MatchLedData(db, family, board)
	if logger != nil {
		if ok {
			logger.Info("Found led capabilities", "family", family, "board", board, "modes", fmt.Sprint(data.Standard))
		} else {
			logger.Warn("Laptop not in led modes database, using defaults", "family", family, "board", board)
		}
	}
	return data
}

// SupportedFunctions is the capability summary exposed to clients.
type SupportedFunctions struct {
	BrightnessSet bool     `json:"brightness_set"`
	DirectAddress bool     `json:"direct_addressing"`
	Modes         []ModeID `json:"modes"`
	Zones         []Zone   `json:"zones"`
	PerKey        bool     `json:"per_key"`
}

// Functions summarises the descriptor. hasLedNode is false when only the
// brightness node exists.
func (d *LaptopLedData) Functions(hasLedNode bool) SupportedFunctions {
	return SupportedFunctions{
		BrightnessSet: true,
		DirectAddress: hasLedNode,
		Modes:         slices.Clone(d.Standard),
		Zones:         slices.Clone(d.Multizone),
		PerKey:        d.PerKey,
	}
}
