package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Name is the program name reported to logs and clients.
const Name = "aurad"

// Set with -ldflags "-X github.com/smazurov/aurad/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	BuildID   = "unknown"
)

// Info describes the running binary.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	BuildID   string `json:"build_id"`
	GoVersion string `json:"go_version"`
	Compiler  string `json:"compiler"`
	Platform  string `json:"platform"`
}

// Get collects build information. Values not stamped by ldflags fall back to
// the VCS settings the go tool embeds, when present.
func Get() Info {
	info := Info{
		Name:      Name,
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		BuildID:   BuildID,
		GoVersion: runtime.Version(),
		Compiler:  runtime.Compiler,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.GitCommit == "unknown" && len(setting.Value) >= 7 {
					info.GitCommit = setting.Value[:7]
				}
			case "vcs.time":
				if info.BuildDate == "unknown" {
					info.BuildDate = setting.Value
				}
			}
		}
	}
	return info
}

// String returns the bare version, as used in the OpenAPI document.
func String() string {
	return Version
}

// Banner is the one-line description printed by --version and at startup.
func Banner() string {
	info := Get()
	return fmt.Sprintf("%s %s (%s, built %s, %s)", info.Name, info.Version, info.GitCommit, info.BuildDate, info.GoVersion)
}
