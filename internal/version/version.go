package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Заполняются через -ldflags "-X .../internal/version.version=v1.0.0".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Build — сведения о сборке бинарника breaktime.
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

// Current возвращает сведения о текущей сборке.
// Без ldflags коммит берётся из VCS-меток, которые go build кладёт в бинарник.
func Current() Build {
	b := Build{Version: version, Commit: commit, Date: date, GoVersion: runtime.Version()}
	if b.Commit != "unknown" {
		return b
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			b.Commit = shortRevision(setting.Value)
		case "vcs.time":
			if b.Date == "unknown" {
				b.Date = setting.Value
			}
		}
	}
	return b
}

// String форматирует сборку для логов и CLI.
func (b Build) String() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s)", b.Version, b.Commit, b.Date, b.GoVersion)
}

// GetVersion возвращает версию сборки.
func GetVersion() string { return version }

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
