// Package version describes the running apswitch build.
//
// Release builds stamp Version and Commit with ldflags:
//
//	go build -ldflags="-X github.com/muurk/apswitch/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/apswitch/internal/version.Commit=abc1234" ./cmd/apswitch
//
// Anything left empty is filled from the module and VCS data the Go
// toolchain embeds in the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

var (
	// Version is the release tag, set at link time
	Version = ""
	// Commit is the short revision, set at link time
	Commit = ""
)

// Info is what `apswitch version` reports
type Info struct {
	Version   string
	Commit    string
	Dirty     bool
	GoVersion string
	Platform  string
}

var (
	once sync.Once
	info Info
)

// Get returns the build information, resolved once per process
func Get() Info {
	once.Do(func() {
		bi, _ := debug.ReadBuildInfo()
		info = resolve(Version, Commit, bi)
	})
	return info
}

// resolve prefers link-time values, then the module version `go install`
// records, then a dev version named after the commit date
func resolve(version, commit string, bi *debug.BuildInfo) Info {
	i := Info{
		Version:   version,
		Commit:    commit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi == nil {
		return withDefaults(i)
	}
	if bi.GoVersion != "" {
		i.GoVersion = bi.GoVersion
	}

	vcs := make(map[string]string)
	for _, s := range bi.Settings {
		if strings.HasPrefix(s.Key, "vcs.") {
			vcs[strings.TrimPrefix(s.Key, "vcs.")] = s.Value
		}
	}

	if i.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		i.Version = bi.Main.Version
	}
	if i.Version == "" {
		if t, err := time.Parse(time.RFC3339, vcs["time"]); err == nil {
			i.Version = "dev-" + t.UTC().Format("20060102")
		}
	}
	if i.Commit == "" {
		i.Commit = shortRevision(vcs["revision"])
		i.Dirty = vcs["modified"] == "true"
	}
	return withDefaults(i)
}

func withDefaults(i Info) Info {
	if i.Version == "" {
		i.Version = "dev"
	}
	if i.Commit == "" {
		i.Commit = "unknown"
	}
	return i
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// String renders "v0.3.0 (abc1234-dirty, go1.24.0 linux/amd64)"
func (i Info) String() string {
	commit := i.Commit
	if i.Dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (%s, %s %s)", i.Version, commit, i.GoVersion, i.Platform)
}

// Full returns the version line printed by `apswitch version`
func Full() string {
	return Get().String()
}
