// Package version reports the build version of this module.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Version records build information.
type Version struct {
	Version string    `json:"version"`
	Commit  string    `json:"commit"`
	Date    time.Time `json:"date"`
	Dirty   bool      `json:"dirty"`
	Go      string    `json:"go"`
}

func (v Version) String() string {
	return v.Version
}

// V contains build information of the running executable.
var V = Version{
	Version: "development",
	Commit:  "unknown",
	Date:    time.Now(),
	Dirty:   true,
}

func init() {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	V.Go = bi.GoVersion
	if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		V.Version = bi.Main.Version
	}

	settings := map[string]string{}
	for _, kv := range bi.Settings {
		settings[kv.Key] = kv.Value
	}
	revision := settings["vcs.revision"]
	dt, e := time.Parse(time.RFC3339, settings["vcs.time"])
	if settings["vcs"] != "git" || len(revision) < 12 || e != nil {
		return
	}

	V.Commit = revision
	V.Date = dt
	V.Dirty = settings["vcs.modified"] == "true"
	if V.Version == "development" {
		suffix := ""
		if V.Dirty {
			suffix = "-dirty"
		}
		V.Version = fmt.Sprintf("v0.0.0-%s-%s%s", dt.UTC().Format("20060102150405"), revision[:12], suffix)
	}
}
