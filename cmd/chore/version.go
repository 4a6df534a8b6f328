package main

import (
	"runtime/debug"
	"strings"
)

// version describes the build: the module version, plus the commit it was
// built from when that is known.
func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	var revision, date string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.time":
			date = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}

	var b strings.Builder
	b.WriteString(info.Main.Version)
	if revision == "" {
		return b.String()
	}
	b.WriteString(" (" + revision)
	if dirty {
		b.WriteString(", dirty")
	}
	if date != "" {
		b.WriteString(", " + date)
	}
	b.WriteString(")")
	return b.String()
}
