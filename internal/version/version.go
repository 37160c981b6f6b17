// Package version reports the niiview build version.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version can be set at build time:
// -ldflags="-X github.com/wethinkt/go-niiview/internal/version.Version=v1.0.0"
var Version = ""

// Info is the JSON form of the version, served by the websocket host.
type Info struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Revision string `json:"revision,omitempty"`
	Protocol int    `json:"protocol"`
}

// ProtocolVersion is bumped whenever an inbound or outbound message changes shape.
const ProtocolVersion = 1

// GetInfo returns the version info for the named binary.
func GetInfo(name string) Info {
	info := Info{Name: name, Version: Get(), Protocol: ProtocolVersion}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				info.Revision = s.Value
			}
		}
	}
	return info
}

// Get returns the version string.
func Get() string {
	if Version != "" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			return bi.Main.Version
		}
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return "dev-" + s.Value[:7]
			}
		}
	}
	return "dev"
}

// String returns "<name> version <v> (protocol <p>)".
func String(name string) string {
	return fmt.Sprintf("%s version %s (protocol %d)", name, Get(), ProtocolVersion)
}
