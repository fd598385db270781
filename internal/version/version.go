package version

import (
	"runtime"
	"runtime/debug"
)

var version = "dev"

// Info holds detailed version information.
type Info struct {
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
	Protocol  string `json:"protocol,omitempty"`
}

// GetInfo returns detailed version information.
func GetInfo() Info {
	return Info{
		Version:   version,
		GoVersion: runtime.Version(),
		Protocol:  ProtocolVersion(),
	}
}

// Version returns the current version string
func Version() string {
	lspVersion := ProtocolVersion()
	if lspVersion != "" {
		return version + " (lsp " + lspVersion + ")"
	}
	return version
}

// ProtocolVersion returns the linked go.lsp.dev/protocol version from
// build info.
func ProtocolVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, dep := range info.Deps {
		if dep.Path == "go.lsp.dev/protocol" {
			return dep.Version
		}
	}
	return ""
}
