// Package settings provides build metadata, per-run options and context
// helpers shared by the propinspect CLI and the library packages.
package settings

import (
	"context"
	"fmt"
)

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "propinspect"

// VersionInformation is populated at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo describes the running binary.
type VersionInfo struct {
	Commit       string `json:"commit" yaml:"commit"`
	BuildVersion string `json:"version" yaml:"version"`
	BuildTime    string `json:"buildTime" yaml:"buildTime"`
}

// String renders the version for `propinspect version`.
func (v VersionInfo) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime)
}

// Log output encodings.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Run holds the options of one CLI invocation.
type Run struct {
	// MinLogLevel is a zap level: 0 info, -1 debug (logr V(1)), -2 trace
	// (logr V(2)), 2 errors only.
	MinLogLevel int8
	LogFormat   string
	ConfigPath  string
	IsQuiet     bool
	NoColor     bool
	ExitOnError bool
}

// NewCliParams returns the defaults for a CLI run.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		LogFormat:   LogFormatConsole,
		ExitOnError: true,
	}
}

// ParseLogLevel maps a level name to a zap level.
func ParseLogLevel(s string) (int8, error) {
	switch s {
	case "error":
		return 2, nil
	case "warn", "warning":
		return 1, nil
	case "", "info":
		return 0, nil
	case "debug":
		return -1, nil
	case "trace":
		return -2, nil
	}
	return 0, fmt.Errorf("invalid log level %q: valid values are error, warn, info, debug, trace", s)
}

type runKey struct{}

// IntoContext attaches the run options to ctx.
func IntoContext(ctx context.Context, r *Run) context.Context {
	return context.WithValue(ctx, runKey{}, r)
}

// FromContext returns the run options attached to ctx.
func FromContext(ctx context.Context) (*Run, bool) {
	r, ok := ctx.Value(runKey{}).(*Run)
	return r, ok && r != nil
}
