// Package constant defines immutable application-level identifiers and build metadata.
package constant

const (
	// Playcore is the canonical application identifier used for filesystem paths, env prefixes and CLI branding.
	Playcore = "playcore"

	// Version is the current application semantic version string.
	Version = "0.3.0"
)

// Build metadata, overridden via -ldflags at release time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
