// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Logging Infrastructure - these keys manage the application's diagnostics sink.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// Engine Backends - these keys select and tune the decoding engine collaborator.
const (
	EngineDefault        = "engine.default"
	EngineMPVPath        = "engine.mpv_path"
	EngineReleaseTimeout = "engine.release_timeout"
	EngineSocketWait     = "engine.socket_wait"
)

// Session Defaults - these keys seed the per-session host options.
const (
	SessionRequestAudioFocus = "session.request_audio_focus"
	SessionRequestScreenOn   = "session.request_screen_on"
)

// Platform Capabilities - these keys choose the providers behind exclusive platform resources.
const (
	PlatformWakeBackend = "platform.wake_backend"
)

// Source Resolution.
const (
	SourceAssetRoot = "source.asset_root"
)

// History Tracking - these keys configure the persistence of resume positions.
const (
	HistorySavePosition = "history.save_position"
)

// CLI Execution Environment.
const (
	CliColored   = "cli.colored"
	IconsVariant = "icons.variant"
)
