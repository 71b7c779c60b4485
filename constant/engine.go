package constant

// Engine backend identifiers accepted by the engine.default setting and the --engine flag.
const (
	EngineMPV    = "mpv"
	EngineMemory = "memory"
)

// Wake-lock backend identifiers accepted by the platform.wake_backend setting.
const (
	WakeBackendDBus = "dbus"
	WakeBackendNone = "none"
)
