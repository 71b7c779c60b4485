// Package where resolves the application's directories and well-known files.
package where

import (
	"os"
	"path/filepath"

	"github.com/playcore/playcore/constant"
	"github.com/playcore/playcore/filesystem"
	"github.com/samber/lo"
)

// EnvConfigPath overrides the configuration directory when set.
const EnvConfigPath = "PLAYCORE_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config returns the configuration directory, honouring PLAYCORE_CONFIG_PATH.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Playcore))
}

// Cache returns the persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Playcore))
}

// Logs returns the directory holding dated log files.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Assets returns the default root for asset:// sources.
func Assets() string {
	return ensureDir(filepath.Join(Config(), "assets"))
}

// History returns the path of the resume position store.
func History() string {
	return filepath.Join(Cache(), "history.json")
}

// Sockets returns the directory for engine IPC sockets.
// Sockets live on the real filesystem regardless of the active backend.
func Sockets() string {
	dir := filepath.Join(os.TempDir(), constant.Playcore)
	lo.Must0(os.MkdirAll(dir, 0o700))
	return dir
}
