package host

import (
	"fmt"

	"github.com/playcore/playcore/constant"
	"github.com/playcore/playcore/engine"
	"github.com/playcore/playcore/engine/memory"
	"github.com/playcore/playcore/engine/mpv"
	"github.com/playcore/playcore/history"
	"github.com/playcore/playcore/key"
	"github.com/playcore/playcore/log"
	"github.com/playcore/playcore/platform"
	"github.com/playcore/playcore/session"
	"github.com/playcore/playcore/source"
	"github.com/playcore/playcore/where"
	"github.com/spf13/viper"
)

// Engines lists the engine backends FactoryFor accepts.
var Engines = []string{constant.EngineMPV, constant.EngineMemory}

// FactoryFor returns the engine factory registered under name.
func FactoryFor(name string) (engine.Factory, error) {
	switch name {
	case constant.EngineMPV:
		return mpv.NewFactory(
			viper.GetString(key.EngineMPVPath),
			viper.GetDuration(key.EngineSocketWait),
		), nil
	case constant.EngineMemory:
		return memory.NewFactory(memory.Options{
			Duration: 10_000,
			Width:    1280,
			Height:   720,
		}), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", name)
	}
}

// FromConfig builds a host from the loaded configuration, using the engine
// named by engine.default.
func FromConfig() (*Host, error) {
	return FromConfigWith(viper.GetString(key.EngineDefault))
}

// FromConfigWith is FromConfig with an explicit engine backend.
func FromConfigWith(engineName string) (*Host, error) {
	factory, err := FactoryFor(engineName)
	if err != nil {
		return nil, err
	}

	opts := Options{
		Factory: factory,
		Focus:   platform.NewFocus(),
		Session: session.Options{
			ReleaseTimeout:    viper.GetDuration(key.EngineReleaseTimeout),
			RequestAudioFocus: viper.GetBool(key.SessionRequestAudioFocus),
			RequestScreenOn:   viper.GetBool(key.SessionRequestScreenOn),
		},
	}

	wake, err := platform.NewWakeLock(viper.GetString(key.PlatformWakeBackend))
	if err != nil {
		log.Warnf("wake lock unavailable, screen-on requests are ignored: %s", err)
	} else if wake != nil {
		opts.Wake = wake
	}

	assetRoot := viper.GetString(key.SourceAssetRoot)
	if assetRoot == "" {
		assetRoot = where.Assets()
	}
	opts.Resolver = source.NewResolver(assetRoot)

	if viper.GetBool(key.HistorySavePosition) {
		opts.Recorder = history.Open(where.History())
	}

	return New(opts), nil
}
