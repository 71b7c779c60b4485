package config

import (
	"testing"
	"time"

	"github.com/playcore/playcore/filesystem"
	"github.com/playcore/playcore/key"
	"github.com/playcore/playcore/where"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		So(Setup(), ShouldBeNil)

		Convey("Defaults are populated", func() {
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
			So(viper.GetDuration(key.EngineReleaseTimeout), ShouldEqual, 3*time.Second)
			So(viper.GetBool(key.SessionRequestAudioFocus), ShouldBeTrue)
		})

		Convey("EnvKeyReplacer converts dots to underscores", func() {
			So(EnvKeyReplacer.Replace("engine.release_timeout"), ShouldEqual, "engine_release_timeout")
		})

		Convey("A toml file overrides defaults", func() {
			path := where.Config() + "/playcore.toml"
			So(filesystem.API().WriteFile(path, []byte("[engine]\ndefault = \"memory\"\n"), 0644), ShouldBeNil)
			defer filesystem.API().Remove(path)

			So(Setup(), ShouldBeNil)
			So(viper.GetString(key.EngineDefault), ShouldEqual, "memory")
		})
	})
}

func TestField(t *testing.T) {
	Convey("Given a registered field", t, func() {
		field := Default[key.EngineMPVPath]

		Convey("Env() carries the application prefix", func() {
			So(field.Env(), ShouldEqual, "PLAYCORE_ENGINE_MPV_PATH")
		})

		Convey("Pretty() mentions the key", func() {
			So(field.Pretty(), ShouldContainSubstring, key.EngineMPVPath)
		})

		Convey("MarshalJSON() reports the type", func() {
			data, err := field.MarshalJSON()
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"type":"string"`)
		})
	})

	Convey("Durations are typed", t, func() {
		field := Default[key.EngineSocketWait]
		So(field.typeName(), ShouldEqual, "duration")
	})
}
