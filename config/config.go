// Package config owns viper setup, the registry of defaults and environment bindings.
package config

import (
	"strings"

	"github.com/playcore/playcore/constant"
	"github.com/playcore/playcore/filesystem"
	"github.com/playcore/playcore/where"
	"github.com/spf13/viper"
)

// EnvKeyReplacer maps configuration keys onto environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup registers defaults and env bindings, then reads playcore.toml if present.
func Setup() error {
	viper.SetConfigName(constant.Playcore)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Playcore)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}

	return nil
}
