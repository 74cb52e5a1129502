package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "SPCHECK"

// Settings are the process-level options that do not belong in the run
// document: where that document lives and how to log.
type Settings struct {
	ConfigFile string `mapstructure:"config"`
	LogLevel   string `mapstructure:"log-level"`
	LogFormat  string `mapstructure:"log-format"`
}

// LoadSettings resolves Settings from flags, SPCHECK_* environment variables
// (including those in a local .env file) and defaults, in that order.
func LoadSettings(flags *pflag.FlagSet) (*Settings, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("config", "config.json")
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "console")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, name := range []string{"config", "log-level", "log-format"} {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(name, f); err != nil {
				return nil, err
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
