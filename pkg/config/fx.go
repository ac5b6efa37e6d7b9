package config

import (
	"os"

	"github.com/pseudomuto/chmigrate/pkg/consts"
	"go.uber.org/fx"
)

// EnvConfigFile names the environment variable pointing at a config file.
const EnvConfigFile = "CHMIGRATE_CONFIG"

var Module = fx.Module("config", fx.Provide(
	// The file named by CHMIGRATE_CONFIG must exist. Without it,
	// chmigrate.yaml is loaded when present and the defaults are used
	// otherwise, so the tool works with flags and environment alone.
	func() (*Config, error) {
		if path := os.Getenv(EnvConfigFile); path != "" {
			return LoadConfigFile(path)
		}

		if _, err := os.Stat(consts.DefaultConfigFile); os.IsNotExist(err) {
			return Default(), nil
		}

		return LoadConfigFile(consts.DefaultConfigFile)
	},
))
