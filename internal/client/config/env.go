package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

var osLookup = envconfig.OsLookuper()

// parseEnv overlays BULLETIN_* environment variables. Unset variables keep
// the current value. Panics on malformed values, like the other loaders.
func parseEnv(cfg *Config, l envconfig.Lookuper) {
	err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   cfg,
		Lookuper: l,
	})
	if err != nil {
		panic(err)
	}
}
