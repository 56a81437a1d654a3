package main

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/latticegames/silo"
)

// loadConfig reads a RuntimeConfig from a TOML file at path, falling back to
// silo.DefaultRuntimeConfig() for any field the file doesn't set. A missing
// file is not an error: an unconfigured siloctl just runs with defaults.
func loadConfig(path string) (silo.RuntimeConfig, error) {
	cfg := silo.DefaultRuntimeConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return silo.RuntimeConfig{}, err
	}
	return cfg, nil
}
