// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package engine

import (
	"os"

	"github.com/equa/go-electoral/params"
	"github.com/naoina/toml"
)

// LoadConfig reads a TOML configuration file and overlays it onto
// params.DefaultElectoralConfig, so a config file only needs to name
// the fields it wants to override.
func LoadConfig(path string) (*params.ElectoralConfig, error) {
	cfg := params.DefaultElectoralConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	if err := toml.NewDecoder(f).Decode(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyFlagOverrides mutates cfg in place with any non-zero-value CLI
// flags, letting `--rpc-endpoint` etc. win over whatever the TOML file
// said without needing a three-way merge.
func ApplyFlagOverrides(cfg *params.ElectoralConfig, rpcEndpoint, engineEndpoint, jwtSecretPath, metricsAddr, dataDir string) {
	if rpcEndpoint != "" {
		cfg.RPCEndpoint = rpcEndpoint
	}
	if engineEndpoint != "" {
		cfg.EngineEndpoint = engineEndpoint
	}
	if jwtSecretPath != "" {
		cfg.JWTSecretPath = jwtSecretPath
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
}
