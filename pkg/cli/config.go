package cli

import (
	"fmt"

	"github.com/getmockd/wsgate/pkg/config"
)

// loadConfig resolves the configuration in precedence order: the config
// file (--config, WSGATE_CONFIG or a local wsgate.yaml), then environment
// variables, then apply, which carries command flags.
func loadConfig(apply func(*config.Config)) (*config.Config, string, error) {
	path := configFile
	if path == "" {
		path = config.FindConfigFile()
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.ReadFile(path)
		if err != nil {
			return nil, path, err
		}
		cfg = loaded
	}

	config.ApplyEnv(cfg)
	if apply != nil {
		apply(cfg)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		if path != "" {
			return nil, path, fmt.Errorf("%s: %w", path, err)
		}
		return nil, path, err
	}
	return cfg, path, nil
}
