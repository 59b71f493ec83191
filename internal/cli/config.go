package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds defaults shared across commands, loaded from an optional
// YAML file. Flags always win over config values.
type Config struct {
	DBPath    string `yaml:"db"`
	TimeoutMs int    `yaml:"timeoutMs"`
	Listen    string `yaml:"listen"`

	SkipRestAPITest      bool `yaml:"skipRestApiTest"`
	SkipSchemaValidation bool `yaml:"skipSchemaValidation"`
}

// LoadConfig reads a YAML config file. An empty path returns zero defaults;
// a missing or unparseable file is a command error.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
