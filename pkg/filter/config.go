package filter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadPolicy reads a YAML filter policy file:
//
//	include:
//	  - filesystem
//	  - compressed
//	exclude:
//	  - jpeg
func LoadPolicy(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read filter policy: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse filter policy %s: %w", path, err)
	}
	return cfg, nil
}
