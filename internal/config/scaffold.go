package config

import "gopkg.in/yaml.v3"

// DefaultYAML renders the default configuration as a YAML document,
// suitable for scaffolding a new churnlab.yaml. Keys match the config
// file layout, so the generated file round-trips through LoadConfig.
func DefaultYAML() ([]byte, error) {
	return yaml.Marshal(defaultMap())
}
