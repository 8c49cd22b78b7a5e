package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Top-level sections of a multicast config file.
const (
	SectionDispatch  = "dispatch"
	SectionPublisher = "publisher"
)

var sections = []string{SectionDispatch, SectionPublisher}

var decoders = map[string]func([]byte) (Config, error){
	".yaml": FromYAML,
	".yml":  FromYAML,
	".json": FromJSON,
}

// FromFile loads a config file, choosing the decoder by extension
// (.yaml, .yml, .json), and checks its sections with Validate.
func FromFile(path string) (Config, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		return Config{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	cfg, err := decode(data)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// FromYAML parses YAML data into a Config.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return New(m), nil
}

// FromJSON parses JSON data into a Config.
func FromJSON(data []byte) (Config, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return New(m), nil
}

// Dispatch returns the dispatch section, read by multicast.OptionsFromConfig.
func (c Config) Dispatch() Config { return c.Sub(SectionDispatch) }

// Publisher returns the publisher section, read by
// multicast.PublisherOptionsFromConfig.
func (c Config) Publisher() Config { return c.Sub(SectionPublisher) }

// Validate reports top-level keys that are not known sections, and known
// sections that are not maps.
func (c Config) Validate() error {
	for key, val := range c.data {
		if !slices.Contains(sections, key) {
			return fmt.Errorf("unknown config section %q", key)
		}
		if _, ok := val.(map[string]any); !ok && val != nil {
			return fmt.Errorf("config section %q must be a map, got %T", key, val)
		}
	}
	return nil
}
