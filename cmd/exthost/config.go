package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// hostConfig is the YAML file handed to `exthost run`.
//
//	extensions:
//	  - id: weather
//	    path: ./extensions/weather.wasm
//	    config: '{"region":"eu"}'
//	memory_limit_pages: 1024
type hostConfig struct {
	Extensions       []extensionConfig `yaml:"extensions"`
	MemoryLimitPages uint32            `yaml:"memory_limit_pages"`
}

type extensionConfig struct {
	ID     string `yaml:"id"`
	Path   string `yaml:"path"`
	Config string `yaml:"config"`
}

func loadConfig(path string) (*hostConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg hostConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if len(cfg.Extensions) == 0 {
		return nil, fmt.Errorf("config %s lists no extensions", path)
	}
	seen := map[string]bool{}
	for i, ext := range cfg.Extensions {
		if ext.ID == "" {
			return nil, fmt.Errorf("extension %d has no id", i)
		}
		if ext.Path == "" {
			return nil, fmt.Errorf("extension %q has no path", ext.ID)
		}
		if seen[ext.ID] {
			return nil, fmt.Errorf("duplicate extension id %q", ext.ID)
		}
		seen[ext.ID] = true
	}
	return &cfg, nil
}
