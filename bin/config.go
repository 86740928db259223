package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const defaultConfigName = ".loxrc.yaml"

// config holds the REPL preferences. Script runs only use Style.
type config struct {
	Prompt      string `yaml:"prompt"`
	HistoryFile string `yaml:"history_file"`
	Highlight   bool   `yaml:"highlight"`
	// chroma style used by -context
	Style string `yaml:"style"`
}

func defaultConfig() config {
	return config{
		Prompt:    "> ",
		Highlight: true,
		Style:     "monokai",
	}
}

// loadConfig reads path over the defaults. An empty path means the file in
// the user's home directory, which may be absent.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, defaultConfigName)
		if _, err := os.Stat(path); err != nil {
			return cfg, nil
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer file.Close()

	return decodeConfig(file, cfg)
}

func decodeConfig(r io.Reader, cfg config) (config, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}
