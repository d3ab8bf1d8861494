package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/lvillar/pdftpl"
)

// Config holds settings read from the -config YAML file.
type Config struct {
	LogLevel     string            `yaml:"logLevel"`
	CacheEntries int               `yaml:"cacheEntries"`
	Compress     bool              `yaml:"compress"`
	PageSize     string            `yaml:"pageSize"`
	Info         map[string]string `yaml:"info"`
}

func defaultConfig() Config {
	return Config{
		LogLevel: "warning",
		Compress: true,
		PageSize: "A4",
	}
}

// loadConfig reads path over the defaults. An empty path yields the defaults.
func loadConfig(path string) (Config, error) {
	config := defaultConfig()
	if path == "" {
		return config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("config %s: %w", path, err)
	}
	if config.LogLevel == "" {
		config.LogLevel = "warning"
	}
	if _, ok := pdftpl.PageSizes[config.PageSize]; !ok {
		return config, fmt.Errorf("config %s: unknown page size %q", path, config.PageSize)
	}
	return config, nil
}

func newLogger(config Config) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	return log, nil
}
