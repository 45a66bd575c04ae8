package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Auth struct {
		AccessSecret  string `yaml:"accessSecret"`
		RefreshSecret string `yaml:"refreshSecret"`
	} `yaml:"auth"`
	Game struct {
		QuestionTTL string `yaml:"questionTtl"`
	} `yaml:"game"`
	Sync struct {
		ResultsURL string `yaml:"resultsUrl"`
	} `yaml:"sync"`
	Profile struct {
		CacheTTL string `yaml:"cacheTtl"`
	} `yaml:"profile"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
