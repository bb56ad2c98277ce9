package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds settings read from the config file and environment
type Config struct {
	ClaudeDir string          `yaml:"claude_dir"`
	Cache     CacheConfig     `yaml:"cache"`
	Search    SearchConfig    `yaml:"search"`
	Summaries SummariesConfig `yaml:"summaries"`
	Log       LogConfig       `yaml:"log"`
	Meili     MeiliConfig     `yaml:"meili"`
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type SearchConfig struct {
	Mode         string `yaml:"mode"`
	MaxResults   int    `yaml:"max_results"`
	ContextChars int    `yaml:"context_chars"`
}

// SummariesConfig lists the non-dialog records shown in detailed mode.
// Leaving Allow unset keeps the built-in list; an empty list shows none.
type SummariesConfig struct {
	Allow []string `yaml:"allow"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type MeiliConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Index  string `yaml:"index"`
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		ClaudeDir: "~/.claude/projects",
		Cache: CacheConfig{
			Enabled: true,
			Path:    "~/.cc-convo-cache/events.db",
		},
		Search: SearchConfig{
			Mode:         string(SearchSmart),
			MaxResults:   30,
			ContextChars: 150,
		},
		Log: LogConfig{
			Level: "info",
		},
		Meili: MeiliConfig{
			URL:   "http://localhost:7700",
			Index: "cc-convo-events",
		},
	}
}

// DefaultConfigPath returns ~/.config/cc-convo/config.yaml
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "cc-convo", "config.yaml"), nil
}

// LoadConfig reads configuration from an optional YAML file and environment
// variables. path wins over CC_CONVO_CONFIG; when neither is set the default
// config file is read if it exists. Home-relative paths are expanded.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := true
	if path == "" {
		path = os.Getenv("CC_CONVO_CONFIG")
	}
	if path == "" {
		explicit = false
		if p, err := DefaultConfigPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, err
			}
		}
	}

	if dir := os.Getenv("CC_CONVO_CLAUDE_DIR"); dir != "" {
		cfg.ClaudeDir = dir
	}
	if cachePath := os.Getenv("CC_CONVO_CACHE_PATH"); cachePath != "" {
		cfg.Cache.Path = cachePath
	}
	if enabled := os.Getenv("CC_CONVO_CACHE_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CC_CONVO_CACHE_ENABLED: %w", err)
		}
		cfg.Cache.Enabled = v
	}
	if level := os.Getenv("CC_CONVO_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if url := os.Getenv("MEILI_URL"); url != "" {
		cfg.Meili.URL = url
	}
	if key := os.Getenv("MEILI_KEY"); key != "" {
		cfg.Meili.APIKey = key
	}
	if index := os.Getenv("MEILI_INDEX"); index != "" {
		cfg.Meili.Index = index
	}

	var err error
	if cfg.ClaudeDir, err = ExpandHome(cfg.ClaudeDir); err != nil {
		return Config{}, err
	}
	if cfg.Cache.Path, err = ExpandHome(cfg.Cache.Path); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a command
func (c Config) Validate() error {
	if _, err := ParseSearchMode(c.Search.Mode); err != nil {
		return fmt.Errorf("search.mode: %w", err)
	}
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("search.max_results must be >= 0, got %d", c.Search.MaxResults)
	}
	if c.Search.ContextChars < 0 {
		return fmt.Errorf("search.context_chars must be >= 0, got %d", c.Search.ContextChars)
	}
	if _, err := parseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// SearchOptions returns search defaults taken from the config
func (c Config) SearchOptions() SearchOptions {
	opts := DefaultSearchOptions()
	if mode, err := ParseSearchMode(c.Search.Mode); err == nil {
		opts.Mode = mode
	}
	opts.MaxResults = c.Search.MaxResults
	opts.ContextChars = c.Search.ContextChars
	return opts
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
