package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

var defaultExcludeDirs = []string{".git", "__pycache__", ".venv", "venv", ".tox", "node_modules"}

// Load decodes the TOML file at path over the defaults, so keys missing from
// the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	cfg.Exclude.Dirs = nil
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, err
	}
	if !md.IsDefined("exclude", "dirs") {
		cfg.Exclude.Dirs = append([]string(nil), defaultExcludeDirs...)
	}

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path when it exists. A missing file at the default
// location is not an error; a missing explicitly requested file is.
func LoadOrDefault(path string, explicit bool) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return Load(path)
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Exclude.Dirs == nil {
		cfg.Exclude.Dirs = append([]string(nil), defaultExcludeDirs...)
	}
	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = FormatText
	}
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRate == 0 {
		cfg.Watch.MaxRate = 4.0
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = ".pynalyze/history.db"
	}
}

// Validate checks a fully defaulted config. It is exported so that callers
// can re-check after env and flag overrides.
func Validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateOutput(cfg); err != nil {
		return err
	}
	if err := validateWatch(cfg); err != nil {
		return err
	}
	return validateExclude(cfg)
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateOutput(cfg *Config) error {
	switch cfg.Output.Format {
	case FormatText, FormatQuiet, FormatSARIF:
		return nil
	}
	return fmt.Errorf("output.format must be one of: %s, %s, %s; got %q", FormatText, FormatQuiet, FormatSARIF, cfg.Output.Format)
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.MaxRate < 0 {
		return fmt.Errorf("watch.max_rate must not be negative, got %v", cfg.Watch.MaxRate)
	}
	return nil
}

func validateExclude(cfg *Config) error {
	groups := []struct {
		key       string
		patterns  []string
		separator []rune
	}{
		{"exclude.dirs", cfg.Exclude.Dirs, nil},
		{"exclude.files", cfg.Exclude.Files, nil},
		{"exclude.imports", cfg.Exclude.Imports, []rune{'.'}},
		{"exclude.functions", cfg.Exclude.Functions, nil},
	}
	for _, g := range groups {
		for i, p := range g.patterns {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("%s[%d] must not be empty", g.key, i)
			}
			if _, err := glob.Compile(p, g.separator...); err != nil {
				return fmt.Errorf("%s[%d]: invalid pattern %q: %w", g.key, i, p, err)
			}
		}
	}
	return nil
}
