package config

import "time"

// DefaultPath is the config file looked up when -c is not given.
const DefaultPath = "pynalyze.toml"

type Config struct {
	Version       int           `toml:"version"`
	Analysis      Analysis      `toml:"analysis"`
	Exclude       Exclude       `toml:"exclude"`
	Output        Output        `toml:"output"`
	Watch         Watch         `toml:"watch"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
}

// Analysis selects which categories are checked.
type Analysis struct {
	Imports      bool `toml:"imports"`
	Functions    bool `toml:"functions"`
	IncludeAsync bool `toml:"include_async"`
}

// Exclude holds glob patterns. Dirs and Files match base names during
// directory scans; Imports and Functions match finding names.
type Exclude struct {
	Dirs      []string `toml:"dirs"`
	Files     []string `toml:"files"`
	Imports   []string `toml:"imports"`
	Functions []string `toml:"functions"`
}

type Output struct {
	Format string `toml:"format"`
	Color  bool   `toml:"color"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	MaxRate  float64       `toml:"max_rate"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Observability struct {
	MetricsFile  string `toml:"metrics_file"`
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

// Output formats accepted by output.format and --format.
const (
	FormatText  = "text"
	FormatQuiet = "quiet"
	FormatSARIF = "sarif"
)

func DefaultConfig() *Config {
	cfg := &Config{
		Analysis: Analysis{
			Imports:   true,
			Functions: true,
		},
		Output: Output{Color: true},
	}
	applyDefaults(cfg)
	return cfg
}
