package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: PYNALYZE_[SECTION]_[KEY] (e.g., PYNALYZE_OUTPUT_FORMAT).
func ApplyEnvOverrides(cfg *Config) {
	// Analysis
	setEnvBool(&cfg.Analysis.Imports, "PYNALYZE_ANALYSIS_IMPORTS")
	setEnvBool(&cfg.Analysis.Functions, "PYNALYZE_ANALYSIS_FUNCTIONS")
	setEnvBool(&cfg.Analysis.IncludeAsync, "PYNALYZE_ANALYSIS_INCLUDE_ASYNC")

	// Exclude
	setEnvList(&cfg.Exclude.Dirs, "PYNALYZE_EXCLUDE_DIRS")
	setEnvList(&cfg.Exclude.Files, "PYNALYZE_EXCLUDE_FILES")
	setEnvList(&cfg.Exclude.Imports, "PYNALYZE_EXCLUDE_IMPORTS")
	setEnvList(&cfg.Exclude.Functions, "PYNALYZE_EXCLUDE_FUNCTIONS")

	// Output
	setEnvString(&cfg.Output.Format, "PYNALYZE_OUTPUT_FORMAT")
	setEnvBool(&cfg.Output.Color, "PYNALYZE_OUTPUT_COLOR")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "PYNALYZE_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRate, "PYNALYZE_WATCH_MAX_RATE")

	// History
	setEnvBool(&cfg.History.Enabled, "PYNALYZE_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "PYNALYZE_HISTORY_PATH")

	// Observability
	setEnvString(&cfg.Observability.MetricsFile, "PYNALYZE_OBSERVABILITY_METRICS_FILE")
	setEnvString(&cfg.Observability.MetricsAddr, "PYNALYZE_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "PYNALYZE_OBSERVABILITY_OTLP_ENDPOINT")

	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList splits a comma-separated value; an empty value clears the list.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		items := []string{}
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		*target = items
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err != nil {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
			return
		}
		slog.Debug("applying env override", "key", key, "value", val)
		*target = b
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
			return
		}
		slog.Debug("applying env override", "key", key, "value", val)
		*target = f
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
			return
		}
		slog.Debug("applying env override", "key", key, "value", val)
		*target = d
	}
}
