// Package config provides configuration management for doccheck using
// Viper for loading from files, environment variables and command-line
// flags.
//
// Settings come from .doccheck.yml (or the file named by --config or
// DOCCHECK_CONFIG_FILE), DOCCHECK_* environment variables and flags bound
// by the cmd package. Load applies defaults and validates the result.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	doccheckerrors "github.com/conneroisu/doccheck/internal/errors"
	"github.com/conneroisu/doccheck/internal/links"
	"github.com/conneroisu/doccheck/internal/logging"
	"github.com/conneroisu/doccheck/internal/scanner"
	"github.com/spf13/viper"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var schemePattern = regexp.MustCompile(`^[a-z][a-z0-9+.-]*$`)

type Config struct {
	Paths       []string     `mapstructure:"paths" yaml:"paths"`
	Exclude     []string     `mapstructure:"exclude" yaml:"exclude"`
	SkipSubdirs bool         `mapstructure:"skip_subdirs" yaml:"skip_subdirs"`
	Extensions  []string     `mapstructure:"extensions" yaml:"extensions"`
	Checkers    []string     `mapstructure:"checkers" yaml:"checkers"`
	Output      OutputConfig `mapstructure:"output" yaml:"output"`
	Links       LinksConfig  `mapstructure:"links" yaml:"links"`
	Log         LogConfig    `mapstructure:"log" yaml:"log"`
	Watch       WatchConfig  `mapstructure:"watch" yaml:"watch"`
}

type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

type LinksConfig struct {
	AllowedSchemes []string `mapstructure:"allowed_schemes" yaml:"allowed_schemes"`
	MaxLocations   int      `mapstructure:"max_locations" yaml:"max_locations"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type WatchConfig struct {
	// DebounceMS is the quiet period after the last change before a rerun.
	DebounceMS int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// SetDefaults registers every key with its default so that environment
// variables and Unmarshal see the full key set.
func SetDefaults() {
	viper.SetDefault("paths", []string{"."})
	viper.SetDefault("exclude", []string{})
	viper.SetDefault("skip_subdirs", false)
	viper.SetDefault("extensions", scanner.DefaultExtensions)
	viper.SetDefault("checkers", scanner.KnownCheckers)
	viper.SetDefault("output.format", FormatText)
	viper.SetDefault("output.file", "")
	viper.SetDefault("links.allowed_schemes", links.DefaultAllowedSchemes)
	viper.SetDefault("links.max_locations", links.DefaultMaxLocations)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("watch.debounce_ms", 300)
}

// Load reads the current Viper state into a Config and validates it.
func Load() (*Config, error) {
	SetDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, doccheckerrors.NewConfigError(doccheckerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("cannot decode configuration: %v", err))
	}

	config.Checkers = normalizeList(config.Checkers)
	config.Links.AllowedSchemes = normalizeList(config.Links.AllowedSchemes)
	config.Output.Format = strings.ToLower(strings.TrimSpace(config.Output.Format))
	config.Log.Format = strings.ToLower(strings.TrimSpace(config.Log.Format))
	for i, ext := range config.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		config.Extensions[i] = ext
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// ValidationError is one problem with one configuration field.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// Validate checks config values and returns a config error listing every
// problem found.
func Validate(config *Config) error {
	var problems []ValidationError
	add := func(field string, value interface{}, format string, args ...interface{}) {
		problems = append(problems, ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
	}

	for _, p := range config.Paths {
		if strings.TrimSpace(p) == "" {
			add("paths", p, "empty path")
		}
	}
	for _, pattern := range config.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			add("exclude", pattern, "bad pattern %q", pattern)
		}
	}
	if len(config.Extensions) == 0 {
		add("extensions", config.Extensions, "at least one extension is required")
	}
	for _, ext := range config.Extensions {
		if ext == "" || ext == "." {
			add("extensions", ext, "empty extension")
		}
	}

	if len(config.Checkers) == 0 {
		add("checkers", config.Checkers, "at least one checker is required")
	}
	for _, name := range config.Checkers {
		if !slices.Contains(scanner.KnownCheckers, name) {
			add("checkers", name, "unknown checker %q (known: %s)", name, strings.Join(scanner.KnownCheckers, ", "))
		}
	}

	switch config.Output.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		add("output.format", config.Output.Format, "unknown format %q (text, json, yaml)", config.Output.Format)
	}

	for _, s := range config.Links.AllowedSchemes {
		if !schemePattern.MatchString(s) {
			add("links.allowed_schemes", s, "invalid scheme %q", s)
		}
	}
	if config.Links.MaxLocations < 0 {
		add("links.max_locations", config.Links.MaxLocations, "must not be negative")
	}

	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		add("log.level", config.Log.Level, "%v", err)
	}
	switch config.Log.Format {
	case "", "text", "json":
	default:
		add("log.format", config.Log.Format, "unknown log format %q (text, json)", config.Log.Format)
	}

	if config.Watch.DebounceMS < 0 {
		add("watch.debounce_ms", config.Watch.DebounceMS, "must not be negative")
	}

	if len(problems) == 0 {
		return nil
	}
	msgs := make([]string, len(problems))
	for i, p := range problems {
		msgs[i] = p.Error()
	}
	return doccheckerrors.NewConfigError(doccheckerrors.ErrCodeConfigInvalid,
		"invalid configuration: "+strings.Join(msgs, "; "))
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
