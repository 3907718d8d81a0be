package config

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/datacard/internal/config/loader"
)

// FileName is the configuration file looked up in the working directory
// when no path is given.
const FileName = "datacard.toml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DATACARD_"

// Config is the complete tool configuration.
type Config struct {
	Log        LogConfig        `toml:"log"`
	Align      AlignConfig      `toml:"align"`
	Vocabulary VocabularyConfig `toml:"vocabulary"`
	Lint       LintConfig       `toml:"lint"`
	Watch      WatchConfig      `toml:"watch"`
	Highlight  HighlightConfig  `toml:"highlight"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // console or json
}

// AlignConfig configures the column aligner.
type AlignConfig struct {
	Pad          int  `toml:"pad"`
	OnSave       bool `toml:"onSave"`
	SkipComments bool `toml:"skipComments"`
}

// VocabularyConfig points at replacement grammar and description files.
// Empty paths use the embedded defaults.
type VocabularyConfig struct {
	Grammar      string `toml:"grammar"`
	Descriptions string `toml:"descriptions"`
}

// LintConfig lists Lua rule scripts and their per-call time limit.
type LintConfig struct {
	Scripts []string `toml:"scripts"`
	Timeout Duration `toml:"timeout"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Extensions []string `toml:"extensions"`
	Debounce   Duration `toml:"debounce"`
}

// HighlightConfig names the chroma style and formatter.
type HighlightConfig struct {
	Style     string `toml:"style"`
	Formatter string `toml:"formatter"`
}

// Duration is a time.Duration written as a string ("200ms", "1s").
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText writes the duration in time.Duration.String form.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Align: AlignConfig{
			Pad: 3,
		},
		Lint: LintConfig{
			Scripts: []string{},
			Timeout: Duration{time.Second},
		},
		Watch: WatchConfig{
			Extensions: []string{".txt", ".dc"},
			Debounce:   Duration{200 * time.Millisecond},
		},
		Highlight: HighlightConfig{
			Style:     "monokai",
			Formatter: "terminal256",
		},
	}
}

// envMapping routes variables whose names don't convert cleanly.
var envMapping = map[string]string{
	EnvPrefix + "ALIGN_ON_SAVE":       "align.onSave",
	EnvPrefix + "ALIGN_SKIP_COMMENTS": "align.skipComments",
}

// Load builds the configuration from the defaults, the TOML file at path
// and DATACARD_ environment variables, in that order of precedence.
// A missing file is not an error. The result is not validated.
func Load(path string) (*Config, error) {
	return load(loader.File{Path: path}, loader.NewEnvLoader(EnvPrefix, envMapping))
}

func load(layers ...loader.Loader) (*Config, error) {
	merged, err := toMap(Default())
	if err != nil {
		return nil, err
	}

	for _, l := range layers {
		data, err := l.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, data)
	}

	return fromMap(merged)
}

func toMap(c *Config) (map[string]any, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return m, nil
}

func fromMap(m map[string]any) (*Config, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	var c Config
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &c, nil
}

// Encode writes c as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

var logFormats = []string{"console", "json"}

// Validate reports every invalid field, joined into one error. Each
// failure is a *FieldError that matches ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	fail := func(field string, value any, msg string) {
		errs = append(errs, &FieldError{Field: field, Value: value, Message: msg})
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil || c.Log.Level == "" {
		fail("log.level", c.Log.Level, "unknown log level")
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		fail("log.format", c.Log.Format, "must be console or json")
	}
	if c.Align.Pad < 1 {
		fail("align.pad", c.Align.Pad, "must be at least 1")
	}
	if c.Lint.Timeout.Duration <= 0 {
		fail("lint.timeout", c.Lint.Timeout, "must be positive")
	}
	if c.Watch.Debounce.Duration <= 0 {
		fail("watch.debounce", c.Watch.Debounce, "must be positive")
	}
	if _, ok := styles.Registry[c.Highlight.Style]; !ok {
		fail("highlight.style", c.Highlight.Style, "unknown style")
	}
	if _, ok := formatters.Registry[c.Highlight.Formatter]; !ok {
		fail("highlight.formatter", c.Highlight.Formatter, "unknown formatter")
	}

	return errors.Join(errs...)
}
