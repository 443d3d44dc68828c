// Package config handles configuration loading from TOML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/rs/zerolog"

	"github.com/xonecas/arbor/internal/language"
	"github.com/xonecas/arbor/internal/search"
)

// Config is the root configuration structure.
type Config struct {
	Log       LogConfig                 `toml:"log"`
	Editor    EditorConfig              `toml:"editor"`
	Highlight HighlightConfig           `toml:"highlight"`
	Search    SearchConfig              `toml:"search"`
	Format    FormatConfig              `toml:"format"`
	LSP       LSPConfig                 `toml:"lsp"`
	Journal   JournalConfig             `toml:"journal"`
	Languages map[string]LanguageConfig `toml:"languages"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// EditorConfig holds buffer settings.
type EditorConfig struct {
	// HistoryLimit caps the undo stack. Zero keeps every entry.
	HistoryLimit int  `toml:"history_limit"`
	TreeSitter   bool `toml:"tree_sitter"`
}

// HighlightConfig holds syntax highlighting settings.
type HighlightConfig struct {
	// Theme is a chroma style name.
	Theme   string `toml:"theme"`
	Workers int    `toml:"workers"`
}

// SearchConfig bounds find-replace work.
type SearchConfig struct {
	MaxReplacements int `toml:"max_replacements"`
	MatchTimeoutMS  int `toml:"match_timeout_ms"`
}

// Limits converts the settings for the search package.
func (s SearchConfig) Limits() search.Limits {
	return search.Limits{
		MaxReplacements: s.MaxReplacements,
		MatchTimeout:    time.Duration(s.MatchTimeoutMS) * time.Millisecond,
	}
}

// FormatConfig controls formatter execution.
type FormatConfig struct {
	TimeoutMS int `toml:"timeout_ms"`
	// Blocked lists extra command names formatters may not run.
	Blocked []string `toml:"blocked"`
}

func (f FormatConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutMS) * time.Millisecond
}

// LSPConfig controls diagnostics collection.
type LSPConfig struct {
	TimeoutMS int `toml:"timeout_ms"`
}

func (l LSPConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutMS) * time.Millisecond
}

// JournalConfig controls the save journal.
type JournalConfig struct {
	// Path of the SQLite database. Defaults to journal.db in DataDir.
	Path string `toml:"path"`
	// Keep is the number of saved versions retained per file.
	Keep int `toml:"keep"`
}

// LanguageConfig overrides the built-in settings of one language.
type LanguageConfig struct {
	Formatter *string `toml:"formatter"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log:       LogConfig{Level: "warn"},
		Editor:    EditorConfig{TreeSitter: true},
		Highlight: HighlightConfig{Theme: "github-dark", Workers: 2},
		Search: SearchConfig{
			MaxReplacements: search.DefaultLimits.MaxReplacements,
			MatchTimeoutMS:  int(search.DefaultLimits.MatchTimeout / time.Millisecond),
		},
		Format:    FormatConfig{TimeoutMS: 10_000},
		LSP:       LSPConfig{TimeoutMS: 5_000},
		Journal:   JournalConfig{Keep: 20},
		Languages: make(map[string]LanguageConfig),
	}
}

// Load reads configuration from a TOML file over the defaults and applies
// environment variable overrides. An empty path loads only the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown config keys: %v", undecoded)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	var errs []error

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level=%q is invalid: %v", c.Log.Level, err))
	}
	if c.Editor.HistoryLimit < 0 {
		errs = append(errs, fmt.Errorf("editor.history_limit=%d must not be negative", c.Editor.HistoryLimit))
	}
	if _, ok := styles.Registry[c.Highlight.Theme]; !ok {
		errs = append(errs, fmt.Errorf("highlight.theme=%q is not a known style", c.Highlight.Theme))
	}
	if c.Highlight.Workers < 1 || c.Highlight.Workers > 64 {
		errs = append(errs, fmt.Errorf("highlight.workers=%d must be between 1 and 64", c.Highlight.Workers))
	}
	if c.Search.MaxReplacements < 0 {
		errs = append(errs, fmt.Errorf("search.max_replacements=%d must not be negative", c.Search.MaxReplacements))
	}
	if c.Search.MatchTimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("search.match_timeout_ms=%d must not be negative", c.Search.MatchTimeoutMS))
	}
	if c.Format.TimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("format.timeout_ms=%d must not be negative", c.Format.TimeoutMS))
	}
	if c.LSP.TimeoutMS <= 0 {
		errs = append(errs, fmt.Errorf("lsp.timeout_ms=%d must be positive", c.LSP.TimeoutMS))
	}
	if c.Journal.Keep < 1 {
		errs = append(errs, fmt.Errorf("journal.keep=%d must be at least 1", c.Journal.Keep))
	}

	reg := language.NewRegistry()
	ids := make([]string, 0, len(c.Languages))
	for id := range c.Languages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if reg.Get(id) == nil {
			errs = append(errs, fmt.Errorf("languages.%s: unknown language", id))
		}
	}

	return errors.Join(errs...)
}

// Apply copies the language overrides into reg.
func (c *Config) Apply(reg *language.Registry) {
	for id, lc := range c.Languages {
		if lc.Formatter != nil {
			reg.SetFormatter(id, *lc.Formatter)
		}
	}
}

// JournalPath returns the configured journal location or the default one.
func (c *Config) JournalPath() (string, error) {
	if c.Journal.Path != "" {
		return c.Journal.Path, nil
	}
	dir, err := EnsureDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "journal.db"), nil
}

func applyEnvOverrides(cfg *Config) {
	for _, setter := range []struct {
		env   string
		apply func(string)
	}{
		{"ARBOR_THEME", func(v string) {
			if v != "" {
				cfg.Highlight.Theme = v
			}
		}},
		{"ARBOR_LOG_LEVEL", func(v string) {
			if v != "" {
				cfg.Log.Level = v
			}
		}},
	} {
		setter.apply(os.Getenv(setter.env))
	}
}

// DataDir returns the path to the arbor data directory (~/.config/arbor).
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "arbor"), nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}
	return dir, nil
}
