// Package search implements the find-replace modes that work on plain text.
package search

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// Mode selects how Config.Search is interpreted.
type Mode int

const (
	ModeRegex Mode = iota
	ModeNamingConventionAgnostic
	ModeAstGrep
)

func (m Mode) String() string {
	switch m {
	case ModeRegex:
		return "regex"
	case ModeNamingConventionAgnostic:
		return "naming-convention-agnostic"
	case ModeAstGrep:
		return "ast-grep"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeRegex, ModeNamingConventionAgnostic, ModeAstGrep} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown search mode %q", s)
}

// RegexConfig holds the flags of ModeRegex.
type RegexConfig struct {
	// Escaped treats Search and Replacement as literal text.
	Escaped        bool
	CaseSensitive  bool
	MatchWholeWord bool
}

// Config describes one find-replace request.
type Config struct {
	Mode        Mode
	Search      string
	Replacement string
	Regex       RegexConfig
}

// Limits bound the cost of regex replacement on very large texts.
type Limits struct {
	MaxReplacements int
	MatchTimeout    time.Duration
}

// DefaultLimits are used when no configuration overrides them.
var DefaultLimits = Limits{MaxReplacements: 100_000, MatchTimeout: 2 * time.Second}

// ErrEmptySearch is returned for a request without a search term.
var ErrEmptySearch = errors.New("empty search")

// Compile builds the regular expression for a ModeRegex config.
func (c Config) Compile(l Limits) (*regexp2.Regexp, error) {
	if c.Search == "" {
		return nil, ErrEmptySearch
	}
	pattern := c.Search
	if c.Regex.Escaped {
		pattern = regexp2.Escape(pattern)
	}
	if c.Regex.MatchWholeWord {
		pattern = `\b` + pattern + `\b`
	}
	opts := regexp2.RegexOptions(regexp2.None)
	if !c.Regex.CaseSensitive {
		opts |= regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", c.Search, err)
	}
	if l.MatchTimeout > 0 {
		re.MatchTimeout = l.MatchTimeout
	}
	return re, nil
}

// ReplaceRegex performs one bounded replacement pass over text. Capture
// groups are referenced as $1 or ${name} unless the config is escaped.
func ReplaceRegex(text string, c Config, l Limits) (string, error) {
	re, err := c.Compile(l)
	if err != nil {
		return "", err
	}
	repl := c.Replacement
	if c.Regex.Escaped {
		repl = strings.ReplaceAll(repl, "$", "$$")
	}
	count := l.MaxReplacements
	if count <= 0 {
		count = -1
	}
	out, err := re.Replace(text, repl, -1, count)
	if err != nil {
		return "", fmt.Errorf("replace: %w", err)
	}
	return out, nil
}

var wordRe = regexp2.MustCompile(`\b\w+`, regexp2.None)

// Words returns the distinct words of text in order of first appearance.
func Words(text string) []string {
	var words []string
	seen := map[string]bool{}
	m, _ := wordRe.FindStringMatch(text)
	for m != nil {
		w := m.String()
		if !seen[w] {
			seen[w] = true
			words = append(words, w)
		}
		m, _ = wordRe.FindNextMatch(m)
	}
	return words
}

// WordBefore returns the last word of text starting before character index
// c, or "" when there is none.
func WordBefore(text string, c int) string {
	var last string
	m, _ := wordRe.FindStringMatch(text)
	for m != nil && m.Index < c {
		last = m.String()
		m, _ = wordRe.FindNextMatch(m)
	}
	return last
}
