package search

import (
	"errors"
	"reflect"
	"testing"
)

func TestReplaceRegex(t *testing.T) {
	tests := []struct {
		name string
		text string
		cfg  Config
		want string
	}{
		{
			name: "escaped literal, case insensitive",
			text: "hel. help hel.o",
			cfg:  Config{Search: "hel.", Replacement: "wow", Regex: RegexConfig{Escaped: true}},
			want: "wow help wowo",
		},
		{
			name: "capture group",
			text: "123x456",
			cfg:  Config{Search: `(\d+)`, Replacement: "($1)", Regex: RegexConfig{CaseSensitive: true}},
			want: "(123)x(456)",
		},
		{
			name: "whole word",
			text: "cat concat cat",
			cfg:  Config{Search: "cat", Replacement: "dog", Regex: RegexConfig{MatchWholeWord: true}},
			want: "dog concat dog",
		},
		{
			name: "case sensitive",
			text: "Foo foo",
			cfg:  Config{Search: "foo", Replacement: "bar", Regex: RegexConfig{CaseSensitive: true}},
			want: "Foo bar",
		},
		{
			name: "escaped replacement is literal",
			text: "price",
			cfg:  Config{Search: "price", Replacement: "$1.00", Regex: RegexConfig{Escaped: true}},
			want: "$1.00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReplaceRegex(tt.text, tt.cfg, DefaultLimits)
			if err != nil {
				t.Fatalf("ReplaceRegex: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReplaceRegexBounded(t *testing.T) {
	got, err := ReplaceRegex("aaaa", Config{Search: "a", Replacement: "b"}, Limits{MaxReplacements: 2})
	if err != nil {
		t.Fatalf("ReplaceRegex: %v", err)
	}
	if got != "bbaa" {
		t.Errorf("got %q", got)
	}
}

func TestReplaceRegexErrors(t *testing.T) {
	if _, err := ReplaceRegex("x", Config{}, DefaultLimits); !errors.Is(err, ErrEmptySearch) {
		t.Errorf("empty search: got %v", err)
	}
	if _, err := ReplaceRegex("x", Config{Search: "("}, DefaultLimits); err == nil {
		t.Error("expected compile error")
	}
}

func TestSplitWords(t *testing.T) {
	tests := map[string][]string{
		"fooBar":        {"foo", "bar"},
		"FooBar":        {"foo", "bar"},
		"foo_bar":       {"foo", "bar"},
		"FOO-BAR":       {"foo", "bar"},
		"HTTPServer_id": {"http", "server", "id"},
		"foo bar":       {"foo", "bar"},
		"v2Parser":      {"v2", "parser"},
	}
	for in, want := range tests {
		if got := SplitWords(in); !reflect.DeepEqual(got, want) {
			t.Errorf("SplitWords(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestReplaceNamingAgnostic(t *testing.T) {
	text := "fooBar FooBar foo_bar FOO_BAR foo-bar FOO-BAR Foo Bar foo bar FOO BAR"
	got, err := ReplaceNamingAgnostic(text, "foo bar", "spam eggs")
	if err != nil {
		t.Fatalf("ReplaceNamingAgnostic: %v", err)
	}
	want := "spamEggs SpamEggs spam_eggs SPAM_EGGS spam-eggs SPAM-EGGS Spam Eggs spam eggs SPAM EGGS"
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestWords(t *testing.T) {
	text := "foo bar foo baz_1"
	if got, want := Words(text), []string{"foo", "bar", "baz_1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Words = %v, want %v", got, want)
	}
	if got := WordBefore(text, 9); got != "foo" {
		t.Errorf("WordBefore(9) = %q", got)
	}
	if got := WordBefore(text, 0); got != "" {
		t.Errorf("WordBefore(0) = %q", got)
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeRegex, ModeNamingConventionAgnostic, ModeAstGrep} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m, got, err)
		}
	}
	if _, err := ParseMode("fuzzy"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
