package buffer

import (
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/x/exp/golden"

	"github.com/xonecas/arbor/internal/edit"
	"github.com/xonecas/arbor/internal/language"
	"github.com/xonecas/arbor/internal/search"
	"github.com/xonecas/arbor/internal/selection"
)

func TestParentLines(t *testing.T) {
	tests := []struct {
		name string
		lang string
		text string
		line int
	}{
		{"yaml", "yaml", "\n- spongebob\n- who:\n  - lives\n  - in:\n    - a\n    - pineapple\n  - under\n", 6},
		{"rust", "rust", "\nfn f(\n  x: X\n) -> Result<\n  A,\n  B\n> {\n  hello\n}", 5},
	}
	reg := language.NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(reg.Get(tt.lang), tt.text)
			lines, err := b.ParentLines(tt.line)
			if err != nil {
				t.Fatalf("ParentLines: %v", err)
			}
			contents := make([]string, len(lines))
			for i, l := range lines {
				if l.Line >= tt.line {
					t.Errorf("line %d is not above %d", l.Line, tt.line)
				}
				contents[i] = l.Content
			}
			golden.RequireEqual(t, []byte(strings.Join(contents, "\n")))
		})
	}
}

func TestParentLinesWithoutTree(t *testing.T) {
	lines, err := New(nil, "a\n  b\n").ParentLines(1)
	if err != nil || len(lines) != 0 {
		t.Errorf("ParentLines = %v, %v", lines, err)
	}
}

func TestNodeQueries(t *testing.T) {
	src := "fn main() { let x = 1; }"
	b := rust(t, src)

	if n := b.NearestNodeAfterChar(3); n == nil || n.Type() != "identifier" {
		t.Errorf("NearestNodeAfterChar(3) = %v", n)
	}
	if n := b.NextToken(0, false); n == nil || n.Type() != "fn" {
		t.Errorf("NextToken(0, false) = %v", n)
	}
	if n := b.NextToken(0, true); n == nil || n.Content([]byte(src)) != "main" {
		t.Errorf("NextToken(0, true) = %v", n)
	}

	tests := []struct {
		name       string
		sel        edit.Range
		largestEnd bool
		want       string
	}{
		{"identifier", edit.Range{Start: 3, End: 7}, false, "identifier"},
		{"cursor on keyword", edit.Range{Start: 0, End: 0}, false, "fn"},
		{"largest end", edit.Range{Start: 0, End: 0}, true, "function_item"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := b.CurrentNode(selection.New(tt.sel), tt.largestEnd)
			if err != nil {
				t.Fatal(err)
			}
			if n == nil || n.Type() != tt.want {
				t.Errorf("CurrentNode = %v, want %s", n, tt.want)
			}
		})
	}

	if !b.GivenRangeIsNode(edit.Range{Start: 3, End: 7}) {
		t.Error("main should be a node")
	}
	if b.GivenRangeIsNode(edit.Range{Start: 2, End: 7}) {
		t.Error("2..7 should not be a node")
	}
	if r, err := b.NodeRange(b.NearestNodeAfterChar(3)); err != nil || r != (edit.Range{Start: 3, End: 7}) {
		t.Errorf("NodeRange = %v, %v", r, err)
	}
}

func TestNodeQueriesWithoutTree(t *testing.T) {
	b := New(nil, "fn main() {}")
	if b.NearestNodeAfterChar(0) != nil || b.NextToken(0, false) != nil {
		t.Error("plain buffer has no nodes")
	}
	if n, err := b.CurrentNode(selection.New(edit.Range{}), false); n != nil || err != nil {
		t.Errorf("CurrentNode = %v, %v", n, err)
	}
	if b.HasSyntaxErrorAt(edit.Range{Start: 0, End: 2}) {
		t.Error("plain buffer has no syntax errors")
	}
}

func TestHasSyntaxErrorAt(t *testing.T) {
	broken := rust(t, "fn main( {")
	if !broken.HasSyntaxErrorAt(edit.Range{Start: 0, End: broken.Len()}) {
		t.Error("expected a syntax error")
	}
	ok := rust(t, "fn main() {}")
	if ok.HasSyntaxErrorAt(edit.Range{Start: 0, End: ok.Len()}) {
		t.Error("unexpected syntax error")
	}
}

func TestReplace(t *testing.T) {
	tests := []struct {
		name string
		lang string
		in   string
		cfg  search.Config
		want string
	}{
		{
			name: "regex",
			in:   "foo bar foo",
			cfg:  search.Config{Mode: search.ModeRegex, Search: "f(o+)", Replacement: "g$1"},
			want: "goo bar goo",
		},
		{
			name: "escaped",
			in:   "a.b ab",
			cfg:  search.Config{Mode: search.ModeRegex, Search: "a.b", Replacement: "$x", Regex: search.RegexConfig{Escaped: true}},
			want: "$x ab",
		},
		{
			name: "naming agnostic",
			in:   "fooBar := foo_bar",
			cfg:  search.Config{Mode: search.ModeNamingConventionAgnostic, Search: "foo bar", Replacement: "spam eggs"},
			want: "spamEggs := spam_eggs",
		},
		{
			name: "ast grep",
			lang: "rust",
			in:   "fn main() { replace(x + 1, f(2)); replace(a,b) }",
			cfg:  search.Config{Mode: search.ModeAstGrep, Search: "replace($X,$Y)", Replacement: "replace($Y,$X)"},
			want: "fn main() { replace(f(2),x + 1); replace(b,a) }",
		},
		{
			name: "ast grep multibyte",
			lang: "rust",
			in:   "fn main() { let s = \"é\"; replace(a,b) }",
			cfg:  search.Config{Mode: search.ModeAstGrep, Search: "replace($X,$Y)", Replacement: "replace($Y,$X)"},
			want: "fn main() { let s = \"é\"; replace(b,a) }",
		},
		{
			name: "ast grep without grammar",
			in:   "replace(a,b)",
			cfg:  search.Config{Mode: search.ModeAstGrep, Search: "replace($X,$Y)", Replacement: "replace($Y,$X)"},
			want: "replace(a,b)",
		},
	}
	reg := language.NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lang *language.Language
			if tt.lang != "" {
				lang = reg.Get(tt.lang)
			}
			b := New(lang, tt.in)
			modified, _, _, err := b.Replace(context.Background(), tt.cfg, cursor(0), 0)
			if err != nil {
				t.Fatalf("Replace: %v", err)
			}
			if b.Content() != tt.want {
				t.Errorf("got  %q\nwant %q", b.Content(), tt.want)
			}
			if modified != (tt.in != tt.want) {
				t.Errorf("modified = %v", modified)
			}
			if modified {
				if _, _, _, err := b.Undo(0); err != nil {
					t.Fatal(err)
				}
				if b.Content() != tt.in {
					t.Errorf("undo gave %q", b.Content())
				}
			}
		})
	}
}

func TestReplaceErrors(t *testing.T) {
	b := New(nil, "abc")
	if _, _, _, err := b.Replace(context.Background(), search.Config{Search: "("}, cursor(0), 0); err == nil {
		t.Error("invalid regex should fail")
	}
	if _, _, _, err := b.Replace(context.Background(), search.Config{}, cursor(0), 0); err == nil {
		t.Error("empty search should fail")
	}
	if b.Content() != "abc" || b.CanUndo() {
		t.Error("failed replace changed the buffer")
	}
}
