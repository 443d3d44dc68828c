package treesitter

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrInvalidPattern is returned when a structural pattern does not parse
// cleanly with the target grammar.
var ErrInvalidPattern = errors.New("invalid structural pattern")

// Replacement is one structural rewrite in byte units of the source.
type Replacement struct {
	Position      int
	DeletedLength int
	Inserted      string
}

const metaPrefix = "__sg_"

var (
	metaVarRe   = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
	metaIdentRe = regexp.MustCompile(`^` + metaPrefix + `([A-Z_][A-Z0-9_]*)$`)
)

// Pattern is a compiled structural pattern. $NAME matches any named node and
// binds its text; a repeated $NAME must match the same text again. $_
// matches anything without binding.
type Pattern struct {
	tree *Tree
	root *sitter.Node
}

// CompilePattern parses pattern with lang. Metavariables are rewritten to
// identifiers so the grammar accepts them. A trailing ";" is tried when the
// bare pattern does not parse as a complete program.
func CompilePattern(ctx context.Context, lang *sitter.Language, pattern string) (*Pattern, error) {
	src := metaVarRe.ReplaceAllString(pattern, metaPrefix+"$1")
	for _, candidate := range []string{src, src + ";"} {
		tree, err := Parse(ctx, lang, []byte(candidate))
		if err != nil {
			return nil, err
		}
		if tree.HasError() {
			tree.Close()
			continue
		}
		root := tree.Root()
		for root.NamedChildCount() == 1 {
			root = root.NamedChild(0)
		}
		return &Pattern{tree: tree, root: root}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
}

func (p *Pattern) Close() { p.tree.Close() }

// Match is a structural match with the text bound to each metavariable.
type Match struct {
	Node     *sitter.Node
	Bindings map[string]string
}

// FindAll returns the outermost, non-overlapping matches of p in t, in
// source order.
func (p *Pattern) FindAll(t *Tree) []Match {
	var matches []Match
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		bindings := map[string]string{}
		if p.match(p.root, n, t.src, bindings) {
			matches = append(matches, Match{Node: n, Bindings: bindings})
			return
		}
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			walk(n.Child(i))
		}
	}
	walk(t.Root())
	return matches
}

func (p *Pattern) match(pat, target *sitter.Node, src []byte, bindings map[string]string) bool {
	patText := pat.Content(p.tree.src)
	if m := metaIdentRe.FindStringSubmatch(patText); m != nil {
		if !target.IsNamed() {
			return false
		}
		name, text := m[1], target.Content(src)
		if name == "_" {
			return true
		}
		if bound, ok := bindings[name]; ok {
			return bound == text
		}
		bindings[name] = text
		return true
	}

	if pat.Type() != target.Type() {
		return false
	}
	count := int(pat.ChildCount())
	if count == 0 {
		return target.ChildCount() == 0 && patText == target.Content(src)
	}
	if int(target.ChildCount()) != count {
		return false
	}
	for i := 0; i < count; i++ {
		if !p.match(pat.Child(i), target.Child(i), src, bindings) {
			return false
		}
	}
	return true
}

// Expand fills the metavariables of template with the match bindings.
// Unbound names are left as written.
func (m Match) Expand(template string) string {
	return metaVarRe.ReplaceAllStringFunc(template, func(v string) string {
		if text, ok := m.Bindings[strings.TrimPrefix(v, "$")]; ok {
			return text
		}
		return v
	})
}

// Replace rewrites every match of pattern in src with replacement.
func Replace(ctx context.Context, lang *sitter.Language, src, pattern, replacement string) ([]Replacement, error) {
	pat, err := CompilePattern(ctx, lang, pattern)
	if err != nil {
		return nil, err
	}
	defer pat.Close()

	tree, err := Parse(ctx, lang, []byte(src))
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var out []Replacement
	for _, m := range pat.FindAll(tree) {
		out = append(out, Replacement{
			Position:      int(m.Node.StartByte()),
			DeletedLength: int(m.Node.EndByte() - m.Node.StartByte()),
			Inserted:      m.Expand(replacement),
		})
	}
	return out, nil
}
