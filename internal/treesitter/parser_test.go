package treesitter

import (
	"context"
	"errors"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/rust"
)

func parseGo(t *testing.T, src string) *Tree {
	t.Helper()
	tree, err := Parse(context.Background(), golang.GetLanguage(), []byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	t.Cleanup(tree.Close)
	return tree
}

func TestParseWithoutGrammar(t *testing.T) {
	if _, err := Parse(context.Background(), nil, []byte("x")); !errors.Is(err, ErrNoGrammar) {
		t.Fatalf("got %v, want ErrNoGrammar", err)
	}
}

func TestPreOrderVisitsAncestorsFirst(t *testing.T) {
	tree := parseGo(t, "package main\n\nfunc f() {}\n")
	var types []string
	PreOrder(tree.Root(), func(n *sitter.Node) bool {
		types = append(types, n.Type())
		return true
	})
	if len(types) == 0 || types[0] != "source_file" {
		t.Fatalf("types = %v", types)
	}
	fn, ident := -1, -1
	for i, typ := range types {
		switch typ {
		case "function_declaration":
			fn = i
		case "identifier":
			if ident < 0 {
				ident = i
			}
		}
	}
	if fn < 0 || ident < fn {
		t.Errorf("function_declaration at %d should precede its identifier at %d", fn, ident)
	}

	var last string
	PostOrder(tree.Root(), func(n *sitter.Node) bool {
		last = n.Type()
		return true
	})
	if last != "source_file" {
		t.Errorf("post-order should end at the root, ended at %q", last)
	}
}

func TestDescendantForByteRange(t *testing.T) {
	src := "package main\n\nfunc add(a int) int { return a }\n"
	tree := parseGo(t, src)

	// "add" starts at byte 19.
	n := DescendantForByteRange(tree.Root(), 19, 22)
	if n.Type() != "identifier" || n.Content(tree.Source()) != "add" {
		t.Errorf("got %s %q", n.Type(), n.Content(tree.Source()))
	}

	// A range spanning the name and the parameter list resolves to the
	// function declaration.
	n = DescendantForByteRange(tree.Root(), 19, 29)
	if n.Type() != "function_declaration" {
		t.Errorf("got %s", n.Type())
	}
	if IsRoot(n) {
		t.Error("function declaration is not the root")
	}
	if !IsRoot(tree.Root()) {
		t.Error("root should have no parent")
	}
}

func TestReplaceSwapsArguments(t *testing.T) {
	src := "fn main() { replace(x + 1, f(2)); replace(a,b) }"
	reps, err := Replace(context.Background(), rust.GetLanguage(), src, "replace($X,$Y)", "replace($Y,$X)")
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if len(reps) != 2 {
		t.Fatalf("got %d replacements, want 2", len(reps))
	}
	out := src
	for i := len(reps) - 1; i >= 0; i-- {
		r := reps[i]
		out = out[:r.Position] + r.Inserted + out[r.Position+r.DeletedLength:]
	}
	want := "fn main() { replace(f(2),x + 1); replace(b,a) }"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestPatternBackReference(t *testing.T) {
	ctx := context.Background()
	pat, err := CompilePattern(ctx, rust.GetLanguage(), "f($A, $A)")
	if err != nil {
		t.Fatalf("CompilePattern: %v", err)
	}
	defer pat.Close()

	tree, err := Parse(ctx, rust.GetLanguage(), []byte("fn g() { f(1, 1); f(1, 2); }"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	matches := pat.FindAll(tree)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if got := matches[0].Bindings["A"]; got != "1" {
		t.Errorf("A = %q", got)
	}
}

func TestWildcardDoesNotBind(t *testing.T) {
	ctx := context.Background()
	reps, err := Replace(ctx, rust.GetLanguage(), "fn g() { h(1, 2); }", "h($_, $B)", "h($B)")
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if len(reps) != 1 || reps[0].Inserted != "h(2)" {
		t.Fatalf("replacements = %+v", reps)
	}
}
