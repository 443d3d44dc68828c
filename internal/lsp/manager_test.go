package lsp

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/x/powernap/pkg/lsp/protocol"
)

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := findRoot(filepath.Join(nested, "main.go"), []string{"go.mod"}); got != root {
		t.Errorf("findRoot = %q, want %q", got, root)
	}
	if got := findRoot(filepath.Join(nested, "main.go"), []string{"no-such-marker"}); got != "" {
		t.Errorf("findRoot without marker = %q", got)
	}
}

func TestLookPathMissing(t *testing.T) {
	if got := lookPath("arbor-no-such-binary"); got != "" {
		t.Errorf("lookPath = %q", got)
	}
}

func TestSyncUnknownLanguage(t *testing.T) {
	m := NewManager()
	called := false
	m.SetCallback(func(string, []protocol.Diagnostic) { called = true })
	diags := m.Sync(context.Background(), filepath.Join(t.TempDir(), "notes.arbor-unknown"), "x", time.Millisecond)
	if diags != nil {
		t.Errorf("diags = %v", diags)
	}
	if called {
		t.Error("callback fired without servers")
	}
}
