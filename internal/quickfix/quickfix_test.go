package quickfix

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/xonecas/arbor/internal/edit"
	"github.com/xonecas/arbor/internal/search"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSearchPositions(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.txt":     "hello world\nsay héllo, hello\n",
		"b/c.txt":   "nothing here\n",
		"b/d.txt":   "HELLO\n",
		"bin.dat":   "hello\x00\n",
		"skip.log":  "hello\n",
		".gitignore": "*.log\n",
	})

	items, err := Search(context.Background(), Options{
		Root:   root,
		Config: search.Config{Search: "hello"},
		Limits: search.DefaultLimits,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	byFile := map[string][]Item{}
	for _, it := range items {
		rel, _ := filepath.Rel(root, it.Location.Path)
		byFile[rel] = append(byFile[rel], it)
	}
	if len(byFile) != 2 {
		t.Fatalf("matched files = %v", byFile)
	}
	a := byFile["a.txt"]
	if len(a) != 2 {
		t.Fatalf("a.txt items = %+v", a)
	}
	// Columns count characters, so "é" occupies one column.
	want := edit.PositionRange{Start: edit.Position{Line: 1, Column: 11}, End: edit.Position{Line: 1, Column: 16}}
	if a[1].Location.Range != want {
		t.Errorf("second match = %v, want %v", a[1].Location.Range, want)
	}
	if a[1].Info != "say héllo, hello" {
		t.Errorf("info = %q", a[1].Info)
	}
	if len(byFile[filepath.Join("b", "d.txt")]) != 1 {
		t.Error("case-insensitive match in b/d.txt missing")
	}
}

func TestSearchMaxResults(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 20; i++ {
		files[filepath.Join("file", string(rune('a'+i))+".txt")] = "test\n"
	}
	writeFiles(t, root, files)

	items, err := Search(context.Background(), Options{
		Root:       root,
		Config:     search.Config{Search: "test"},
		MaxResults: 5,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 5 {
		t.Errorf("expected 5 results (max), got %d", len(items))
	}
}

func TestSearchCancelled(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "x\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Search(ctx, Options{Root: root, Config: search.Config{Search: "x"}}); err == nil {
		t.Error("expected context error")
	}
}

func TestItemString(t *testing.T) {
	it := Item{Location: Location{Path: "a.go", Range: edit.PositionRange{Start: edit.Position{Line: 2, Column: 4}}}, Info: "x := 1"}
	if got := it.String(); got != "a.go:3:5: x := 1" {
		t.Errorf("got %q", got)
	}
	moved := it.WithRange(edit.PositionRange{Start: edit.Position{Line: 9}})
	if moved.Location.Range.Start.Line != 9 || it.Location.Range.Start.Line != 2 {
		t.Error("WithRange must copy")
	}
}
