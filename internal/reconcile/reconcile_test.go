package reconcile

import (
	"strings"
	"testing"

	"github.com/xonecas/arbor/internal/edit"
	"github.com/xonecas/arbor/internal/rope"
)

func apply(t *testing.T, text string, tx edit.Transaction) string {
	t.Helper()
	r := rope.FromString(text)
	for _, e := range tx.Edits() {
		got, err := r.Slice(e.Range.Start, e.Range.End)
		if err != nil {
			t.Fatalf("slice %v: %v", e.Range, err)
		}
		if got != e.Old {
			t.Fatalf("edit %v: old %q, text has %q", e.Range, e.Old, got)
		}
		if r, err = r.Remove(e.Range.Start, e.Range.End); err != nil {
			t.Fatal(err)
		}
		if r, err = r.Insert(e.Range.Start, e.New); err != nil {
			t.Fatal(err)
		}
	}
	return r.String()
}

func lines(ls ...string) string { return strings.Join(ls, "\n") }

func TestDiff(t *testing.T) {
	tests := []struct {
		name      string
		before    string
		after     string
		wantEdits int
	}{
		{
			name:      "empty line removal",
			before:    lines(`let y = "2";`, `let z = 3;`, ``, `let a = 4;`),
			after:     lines(`let y = "2";`, `let z = 3;`, `let a = 4;`),
			wantEdits: 1,
		},
		{
			name: "all kinds of edits",
			before: lines(
				`let x = "1";`,
				`let y = "2";`,
				`let z = 3;`,
				`let a = 4;`,
				`let b = 4;`,
				`// This line will be removed`,
			),
			after: lines(
				`let x = "this line is replaced`,
				`         with multiline content"`,
				`let y = "2";`,
				`let z = 3;`,
				`// This is a newly inserted line`,
				`let a = 4;`,
				`let b = 4;`,
			),
			wantEdits: 3,
		},
		{
			name:      "whitespace only line",
			before:    lines("fn main() {", "    let x = x;", "   ", "let z = z;", "", "    let y = y;", "}"),
			after:     lines("fn main() {", "    let x = x;", "", "    let z = z;", "", "    let y = y;", "}"),
			wantEdits: 1,
		},
		{name: "newline insertion", before: "", after: "\n", wantEdits: 1},
		{name: "newline removal", before: "\n", after: "", wantEdits: 1},
		{name: "unchanged", before: "a\nb\n", after: "a\nb\n", wantEdits: 0},
		{name: "multibyte", before: "héllo\nwörld\n", after: "héllo\nwörld!\nend", wantEdits: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := Diff(tt.before, tt.after)
			if err != nil {
				t.Fatalf("Diff: %v", err)
			}
			if got := len(tx.Edits()); got != tt.wantEdits {
				t.Errorf("edits = %d, want %d: %+v", got, tt.wantEdits, tx.Edits())
			}
			if len(tx.Groups()) != len(tx.Edits()) {
				t.Errorf("groups = %d, edits = %d", len(tx.Groups()), len(tx.Edits()))
			}
			if got := apply(t, tt.before, tx); got != tt.after {
				t.Errorf("applied = %q, want %q", got, tt.after)
			}
		})
	}
}

func TestDiffPreservesUnchangedLines(t *testing.T) {
	before := "one\ntwo\nthree\nfour\n"
	tx, err := Diff(before, "one\n2\nthree\nfour\n")
	if err != nil {
		t.Fatal(err)
	}
	edits := tx.Edits()
	if len(edits) != 1 {
		t.Fatalf("edits = %+v", edits)
	}
	want := edit.Edit{Range: edit.Range{Start: 4, End: 8}, Old: "two\n", New: "2\n"}
	if edits[0] != want {
		t.Errorf("edit = %+v, want %+v", edits[0], want)
	}
}

func TestDiffRoundTrip(t *testing.T) {
	texts := []string{
		"",
		"a",
		"a\n",
		"a\nb\nc\n",
		"x\ny\nz",
		"b\na\nc\nd\n\n\ne",
		"日本\n語\n",
	}
	for _, before := range texts {
		for _, after := range texts {
			tx, err := Diff(before, after)
			if err != nil {
				t.Fatalf("Diff(%q, %q): %v", before, after, err)
			}
			if got := apply(t, before, tx); got != after {
				t.Errorf("Diff(%q, %q) applied = %q", before, after, got)
			}
			if got := apply(t, after, tx.Inverse()); got != before {
				t.Errorf("Inverse of Diff(%q, %q) applied = %q", before, after, got)
			}
		}
	}
}
