package edit

import "testing"

// applyAll applies the normalized edits of tx to text.
func applyAll(t *testing.T, text string, tx Transaction) string {
	t.Helper()
	r := []rune(text)
	for _, e := range tx.Edits() {
		if e.Range.Start < 0 || e.Range.End > len(r) {
			t.Fatalf("edit %v out of range for %q", e.Range, string(r))
		}
		if got := string(r[e.Range.Start:e.Range.End]); got != e.Old {
			t.Fatalf("edit %v: old %q, text has %q", e.Range, e.Old, got)
		}
		next := append([]rune{}, r[:e.Range.Start]...)
		next = append(next, []rune(e.New)...)
		r = append(next, r[e.Range.End:]...)
	}
	return string(r)
}

func TestTransactionApplyAndInverse(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		edits []Edit
		want  string
	}{
		{
			name: "disjoint replacements",
			text: "hello world",
			edits: []Edit{
				{Range: Range{0, 5}, Old: "hello", New: "hi"},
				{Range: Range{6, 11}, Old: "world", New: "there"},
			},
			want: "hi there",
		},
		{
			name: "declared out of order",
			text: "abc def",
			edits: []Edit{
				{Range: Range{4, 7}, Old: "def", New: "XYZW"},
				{Range: Range{0, 3}, Old: "abc", New: ""},
			},
			want: " XYZW",
		},
		{
			name: "two insertions at the same point",
			text: "ab",
			edits: []Edit{
				{Range: Range{1, 1}, New: "1"},
				{Range: Range{1, 1}, New: "2"},
			},
			want: "a12b",
		},
		{
			name: "deletion followed by insertion at its end",
			text: "abcdef",
			edits: []Edit{
				{Range: Range{1, 3}, Old: "bc"},
				{Range: Range{3, 3}, New: "X"},
			},
			want: "aXdef",
		},
		{
			name: "multibyte",
			text: "é世x",
			edits: []Edit{
				{Range: Range{1, 2}, Old: "世", New: "ab"},
				{Range: Range{2, 3}, Old: "x", New: "ü"},
			},
			want: "éabü",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := FromEdits(tt.edits...)
			got := applyAll(t, tt.text, tx)
			if got != tt.want {
				t.Fatalf("apply = %q, want %q", got, tt.want)
			}
			back := applyAll(t, got, tx.Inverse())
			if back != tt.text {
				t.Fatalf("inverse = %q, want %q", back, tt.text)
			}
		})
	}
}

func TestRangeApplyEdit(t *testing.T) {
	tests := []struct {
		name   string
		r      Range
		e      Edit
		want   Range
		wantOK bool
	}{
		{"before", Range{0, 2}, Edit{Range: Range{3, 5}, New: "x"}, Range{0, 2}, true},
		{"touching end", Range{0, 3}, Edit{Range: Range{3, 3}, New: "xx"}, Range{0, 3}, true},
		{"after", Range{6, 8}, Edit{Range: Range{2, 4}, New: "abcd"}, Range{8, 10}, true},
		{"deleted", Range{3, 5}, Edit{Range: Range{2, 6}}, Range{}, false},
		{"covered and replaced", Range{3, 5}, Edit{Range: Range{2, 6}, New: "x"}, Range{2, 3}, true},
		{"edit inside", Range{0, 10}, Edit{Range: Range{2, 4}, New: "abc"}, Range{0, 11}, true},
		{"head overlap", Range{4, 10}, Edit{Range: Range{2, 6}, New: "z"}, Range{3, 7}, true},
		{"tail overlap", Range{0, 5}, Edit{Range: Range{3, 8}, New: "z"}, Range{0, 3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.r.ApplyEdit(tt.e)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNonEmptySelections(t *testing.T) {
	tx := NewTransaction(
		ActionGroup{Actions: []Action{Edit{Range: Range{0, 1}, Old: "a", New: "bb"}, Select{Range: Range{2, 2}}}},
		ActionGroup{Actions: []Action{Edit{Range: Range{3, 3}, New: "c"}}},
	)
	sels := tx.NonEmptySelections()
	if len(sels) != 1 || sels[0] != (Range{2, 2}) {
		t.Errorf("selections = %v", sels)
	}
	if got := len(FromEdits().NonEmptySelections()); got != 0 {
		t.Errorf("empty transaction has %d selections", got)
	}
	if inv := tx.Inverse(); len(inv.NonEmptySelections()) != 0 || len(inv.Groups()) != 2 {
		t.Errorf("inverse groups = %d, selections = %v", len(inv.Groups()), inv.NonEmptySelections())
	}
}
