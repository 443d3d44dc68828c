// Package reconcile turns a wholesale replacement of a text into the
// smallest line-level transaction that produces it, so ranges attached to
// unchanged lines survive.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/xonecas/arbor/internal/edit"
	"github.com/xonecas/arbor/internal/rope"
)

// hunk is a run of changed lines, zero-based and half-open, in the text
// before the change.
type hunk struct {
	start, end int
	text       strings.Builder
}

// Diff returns a transaction that rewrites before into after. Each group
// holds one edit covering whole lines of before.
func Diff(before, after string) (edit.Transaction, error) {
	if before == after {
		return edit.Transaction{}, nil
	}
	hunks := coalesce(myers.ComputeEdits(span.URIFromPath("buffer"), before, after))

	r := rope.FromString(before)
	groups := make([]edit.ActionGroup, 0, len(hunks))
	for _, h := range hunks {
		start, err := r.LineToChar(h.start)
		if err != nil {
			return edit.Transaction{}, fmt.Errorf("reconcile: hunk start: %w", err)
		}
		end, err := r.LineToChar(h.end)
		if err != nil {
			return edit.Transaction{}, fmt.Errorf("reconcile: hunk end: %w", err)
		}
		removed, err := r.Slice(start, end)
		if err != nil {
			return edit.Transaction{}, fmt.Errorf("reconcile: %w", err)
		}
		groups = append(groups, edit.ActionGroup{Actions: []edit.Action{edit.Edit{
			Range: edit.Range{Start: start, End: end},
			Old:   removed,
			New:   h.text.String(),
		}}})
	}
	return edit.NewTransaction(groups...), nil
}

// coalesce merges line edits that touch, such as a deletion followed by the
// insertion that replaces it.
func coalesce(edits []gotextdiff.TextEdit) []*hunk {
	var hunks []*hunk
	for _, e := range edits {
		start := e.Span.Start().Line() - 1
		end := e.Span.End().Line() - 1
		if n := len(hunks); n > 0 && hunks[n-1].end == start {
			last := hunks[n-1]
			last.end = end
			last.text.WriteString(e.NewText)
			continue
		}
		h := &hunk{start: start, end: end}
		h.text.WriteString(e.NewText)
		hunks = append(hunks, h)
	}
	return hunks
}
