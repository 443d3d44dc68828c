package buffer

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/x/powernap/pkg/lsp/protocol"
	"github.com/rs/zerolog/log"

	"github.com/xonecas/arbor/internal/diagnostic"
	"github.com/xonecas/arbor/internal/edit"
	"github.com/xonecas/arbor/internal/highlight"
	"github.com/xonecas/arbor/internal/quickfix"
	"github.com/xonecas/arbor/internal/rope"
	"github.com/xonecas/arbor/internal/selection"
)

// bufferState is what undo and redo restore besides the text.
type bufferState struct {
	SelectionSet selection.Set
	Marks        []edit.Range
}

// checkpoint captures everything applyEdit touches so a failed transaction
// can put it all back.
type checkpoint struct {
	text        rope.Rope
	spans       highlight.Spans
	marks       []edit.Range
	diagnostics []diagnostic.Diagnostic
	quickfix    []quickfix.Item
	selections  selection.History[selection.Set]
	dirty       bool
	owner       Owner
}

func (b *Buffer) checkpoint() checkpoint {
	return checkpoint{
		text:        b.text,
		spans:       slices.Clone(b.spans),
		marks:       slices.Clone(b.marks),
		diagnostics: slices.Clone(b.diagnostics),
		quickfix:    slices.Clone(b.quickfix),
		selections:  b.selectionHistory.Clone(),
		dirty:       b.dirty,
		owner:       b.owner,
	}
}

func (b *Buffer) restore(c checkpoint) {
	b.text = c.text
	b.spans = c.spans
	b.marks = c.marks
	b.diagnostics = c.diagnostics
	b.quickfix = c.quickfix
	b.selectionHistory = c.selections
	b.dirty = c.dirty
	b.owner = c.owner
}

// ApplyTransaction applies every edit of tx or none of them. It returns the
// selections the transaction names, or sel when it names none, together
// with the edits in language server form for the pre-edit text.
//
// With record set a non-empty transaction becomes one undo step and the redo
// stack is cleared. With reparse set the syntax tree is rebuilt afterwards.
// lastVisibleLine bounds the highlight spans that are shifted in place.
func (b *Buffer) ApplyTransaction(tx edit.Transaction, sel selection.Set, reparse, record bool, lastVisibleLine int) (selection.Set, []protocol.TextEdit, error) {
	newSel := sel.SetRanges(tx.NonEmptySelections())
	oldState := bufferState{SelectionSet: sel, Marks: slices.Clone(b.marks)}
	inverse := tx.Inverse()

	forward, err := b.protocolEdits(tx.UnnormalizedEdits())
	if err != nil {
		return sel, nil, err
	}

	cp := b.checkpoint()
	for _, e := range tx.Edits() {
		if err := b.applyEdit(e, lastVisibleLine); err != nil {
			b.restore(cp)
			return sel, nil, err
		}
	}

	backward, err := b.protocolEdits(inverse.UnnormalizedEdits())
	if err != nil {
		log.Warn().Err(err).Str("file", b.path).Msg("buffer: inverse edits")
	}

	if record && !tx.IsEmpty() {
		b.pushUndo(historyEntry{
			transaction:      inverse,
			reverse:          tx,
			oldState:         oldState,
			newState:         bufferState{SelectionSet: newSel, Marks: slices.Clone(b.marks)},
			diffEdits:        backward,
			inverseDiffEdits: forward,
		})
		b.redoStack = nil
	}

	if reparse {
		if err := b.Reparse(); err != nil {
			log.Warn().Err(err).Str("file", b.path).Msg("buffer: reparse after edit failed")
		}
	}
	b.batch.Increment()
	return newSel, forward, nil
}

// applyEdit applies one normalized edit and moves every attached range with
// it.
func (b *Buffer) applyEdit(e edit.Edit, lastVisibleLine int) error {
	current, err := b.text.Slice(e.Range.Start, e.Range.End)
	if err != nil {
		return fmt.Errorf("edit %v: %w", e.Range, err)
	}
	if current != e.Old {
		return fmt.Errorf("edit %v: want %q, found %q: %w", e.Range, e.Old, current, ErrEditMismatch)
	}

	byteRange, err := b.CharRangeToByteRange(e.Range)
	if err != nil {
		return err
	}
	window := highlight.ByteRange{Start: byteRange.Start, End: b.visibleEndByte(lastVisibleLine)}
	byteDelta := len(e.New) - (byteRange.End - byteRange.Start)

	qfRanges := make([]edit.Range, len(b.quickfix))
	qfOK := make([]bool, len(b.quickfix))
	for i, it := range b.quickfix {
		r, err := b.PositionRangeToCharRange(it.Location.Range)
		qfRanges[i], qfOK[i] = r, err == nil
	}

	text, err := b.text.Remove(e.Range.Start, e.Range.End)
	if err != nil {
		return fmt.Errorf("edit %v: %w", e.Range, err)
	}
	text, err = text.Insert(e.Range.Start, e.New)
	if err != nil {
		return fmt.Errorf("edit %v: %w", e.Range, err)
	}
	b.text = text
	b.dirty = true
	b.owner = OwnerUser

	b.spans = b.spans.ApplyEdit(window, byteDelta)

	items := b.quickfix[:0:0]
	for i, it := range b.quickfix {
		if !qfOK[i] {
			continue
		}
		r, ok := qfRanges[i].ApplyEdit(e)
		if !ok {
			continue
		}
		pr, err := b.CharRangeToPositionRange(r)
		if err != nil {
			continue
		}
		items = append(items, it.WithRange(pr))
	}
	b.quickfix = items

	marks := b.marks[:0:0]
	for _, m := range b.marks {
		if r, ok := m.ApplyEdit(e); ok {
			marks = append(marks, r)
		}
	}
	b.marks = marks

	b.diagnostics = diagnostic.Remap(b.diagnostics, e)

	maxChar := b.text.Len()
	b.selectionHistory.Apply(func(s selection.Set) selection.Set { return s.ApplyEdit(e, maxChar) })
	return nil
}

// visibleEndByte returns the byte just past the last visible line.
func (b *Buffer) visibleEndByte(lastVisibleLine int) int {
	line := min(max(lastVisibleLine, 0)+1, b.text.LenLines())
	end, err := b.text.LineToByte(line)
	if err != nil {
		return b.text.LenBytes()
	}
	return end
}

// protocolEdits converts edits whose ranges refer to the current text.
func (b *Buffer) protocolEdits(edits []edit.Edit) ([]protocol.TextEdit, error) {
	out := make([]protocol.TextEdit, 0, len(edits))
	for _, e := range edits {
		r, err := b.CharRangeToProtocolRange(e.Range)
		if err != nil {
			return nil, fmt.Errorf("edit %v: %w", e.Range, err)
		}
		out = append(out, protocol.TextEdit{Range: r, NewText: e.New})
	}
	return out, nil
}
