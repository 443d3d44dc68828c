package buffer

import (
	"slices"

	"github.com/charmbracelet/x/powernap/pkg/lsp/protocol"
	"github.com/rs/zerolog/log"

	"github.com/xonecas/arbor/internal/edit"
	"github.com/xonecas/arbor/internal/selection"
)

// historyEntry is one undo step. transaction takes the text from newState
// back to oldState and reverse goes the other way. diffEdits are the
// protocol edits transaction causes, precomputed against the text it
// applies to; inverseDiffEdits are the ones reverse causes.
type historyEntry struct {
	transaction      edit.Transaction
	reverse          edit.Transaction
	oldState         bufferState
	newState         bufferState
	diffEdits        []protocol.TextEdit
	inverseDiffEdits []protocol.TextEdit
}

// inverse turns an undo step into the matching redo step.
func (h historyEntry) inverse() historyEntry {
	return historyEntry{
		transaction:      h.reverse,
		reverse:          h.transaction,
		oldState:         h.newState,
		newState:         h.oldState,
		diffEdits:        h.inverseDiffEdits,
		inverseDiffEdits: h.diffEdits,
	}
}

func (b *Buffer) pushUndo(h historyEntry) {
	b.undoStack = append(b.undoStack, h)
	if b.historyLimit > 0 && len(b.undoStack) > b.historyLimit {
		b.undoStack = slices.Delete(b.undoStack, 0, len(b.undoStack)-b.historyLimit)
	}
}

// CanUndo and CanRedo report whether the stacks hold anything.
func (b *Buffer) CanUndo() bool { return len(b.undoStack) > 0 }
func (b *Buffer) CanRedo() bool { return len(b.redoStack) > 0 }

// Undo reverts the most recent transaction. It returns the selections from
// before that transaction and the protocol edits the revert caused. ok is
// false when there is nothing to undo.
func (b *Buffer) Undo(lastVisibleLine int) (sel selection.Set, edits []protocol.TextEdit, ok bool, err error) {
	return b.step(&b.undoStack, &b.redoStack, lastVisibleLine)
}

// Redo reapplies the most recently undone transaction.
func (b *Buffer) Redo(lastVisibleLine int) (sel selection.Set, edits []protocol.TextEdit, ok bool, err error) {
	return b.step(&b.redoStack, &b.undoStack, lastVisibleLine)
}

func (b *Buffer) step(from, to *[]historyEntry, lastVisibleLine int) (selection.Set, []protocol.TextEdit, bool, error) {
	if len(*from) == 0 {
		return selection.Set{}, nil, false, nil
	}
	entry := (*from)[len(*from)-1]
	*from = (*from)[:len(*from)-1]

	if _, _, err := b.ApplyTransaction(entry.transaction, entry.newState.SelectionSet, true, false, lastVisibleLine); err != nil {
		*from = append(*from, entry)
		return selection.Set{}, nil, false, err
	}
	b.marks = slices.Clone(entry.oldState.Marks)
	*to = append(*to, entry.inverse())
	log.Debug().Str("file", b.path).Int("undo", len(b.undoStack)).Int("redo", len(b.redoStack)).Msg("buffer: history step")
	return entry.oldState.SelectionSet, entry.diffEdits, true, nil
}

// PushSelectionSetHistory records s in the navigation history.
func (b *Buffer) PushSelectionSetHistory(s selection.Set) { b.selectionHistory.Push(s) }

// PreviousSelectionSet steps back through the navigation history.
func (b *Buffer) PreviousSelectionSet() (selection.Set, bool) { return b.selectionHistory.Undo() }

// NextSelectionSet steps forward through the navigation history.
func (b *Buffer) NextSelectionSet() (selection.Set, bool) { return b.selectionHistory.Redo() }
