package buffer

import (
	"context"
	"fmt"

	"github.com/charmbracelet/x/powernap/pkg/lsp/protocol"

	"github.com/xonecas/arbor/internal/edit"
	"github.com/xonecas/arbor/internal/highlight"
	"github.com/xonecas/arbor/internal/reconcile"
	"github.com/xonecas/arbor/internal/search"
	"github.com/xonecas/arbor/internal/selection"
	"github.com/xonecas/arbor/internal/treesitter"
)

// UpdateContent replaces the text with text as one undoable transaction
// that only touches the lines that differ.
func (b *Buffer) UpdateContent(text string, sel selection.Set, lastVisibleLine int) (selection.Set, []protocol.TextEdit, error) {
	tx, err := reconcile.Diff(b.Content(), text)
	if err != nil {
		return sel, nil, err
	}
	return b.ApplyTransaction(tx, sel, true, true, lastVisibleLine)
}

// Replace runs a find-replace over the whole text as one undoable
// transaction. modified reports whether the text changed.
func (b *Buffer) Replace(ctx context.Context, cfg search.Config, sel selection.Set, lastVisibleLine int) (modified bool, _ selection.Set, _ []protocol.TextEdit, _ error) {
	before := b.Content()
	tx, err := b.replaceTransaction(ctx, cfg, before)
	if err != nil {
		return false, sel, nil, err
	}
	newSel, edits, err := b.ApplyTransaction(tx, sel, true, true, lastVisibleLine)
	if err != nil {
		return false, sel, nil, err
	}
	return before != b.Content(), newSel, edits, nil
}

func (b *Buffer) replaceTransaction(ctx context.Context, cfg search.Config, before string) (edit.Transaction, error) {
	switch cfg.Mode {
	case search.ModeNamingConventionAgnostic:
		after, err := search.ReplaceNamingAgnostic(before, cfg.Search, cfg.Replacement)
		if err != nil {
			return edit.Transaction{}, err
		}
		return reconcile.Diff(before, after)
	case search.ModeAstGrep:
		return b.astReplaceTransaction(ctx, cfg, before)
	default:
		after, err := search.ReplaceRegex(before, cfg, b.limits)
		if err != nil {
			return edit.Transaction{}, err
		}
		return reconcile.Diff(before, after)
	}
}

// astReplaceTransaction turns structural replacements, which come in bytes,
// into one group per match. Without a grammar nothing matches.
func (b *Buffer) astReplaceTransaction(ctx context.Context, cfg search.Config, before string) (edit.Transaction, error) {
	if b.grammar == nil {
		return edit.Transaction{}, nil
	}
	if cfg.Search == "" {
		return edit.Transaction{}, search.ErrEmptySearch
	}
	reps, err := treesitter.Replace(ctx, b.grammar, before, cfg.Search, cfg.Replacement)
	if err != nil {
		return edit.Transaction{}, err
	}
	groups := make([]edit.ActionGroup, 0, len(reps))
	for _, rep := range reps {
		r, err := b.ByteRangeToCharRange(highlight.ByteRange{Start: rep.Position, End: rep.Position + rep.DeletedLength})
		if err != nil {
			return edit.Transaction{}, fmt.Errorf("structural match at byte %d: %w", rep.Position, err)
		}
		old, err := b.Slice(r)
		if err != nil {
			return edit.Transaction{}, err
		}
		groups = append(groups, edit.ActionGroup{Actions: []edit.Action{
			edit.Edit{Range: r, Old: old, New: rep.Inserted},
		}})
	}
	return edit.NewTransaction(groups...), nil
}
