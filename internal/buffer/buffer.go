// Package buffer holds the editable text of a file together with its syntax
// tree, the ranges attached to it and its undo history.
//
// A Buffer has a single owner and does no locking. The only asynchronous
// input it accepts is highlight results, which are gated on the batch id
// they were requested for.
package buffer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/charmbracelet/x/powernap/pkg/lsp/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/xonecas/arbor/internal/diagnostic"
	"github.com/xonecas/arbor/internal/edit"
	"github.com/xonecas/arbor/internal/highlight"
	"github.com/xonecas/arbor/internal/language"
	"github.com/xonecas/arbor/internal/quickfix"
	"github.com/xonecas/arbor/internal/rope"
	"github.com/xonecas/arbor/internal/search"
	"github.com/xonecas/arbor/internal/selection"
	"github.com/xonecas/arbor/internal/treesitter"
)

var (
	// ErrNoPath is returned by operations that need a backing file.
	ErrNoPath = errors.New("buffer has no path")
	// ErrEditMismatch is returned when an edit's Old text is not what the
	// buffer holds at its range.
	ErrEditMismatch = errors.New("edit does not match buffer text")
)

// Owner tells user-opened buffers apart from ones the system created.
type Owner int

const (
	OwnerSystem Owner = iota
	OwnerUser
)

func (o Owner) String() string {
	if o == OwnerUser {
		return "user"
	}
	return "system"
}

// Formatter turns source text into formatted source text.
type Formatter interface {
	Format(ctx context.Context, command, text string) (string, error)
}

// Backup is told about the file content a save is about to replace.
type Backup interface {
	RecordModify(path string, oldContent []byte)
	RecordCreate(path string)
}

// Buffer is the text of one file and everything kept in step with it.
type Buffer struct {
	id    uuid.UUID
	text  rope.Rope
	tree  *treesitter.Tree
	lang  *language.Language
	path  string
	dirty bool
	owner Owner

	grammar *sitter.Language

	spans       highlight.Spans
	batch       highlight.BatchID
	marks       []edit.Range
	diagnostics []diagnostic.Diagnostic
	quickfix    []quickfix.Item

	selectionHistory selection.History[selection.Set]
	undoStack        []historyEntry
	redoStack        []historyEntry
	historyLimit     int

	formatter Formatter
	backup    Backup
	limits    search.Limits
}

// New creates a buffer holding text. When lang has a grammar the text is
// parsed once; a parse failure is logged and leaves the buffer without a
// tree.
func New(lang *language.Language, text string) *Buffer {
	return newBuffer(lang, lang.Grammar(), text)
}

func newBuffer(lang *language.Language, grammar *sitter.Language, text string) *Buffer {
	b := &Buffer{
		id:      uuid.New(),
		text:    rope.FromString(text),
		lang:    lang,
		grammar: grammar,
		owner:   OwnerSystem,
		limits:  search.DefaultLimits,
	}
	if err := b.Reparse(); err != nil {
		log.Warn().Err(err).Str("language", b.LanguageID()).Msg("buffer: initial parse failed")
	}
	return b
}

// FromPath reads path and resolves its language from the file name, then
// from a shebang or modeline. With treeSitter false no grammar is used.
func FromPath(path string, reg *language.Registry, treeSitter bool) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	content := string(data)

	var lang *language.Language
	if reg != nil {
		lang = reg.FromPath(path)
		if lang == nil {
			lang = reg.FromContentDirective(content)
		}
	}
	var grammar *sitter.Language
	if treeSitter {
		grammar = lang.Grammar()
	}
	b := newBuffer(lang, grammar, content)
	b.path = path
	return b, nil
}

// ID identifies the buffer in asynchronous requests.
func (b *Buffer) ID() uuid.UUID { return b.id }

// Content returns the full text.
func (b *Buffer) Content() string { return b.text.String() }

// Rope returns the current text snapshot.
func (b *Buffer) Rope() rope.Rope { return b.text }

func (b *Buffer) Path() string { return b.path }
func (b *Buffer) SetPath(path string) { b.path = path }
func (b *Buffer) Dirty() bool { return b.dirty }
func (b *Buffer) Owner() Owner { return b.owner }
func (b *Buffer) SetOwner(o Owner) { b.owner = o }
func (b *Buffer) Language() *language.Language { return b.lang }

// LanguageID returns the language id, or "" when none was resolved.
func (b *Buffer) LanguageID() string {
	if b.lang == nil {
		return ""
	}
	return b.lang.ID
}

// Tree returns the syntax tree, or nil when the buffer has no grammar.
func (b *Buffer) Tree() *treesitter.Tree { return b.tree }

// SetFormatter sets the collaborator Save formats through.
func (b *Buffer) SetFormatter(f Formatter) { b.formatter = f }

// SetBackup sets where Save reports the content it overwrites.
func (b *Buffer) SetBackup(bk Backup) { b.backup = bk }

// SetHistoryLimit caps the undo stack at n entries; zero means unlimited.
func (b *Buffer) SetHistoryLimit(n int) { b.historyLimit = max(n, 0) }

// SetSearchLimits bounds regex replacement.
func (b *Buffer) SetSearchLimits(l search.Limits) { b.limits = l }

// Reparse rebuilds the syntax tree from the whole text. The previous tree
// is never reused.
func (b *Buffer) Reparse() error {
	if b.grammar == nil {
		return nil
	}
	tree, err := treesitter.Parse(context.Background(), b.grammar, []byte(b.text.String()))
	if err != nil {
		return fmt.Errorf("reparse: %w", err)
	}
	b.tree.Close()
	b.tree = tree
	return nil
}

// Update replaces the whole text without recording history.
func (b *Buffer) Update(text string) {
	b.text = rope.FromString(text)
	if err := b.Reparse(); err != nil {
		log.Warn().Err(err).Msg("buffer: reparse after update failed")
	}
	b.dirty = true
	b.owner = OwnerUser
	b.batch.Increment()
}

// Reload re-reads the backing file and folds the difference in as an
// undoable transaction. The buffer is clean afterwards.
func (b *Buffer) Reload() error {
	if b.path == "" {
		return ErrNoPath
	}
	data, err := os.ReadFile(b.path)
	if err != nil {
		return fmt.Errorf("reload %s: %w", b.path, err)
	}
	if _, _, err := b.UpdateContent(string(data), selection.Set{}, 0); err != nil {
		return err
	}
	b.dirty = false
	return nil
}

// Save formats the text when a formatter applies, then writes it if the
// buffer is dirty or force is set. It returns the written path, or "" when
// nothing was written. Formatting failures are logged and do not stop the
// save.
func (b *Buffer) Save(ctx context.Context, sel selection.Set, force bool, lastVisibleLine int) (string, error) {
	if force || b.dirty {
		if formatted, ok := b.formattedContent(ctx); ok {
			if _, _, err := b.UpdateContent(formatted, sel, lastVisibleLine); err != nil {
				return "", err
			}
		}
	}
	return b.SaveWithoutFormatting(force)
}

func (b *Buffer) formattedContent(ctx context.Context) (string, bool) {
	if b.formatter == nil || b.lang == nil || b.lang.Formatter == "" {
		return "", false
	}
	if b.tree != nil && b.tree.HasError() {
		log.Debug().Str("file", b.path).Msg("buffer: skip formatting, syntax error")
		return "", false
	}
	log.Info().Str("file", b.path).Str("command", b.lang.Formatter).Msg("buffer: format")
	out, err := b.formatter.Format(ctx, b.lang.Formatter, b.Content())
	if err != nil {
		log.Warn().Err(err).Str("file", b.path).Msg("buffer: format failed")
		return "", false
	}
	return out, true
}

// SaveWithoutFormatting writes the text if the buffer is dirty or force is
// set.
func (b *Buffer) SaveWithoutFormatting(force bool) (string, error) {
	if !force && !b.dirty {
		return "", nil
	}
	if b.path == "" {
		log.Info().Msg("buffer: save without path")
		return "", nil
	}
	if b.backup != nil {
		old, err := os.ReadFile(b.path)
		switch {
		case err == nil:
			b.backup.RecordModify(b.path, old)
		case os.IsNotExist(err):
			b.backup.RecordCreate(b.path)
		default:
			log.Warn().Err(err).Str("file", b.path).Msg("buffer: read before save")
		}
	}
	if err := os.WriteFile(b.path, []byte(b.Content()), 0644); err != nil {
		return "", fmt.Errorf("save %s: %w", b.path, err)
	}
	b.dirty = false
	return b.path, nil
}

// Words returns the distinct words of the text.
func (b *Buffer) Words() []string { return search.Words(b.Content()) }

// WordBefore returns the last word starting before character c.
func (b *Buffer) WordBefore(c int) (string, error) {
	if c < 0 || c > b.text.Len() {
		return "", fmt.Errorf("char %d of %d: %w", c, b.text.Len(), rope.ErrOutOfBounds)
	}
	return search.WordBefore(b.Content(), c), nil
}

// Marks returns a copy of the marked ranges.
func (b *Buffer) Marks() []edit.Range { return slices.Clone(b.marks) }

// ToggleMarks marks every range in ranges that is not marked yet and
// unmarks the ones that are.
func (b *Buffer) ToggleMarks(ranges []edit.Range) {
	old := b.marks
	var out []edit.Range
	for _, r := range ranges {
		if !slices.Contains(old, r) && !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	for _, r := range old {
		if !slices.Contains(ranges, r) {
			out = append(out, r)
		}
	}
	b.marks = out
}

// Diagnostics returns a copy of the buffer's diagnostics.
func (b *Buffer) Diagnostics() []diagnostic.Diagnostic { return slices.Clone(b.diagnostics) }

// SetDiagnostics replaces the diagnostics with ones converted from language
// server records. Records whose range does not fit the text are dropped.
func (b *Buffer) SetDiagnostics(ds []protocol.Diagnostic) {
	b.diagnostics = b.diagnostics[:0:0]
	for _, pd := range ds {
		d, err := diagnostic.FromProtocol(b, pd)
		if err != nil {
			log.Debug().Err(err).Str("file", b.path).Msg("buffer: drop diagnostic")
			continue
		}
		b.diagnostics = append(b.diagnostics, d)
	}
}

// QuickfixItems returns a copy of the quickfix items.
func (b *Buffer) QuickfixItems() []quickfix.Item { return slices.Clone(b.quickfix) }

func (b *Buffer) SetQuickfixItems(items []quickfix.Item) { b.quickfix = slices.Clone(items) }

func (b *Buffer) ClearQuickfixItems() { b.quickfix = nil }

// HighlightedSpans returns the spans sorted by start byte.
func (b *Buffer) HighlightedSpans() highlight.Spans { return b.spans }

// BatchID returns the current edit epoch.
func (b *Buffer) BatchID() highlight.BatchID { return b.batch }

// UpdateHighlightedSpans installs spans computed for batch. Results for any
// other batch are stale and ignored.
func (b *Buffer) UpdateHighlightedSpans(batch highlight.BatchID, spans highlight.Spans) bool {
	if batch != b.batch {
		log.Debug().Uint64("batch", uint64(batch)).Uint64("current", uint64(b.batch)).Msg("buffer: drop stale highlight")
		return false
	}
	b.spans = spans
	return true
}

// HighlightRequest describes the highlight work for the current text, or
// reports false when the buffer has no lexer.
func (b *Buffer) HighlightRequest() (highlight.Request, bool) {
	if b.lang == nil || b.lang.Lexer == "" {
		return highlight.Request{}, false
	}
	return highlight.Request{
		BufferID: b.id,
		Batch:    b.batch,
		Lexer:    b.lang.Lexer,
		Text:     b.Content(),
	}, true
}
