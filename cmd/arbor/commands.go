package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/powernap/pkg/lsp/protocol"
	"github.com/rs/zerolog/log"

	"github.com/xonecas/arbor/internal/buffer"
	"github.com/xonecas/arbor/internal/edit"
	"github.com/xonecas/arbor/internal/format"
	"github.com/xonecas/arbor/internal/highlight"
	"github.com/xonecas/arbor/internal/journal"
	"github.com/xonecas/arbor/internal/lsp"
	"github.com/xonecas/arbor/internal/quickfix"
	"github.com/xonecas/arbor/internal/search"
	"github.com/xonecas/arbor/internal/selection"
	"github.com/xonecas/arbor/internal/shell"
)

var origin = selection.NewSet(selection.New(edit.Range{}))

func (e *env) open(path string) (*buffer.Buffer, error) {
	b, err := buffer.FromPath(path, e.reg, e.cfg.Editor.TreeSitter)
	if err != nil {
		return nil, err
	}
	b.SetOwner(buffer.OwnerUser)
	b.SetHistoryLimit(e.cfg.Editor.HistoryLimit)
	b.SetSearchLimits(e.cfg.Search.Limits())
	return b, nil
}

func (e *env) journal() (*journal.Journal, error) {
	path, err := e.cfg.JournalPath()
	if err != nil {
		return nil, err
	}
	return journal.Open(path, e.cfg.Journal.Keep)
}

func (e *env) formatter(dir string) *format.Formatter {
	blockers := append(shell.DefaultBlockFuncs(), shell.CommandsBlocker(e.cfg.Format.Blocked))
	return format.New(shell.New(dir, blockers), e.cfg.Format.Timeout())
}

func runFormat(e *env, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	j, err := e.journal()
	if err != nil {
		log.Warn().Err(err).Msg("journal unavailable, saving without backup")
	}
	defer j.Close()

	for _, path := range args {
		b, err := e.open(path)
		if err != nil {
			return err
		}
		dir, _ := filepath.Abs(filepath.Dir(path))
		b.SetFormatter(e.formatter(dir))
		if j != nil {
			b.SetBackup(j)
		}
		before := b.Content()
		if _, err := b.Save(e.ctx, origin, true, 0); err != nil {
			return err
		}
		if b.Content() != before {
			fmt.Printf("formatted %s\n", path)
		}
	}
	return nil
}

func runReplace(e *env, args []string) error {
	fs := flag.NewFlagSet("replace", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	mode := fs.String("mode", search.ModeRegex.String(), "regex, naming-convention-agnostic or ast-grep")
	literal := fs.Bool("literal", false, "treat search and replacement as literal text")
	caseSensitive := fs.Bool("case", false, "match case")
	word := fs.Bool("word", false, "match whole words")
	write := fs.Bool("w", false, "write changes back to the files")
	if err := fs.Parse(args); err != nil || fs.NArg() < 3 {
		return errUsage
	}
	m, err := search.ParseMode(*mode)
	if err != nil {
		return err
	}
	cfg := search.Config{
		Mode:        m,
		Search:      fs.Arg(0),
		Replacement: fs.Arg(1),
		Regex:       search.RegexConfig{Escaped: *literal, CaseSensitive: *caseSensitive, MatchWholeWord: *word},
	}

	var j *journal.Journal
	if *write {
		if j, err = e.journal(); err != nil {
			log.Warn().Err(err).Msg("journal unavailable, saving without backup")
		}
		defer j.Close()
	}

	for _, path := range fs.Args()[2:] {
		b, err := e.open(path)
		if err != nil {
			return err
		}
		modified, _, edits, err := b.Replace(e.ctx, cfg, origin, b.LenLines())
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if !modified {
			continue
		}
		for _, te := range edits {
			fmt.Printf("%s:%s: %q\n", path, protocolRange(te.Range), te.NewText)
		}
		if *write {
			if j != nil {
				b.SetBackup(j)
			}
			if _, err := b.SaveWithoutFormatting(false); err != nil {
				return err
			}
		}
	}
	return nil
}

func protocolRange(r protocol.Range) string {
	return fmt.Sprintf("%d:%d-%d:%d", r.Start.Line+1, r.Start.Character+1, r.End.Line+1, r.End.Character+1)
}

func runBreadcrumbs(e *env, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	line, err := strconv.Atoi(args[1])
	if err != nil || line < 1 {
		return errUsage
	}
	b, err := e.open(args[0])
	if err != nil {
		return err
	}
	lines, err := b.ParentLines(line - 1)
	if err != nil {
		return err
	}
	for _, l := range lines {
		fmt.Printf("%d: %s\n", l.Line+1, l.Content)
	}
	return nil
}

func runGrep(e *env, args []string) error {
	fs := flag.NewFlagSet("grep", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	root := fs.String("root", ".", "directory to search")
	maxResults := fs.Int("max", 1000, "stop after this many matches")
	caseSensitive := fs.Bool("case", false, "match case")
	literal := fs.Bool("literal", false, "treat the pattern as literal text")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}
	items, err := quickfix.Search(e.ctx, quickfix.Options{
		Root: *root,
		Config: search.Config{
			Search: fs.Arg(0),
			Regex:  search.RegexConfig{CaseSensitive: *caseSensitive, Escaped: *literal},
		},
		Limits:     e.cfg.Search.Limits(),
		MaxResults: *maxResults,
	})
	if err != nil {
		return err
	}
	wd, _ := os.Getwd()
	for _, it := range items {
		if rel, err := filepath.Rel(wd, it.Location.Path); err == nil {
			it.Location.Path = rel
		}
		fmt.Println(it)
	}
	return nil
}

func runCheck(e *env, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	b, err := e.open(args[0])
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	m := lsp.NewManager()
	defer m.StopAll(e.ctx)

	b.SetDiagnostics(m.Sync(e.ctx, abs, b.Content(), e.cfg.LSP.Timeout()))
	for _, d := range b.Diagnostics() {
		pr, err := b.CharRangeToPositionRange(d.Range)
		if err != nil {
			continue
		}
		src := ""
		if d.Source != "" {
			src = " (" + d.Source + ")"
		}
		fmt.Printf("%s:%d:%d: %s: %s%s\n", args[0], pr.Start.Line+1, pr.Start.Column+1, d.Severity, d.Message, src)
	}
	return nil
}

func runSpans(e *env, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	b, err := e.open(args[0])
	if err != nil {
		return err
	}
	req, ok := b.HighlightRequest()
	if !ok {
		fmt.Print(b.Content())
		return nil
	}

	w := highlight.NewWorker(e.cfg.Highlight.Workers)
	w.Start(e.ctx)
	defer w.Close()
	if err := w.Submit(e.ctx, req); err != nil {
		return err
	}
	select {
	case res := <-w.Results():
		if res.Err != nil {
			return res.Err
		}
		b.UpdateHighlightedSpans(res.Batch, res.Spans)
	case <-e.ctx.Done():
		return e.ctx.Err()
	}

	fmt.Print(render(b.Content(), b.HighlightedSpans(), e.cfg.Highlight.Theme))
	return nil
}

// render colours text with spans. Bytes no span covers are left plain.
func render(text string, spans highlight.Spans, theme string) string {
	var sb strings.Builder
	pos := 0
	for _, s := range spans {
		if s.Range.Start < pos || s.Range.End > len(text) {
			continue
		}
		sb.WriteString(text[pos:s.Range.Start])
		seg := text[s.Range.Start:s.Range.End]
		if hex := highlight.Colour(theme, s.Token); hex != "" {
			seg = lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render(seg)
		}
		sb.WriteString(seg)
		pos = s.Range.End
	}
	sb.WriteString(text[pos:])
	return sb.String()
}

func runHistory(e *env, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	j, err := e.journal()
	if err != nil {
		return err
	}
	defer j.Close()
	entries, err := j.Entries(args[0])
	if err != nil {
		return err
	}
	for _, en := range entries {
		fmt.Printf("%d\t%s\t%d bytes\t%s\n", en.ID, en.Op, en.Size, en.Created.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runRevert(e *env, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	j, err := e.journal()
	if err != nil {
		return err
	}
	defer j.Close()
	en, err := j.Revert(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("reverted %s (%s from %s)\n", args[0], en.Op, en.Created.Format("2006-01-02 15:04:05"))
	return nil
}
