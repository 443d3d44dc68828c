// Package highlight computes syntax highlight spans via Chroma and keeps them
// aligned with buffer edits.
package highlight

import (
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// ByteRange is a half-open byte range.
type ByteRange struct {
	Start int
	End   int
}

// Span styles a byte range of the buffer.
type Span struct {
	Range    ByteRange
	StyleKey string
	Token    chroma.TokenType
}

// Spans is kept sorted by range start.
type Spans []Span

// ApplyEdit shifts the spans that intersect window by delta bytes. window
// starts at the edited byte and ends at the last rendered byte; spans
// outside it are left for the next highlight pass. Spans pushed before the
// window start are clamped to it, and spans left empty are dropped.
func (s Spans) ApplyEdit(window ByteRange, delta int) Spans {
	out := s[:0:0]
	for _, span := range s {
		r := span.Range
		switch {
		case r.End <= window.Start, r.Start >= window.End:
		case r.Start >= window.Start:
			r.Start += delta
			r.End += delta
		default:
			r.End += delta
		}
		r.Start = max(r.Start, min(span.Range.Start, window.Start))
		if r.End <= r.Start {
			continue
		}
		span.Range = r
		out = append(out, span)
	}
	slices.SortStableFunc(out, func(a, b Span) int { return a.Range.Start - b.Range.Start })
	return out
}

// BatchID identifies a buffer edit epoch. Results computed for an older
// batch are discarded.
type BatchID uint64

func (b *BatchID) Increment() { *b++ }

// Tokenize highlights text with the named Chroma lexer. An unknown lexer
// yields no spans.
func Tokenize(lexer, text string) (Spans, error) {
	lex := lexers.Get(lexer)
	if lex == nil {
		return nil, nil
	}
	lex = chroma.Coalesce(lex)
	it, err := lex.Tokenise(nil, text)
	if err != nil {
		return nil, err
	}
	var spans Spans
	offset := 0
	for _, tok := range it.Tokens() {
		n := len(tok.Value)
		if n > 0 && tok.Type != chroma.Text && tok.Type != chroma.TextWhitespace && strings.TrimSpace(tok.Value) != "" {
			spans = append(spans, Span{
				Range:    ByteRange{Start: offset, End: offset + n},
				StyleKey: tok.Type.String(),
				Token:    tok.Type,
			})
		}
		offset += n
	}
	return spans, nil
}

// Colour returns the "#rrggbb" foreground of token under theme, or "" when
// the theme leaves it unset.
func Colour(theme string, token chroma.TokenType) string {
	sty := styles.Get(theme)
	if sty == nil {
		return ""
	}
	e := sty.Get(token)
	if !e.Colour.IsSet() {
		return ""
	}
	return e.Colour.String()
}
