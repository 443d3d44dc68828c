package buffer

import (
	"fmt"

	"github.com/charmbracelet/x/powernap/pkg/lsp/protocol"

	"github.com/xonecas/arbor/internal/edit"
	"github.com/xonecas/arbor/internal/highlight"
	"github.com/xonecas/arbor/internal/rope"
)

// Len returns the number of characters.
func (b *Buffer) Len() int { return b.text.Len() }

// LenLines counts lines the way a reader does: a single trailing newline
// does not start another line.
func (b *Buffer) LenLines() int {
	n := b.text.LenLines()
	if l := b.text.Len(); l > 0 {
		if c, err := b.text.Char(l - 1); err == nil && c == '\n' {
			n--
		}
	}
	return n
}

// Slice returns the text in r.
func (b *Buffer) Slice(r edit.Range) (string, error) {
	return b.text.Slice(r.Start, r.End)
}

// Char returns the character at c.
func (b *Buffer) Char(c int) (rune, error) { return b.text.Char(c) }

// Line returns line l including its newline.
func (b *Buffer) Line(l int) (string, bool) { return b.text.Line(l) }

func (b *Buffer) CharToLine(c int) (int, error) { return b.text.CharToLine(c) }
func (b *Buffer) LineToChar(l int) (int, error) { return b.text.LineToChar(l) }
func (b *Buffer) CharToByte(c int) (int, error) { return b.text.CharToByte(c) }
func (b *Buffer) ByteToChar(n int) (int, error) { return b.text.ByteToChar(n) }
func (b *Buffer) ByteToLine(n int) (int, error) { return b.text.ByteToLine(n) }
func (b *Buffer) LineToByte(l int) (int, error) { return b.text.LineToByte(l) }

// CharToPosition converts a character index to a line and column.
func (b *Buffer) CharToPosition(c int) (edit.Position, error) {
	line, err := b.text.CharToLine(c)
	if err != nil {
		return edit.Position{}, err
	}
	start, err := b.text.LineToChar(line)
	if err != nil {
		return edit.Position{Line: line}, nil
	}
	return edit.Position{Line: line, Column: max(c-start, 0)}, nil
}

// PositionToChar converts p to a character index. Lines past the end and
// columns past the end of their line are clamped, so it only fails when the
// text itself is inconsistent.
func (b *Buffer) PositionToChar(p edit.Position) (int, error) {
	line := min(max(p.Line, 0), b.LenLines())
	column := min(max(p.Column, 0), b.text.LineLen(line))
	start, err := b.text.LineToChar(line)
	if err != nil {
		return 0, err
	}
	return start + column, nil
}

func (b *Buffer) ByteToPosition(n int) (edit.Position, error) {
	c, err := b.text.ByteToChar(n)
	if err != nil {
		return edit.Position{}, err
	}
	return b.CharToPosition(c)
}

func (b *Buffer) PositionToByte(p edit.Position) (int, error) {
	c, err := b.PositionToChar(p)
	if err != nil {
		return 0, err
	}
	return b.text.CharToByte(c)
}

// CharToProtocolPosition converts c for the language server protocol. The
// protocol puts the position of a newline at the end of its line, which is
// also where this buffer counts it, so only the integer width changes.
func (b *Buffer) CharToProtocolPosition(c int) (protocol.Position, error) {
	p, err := b.CharToPosition(c)
	if err != nil {
		return protocol.Position{}, err
	}
	return protocol.Position{Line: uint32(p.Line), Character: uint32(p.Column)}, nil
}

// CharRangeToProtocolRange converts r with CharToProtocolPosition.
func (b *Buffer) CharRangeToProtocolRange(r edit.Range) (protocol.Range, error) {
	start, err := b.CharToProtocolPosition(r.Start)
	if err != nil {
		return protocol.Range{}, err
	}
	end, err := b.CharToProtocolPosition(r.End)
	if err != nil {
		return protocol.Range{}, err
	}
	return protocol.Range{Start: start, End: end}, nil
}

func (b *Buffer) CharRangeToByteRange(r edit.Range) (highlight.ByteRange, error) {
	start, err := b.text.CharToByte(r.Start)
	if err != nil {
		return highlight.ByteRange{}, err
	}
	end, err := b.text.CharToByte(r.End)
	if err != nil {
		return highlight.ByteRange{}, err
	}
	return highlight.ByteRange{Start: start, End: end}, nil
}

func (b *Buffer) ByteRangeToCharRange(r highlight.ByteRange) (edit.Range, error) {
	start, err := b.text.ByteToChar(r.Start)
	if err != nil {
		return edit.Range{}, err
	}
	end, err := b.text.ByteToChar(r.End)
	if err != nil {
		return edit.Range{}, err
	}
	return edit.Range{Start: start, End: end}, nil
}

// PositionRangeToCharRange converts both ends with PositionToChar.
func (b *Buffer) PositionRangeToCharRange(r edit.PositionRange) (edit.Range, error) {
	start, err := b.PositionToChar(r.Start)
	if err != nil {
		return edit.Range{}, err
	}
	end, err := b.PositionToChar(r.End)
	if err != nil {
		return edit.Range{}, err
	}
	if end < start {
		return edit.Range{}, fmt.Errorf("position range %v..%v is reversed: %w", r.Start, r.End, rope.ErrOutOfBounds)
	}
	return edit.Range{Start: start, End: end}, nil
}

func (b *Buffer) CharRangeToPositionRange(r edit.Range) (edit.PositionRange, error) {
	start, err := b.CharToPosition(r.Start)
	if err != nil {
		return edit.PositionRange{}, err
	}
	end, err := b.CharToPosition(r.End)
	if err != nil {
		return edit.PositionRange{}, err
	}
	return edit.PositionRange{Start: start, End: end}, nil
}

// LineRangeToCharRange returns the characters from the start of line start
// to the start of line end.
func (b *Buffer) LineRangeToCharRange(start, end int) (edit.Range, error) {
	s, err := b.text.LineToChar(start)
	if err != nil {
		return edit.Range{}, err
	}
	e, err := b.text.LineToChar(end)
	if err != nil {
		return edit.Range{}, err
	}
	return edit.Range{Start: s, End: e}, nil
}

// LineCharRange returns the characters of line l, newline included.
func (b *Buffer) LineCharRange(l int) (edit.Range, error) {
	return b.LineRangeToCharRange(l, l+1)
}

// LineRangeByChar returns the range of the line containing c.
func (b *Buffer) LineRangeByChar(c int) (edit.Range, error) {
	line, err := b.text.CharToLine(c)
	if err != nil {
		return edit.Range{}, err
	}
	start, err := b.text.LineToChar(line)
	if err != nil {
		return edit.Range{}, err
	}
	return edit.Range{Start: start, End: start + b.text.LineLen(line)}, nil
}
