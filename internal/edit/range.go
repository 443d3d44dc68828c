// Package edit defines character ranges, edits and the transactions that
// group them.
package edit

import "fmt"

// Range is a half-open character index range [Start, End).
type Range struct {
	Start int
	End   int
}

// NewRange returns the range between a and b regardless of their order.
func NewRange(a, b int) Range {
	if a > b {
		a, b = b, a
	}
	return Range{Start: a, End: b}
}

func (r Range) Len() int      { return r.End - r.Start }
func (r Range) IsEmpty() bool { return r.Start == r.End }

func (r Range) Shift(delta int) Range {
	return Range{Start: r.Start + delta, End: r.End + delta}
}

// Contains reports whether c lies in [Start, End).
func (r Range) Contains(c int) bool { return r.Start <= c && c < r.End }

func (r Range) String() string { return fmt.Sprintf("%d..%d", r.Start, r.End) }

// ApplyEdit maps r through e. ok is false when e deleted everything r
// covered.
func (r Range) ApplyEdit(e Edit) (Range, bool) {
	newLen := e.NewLen()
	delta := e.Delta()
	switch {
	case r.End <= e.Range.Start:
		return r, true
	case r.Start >= e.Range.End:
		return r.Shift(delta), true
	case e.Range.Start <= r.Start && r.End <= e.Range.End:
		if newLen == 0 {
			return Range{}, false
		}
		return Range{Start: e.Range.Start, End: e.Range.Start + newLen}, true
	case r.Start <= e.Range.Start && e.Range.End <= r.End:
		return Range{Start: r.Start, End: r.End + delta}, true
	case e.Range.Start < r.Start:
		// e covers the head of r.
		return Range{Start: e.Range.Start + newLen, End: r.End + delta}, true
	default:
		// e covers the tail of r.
		return Range{Start: r.Start, End: e.Range.Start}, true
	}
}

// Position is a zero-based line and column. Columns count characters, and a
// newline belongs to the line it terminates.
type Position struct {
	Line   int
	Column int
}

func (p Position) Less(o Position) bool {
	return p.Line < o.Line || (p.Line == o.Line && p.Column < o.Column)
}

func (p Position) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// PositionRange is a half-open range of positions.
type PositionRange struct {
	Start Position
	End   Position
}
