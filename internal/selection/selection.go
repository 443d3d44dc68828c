// Package selection holds cursor selections and the navigation history that
// records them.
package selection

import "github.com/xonecas/arbor/internal/edit"

// Selection is a single selected character range. An empty range is a
// cursor.
type Selection struct {
	Range edit.Range
}

func New(r edit.Range) Selection { return Selection{Range: r} }

// ApplyEdit maps s through e and clamps the result to maxChar.
func (s Selection) ApplyEdit(e edit.Edit, maxChar int) Selection {
	r, ok := s.Range.ApplyEdit(e)
	if !ok {
		r = edit.Range{Start: e.Range.Start, End: e.Range.Start}
	}
	r.Start = min(r.Start, maxChar)
	r.End = min(r.End, maxChar)
	return Selection{Range: r}
}

// Set is a primary selection plus any number of secondary ones.
type Set struct {
	Primary   Selection
	Secondary []Selection
}

func NewSet(primary Selection, secondary ...Selection) Set {
	return Set{Primary: primary, Secondary: secondary}
}

// All returns the primary selection followed by the secondary ones.
func (s Set) All() []Selection {
	out := make([]Selection, 0, 1+len(s.Secondary))
	out = append(out, s.Primary)
	return append(out, s.Secondary...)
}

func (s Set) Len() int { return 1 + len(s.Secondary) }

// SetRanges replaces the selections with ranges. The first range becomes
// primary. An empty slice leaves s unchanged.
func (s Set) SetRanges(ranges []edit.Range) Set {
	if len(ranges) == 0 {
		return s
	}
	out := Set{Primary: New(ranges[0])}
	for _, r := range ranges[1:] {
		out.Secondary = append(out.Secondary, New(r))
	}
	return out
}

// ApplyEdit maps every selection through e.
func (s Set) ApplyEdit(e edit.Edit, maxChar int) Set {
	out := Set{Primary: s.Primary.ApplyEdit(e, maxChar)}
	if len(s.Secondary) > 0 {
		out.Secondary = make([]Selection, len(s.Secondary))
		for i, sel := range s.Secondary {
			out.Secondary[i] = sel.ApplyEdit(e, maxChar)
		}
	}
	return out
}

// Equal reports whether both sets hold the same selections in order.
func (s Set) Equal(o Set) bool {
	if s.Primary != o.Primary || len(s.Secondary) != len(o.Secondary) {
		return false
	}
	for i := range s.Secondary {
		if s.Secondary[i] != o.Secondary[i] {
			return false
		}
	}
	return true
}
