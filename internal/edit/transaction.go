package edit

import "unicode/utf8"

// Edit replaces Old, the text occupying Range, with New.
type Edit struct {
	Range Range
	Old   string
	New   string
}

// NewLen is the length of New in characters.
func (e Edit) NewLen() int { return utf8.RuneCountInString(e.New) }

// Delta is the change in text length the edit causes.
func (e Edit) Delta() int { return e.NewLen() - e.Range.Len() }

// Action is one step of an ActionGroup: an Edit or a Select.
type Action interface {
	isAction()
}

func (Edit) isAction() {}

// Select names a selection the group produces, in post-transaction
// coordinates.
type Select struct {
	Range Range
}

func (Select) isAction() {}

// ActionGroup is the unit whose net effect yields resulting selections.
type ActionGroup struct {
	Actions []Action
}

// Transaction is an ordered list of action groups applied atomically. Edit
// ranges are all expressed against the text as it was before the
// transaction.
type Transaction struct {
	groups []ActionGroup
}

func NewTransaction(groups ...ActionGroup) Transaction {
	return Transaction{groups: groups}
}

// FromEdits wraps each edit in its own group.
func FromEdits(edits ...Edit) Transaction {
	groups := make([]ActionGroup, len(edits))
	for i, e := range edits {
		groups[i] = ActionGroup{Actions: []Action{e}}
	}
	return Transaction{groups: groups}
}

func (t Transaction) Groups() []ActionGroup { return t.groups }

// UnnormalizedEdits returns the edits in declaration order with their ranges
// relative to the pre-transaction text.
func (t Transaction) UnnormalizedEdits() []Edit {
	var edits []Edit
	for _, g := range t.groups {
		for _, a := range g.Actions {
			if e, ok := a.(Edit); ok {
				edits = append(edits, e)
			}
		}
	}
	return edits
}

// IsEmpty reports whether the transaction contains no edits.
func (t Transaction) IsEmpty() bool { return len(t.UnnormalizedEdits()) == 0 }

// Edits returns the edits with ranges shifted so they can be applied one by
// one in declaration order. Edit i moves by the delta of each earlier edit
// that ends at or before its start.
func (t Transaction) Edits() []Edit {
	raw := t.UnnormalizedEdits()
	out := make([]Edit, len(raw))
	for i, e := range raw {
		shift := 0
		for _, prev := range raw[:i] {
			if prev.Range.End <= e.Range.Start {
				shift += prev.Delta()
			}
		}
		e.Range = e.Range.Shift(shift)
		out[i] = e
	}
	return out
}

// precedes reports whether edit j ends up before edit i in the resulting
// text. Insertions at the same point keep declaration order.
func precedes(raw []Edit, j, i int) bool {
	a, b := raw[j], raw[i]
	if a.Range.End > b.Range.Start {
		return false
	}
	if a.Range.IsEmpty() && b.Range.IsEmpty() && a.Range.Start == b.Range.Start {
		return j < i
	}
	return true
}

// Inverse returns the transaction undoing t. Its ranges refer to the text
// produced by t.
func (t Transaction) Inverse() Transaction {
	raw := t.UnnormalizedEdits()
	groups := make([]ActionGroup, 0, len(t.groups))
	k := 0
	for _, g := range t.groups {
		var actions []Action
		for _, a := range g.Actions {
			if _, ok := a.(Edit); !ok {
				continue
			}
			e := raw[k]
			start := e.Range.Start
			for j := range raw {
				if j != k && precedes(raw, j, k) {
					start += raw[j].Delta()
				}
			}
			actions = append(actions, Edit{
				Range: Range{Start: start, End: start + e.NewLen()},
				Old:   e.New,
				New:   e.Old,
			})
			k++
		}
		if len(actions) > 0 {
			groups = append(groups, ActionGroup{Actions: actions})
		}
	}
	return Transaction{groups: groups}
}

// NonEmptySelections returns the selections named by Select actions, or nil
// when there are none.
func (t Transaction) NonEmptySelections() []Range {
	var out []Range
	for _, g := range t.groups {
		for _, a := range g.Actions {
			if s, ok := a.(Select); ok {
				out = append(out, s.Range)
			}
		}
	}
	return out
}
