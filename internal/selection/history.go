package selection

import "slices"

// History is a plain undo/redo stack.
type History[T any] struct {
	back    []T
	forward []T
}

// Push records v and discards anything that could be redone.
func (h *History[T]) Push(v T) {
	h.back = append(h.back, v)
	h.forward = h.forward[:0]
}

// Undo pops the most recent entry and makes it redoable.
func (h *History[T]) Undo() (T, bool) {
	var zero T
	if len(h.back) == 0 {
		return zero, false
	}
	v := h.back[len(h.back)-1]
	h.back = h.back[:len(h.back)-1]
	h.forward = append(h.forward, v)
	return v, true
}

// Redo pops the most recently undone entry.
func (h *History[T]) Redo() (T, bool) {
	var zero T
	if len(h.forward) == 0 {
		return zero, false
	}
	v := h.forward[len(h.forward)-1]
	h.forward = h.forward[:len(h.forward)-1]
	h.back = append(h.back, v)
	return v, true
}

// Apply rewrites every stored entry in place with f.
func (h *History[T]) Apply(f func(T) T) {
	for i := range h.back {
		h.back[i] = f(h.back[i])
	}
	for i := range h.forward {
		h.forward[i] = f(h.forward[i])
	}
}

// Clone returns an independent copy of h.
func (h *History[T]) Clone() History[T] {
	return History[T]{back: slices.Clone(h.back), forward: slices.Clone(h.forward)}
}

// Len returns the undoable and redoable entry counts.
func (h *History[T]) Len() (int, int) { return len(h.back), len(h.forward) }
