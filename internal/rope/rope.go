// Package rope implements a persistent rope addressed by character index.
// Every mutation returns a new Rope; existing values stay valid, which makes
// snapshots free.
package rope

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrOutOfBounds is returned when an index lies outside the text.
var ErrOutOfBounds = errors.New("index out of bounds")

const (
	maxLeafBytes = 1024
	maxDepth     = 40
)

type node struct {
	left, right *node
	text        string // leaves only

	bytes    int
	chars    int
	newlines int
	depth    int
}

func (n *node) isLeaf() bool { return n.left == nil && n.right == nil }

func newLeaf(s string) *node {
	if s == "" {
		return nil
	}
	return &node{
		text:     s,
		bytes:    len(s),
		chars:    utf8.RuneCountInString(s),
		newlines: strings.Count(s, "\n"),
	}
}

func join(a, b *node) *node {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	if a.isLeaf() && b.isLeaf() && a.bytes+b.bytes <= maxLeafBytes {
		return newLeaf(a.text + b.text)
	}
	n := &node{
		left:     a,
		right:    b,
		bytes:    a.bytes + b.bytes,
		chars:    a.chars + b.chars,
		newlines: a.newlines + b.newlines,
		depth:    max(a.depth, b.depth) + 1,
	}
	if n.depth > maxDepth {
		return balance(n)
	}
	return n
}

// balance rebuilds n as a height-balanced tree over its existing leaves.
func balance(n *node) *node {
	var leaves []*node
	collectLeaves(n, &leaves)
	return buildLeaves(leaves)
}

func collectLeaves(n *node, out *[]*node) {
	if n == nil {
		return
	}
	if n.isLeaf() {
		*out = append(*out, n)
		return
	}
	collectLeaves(n.left, out)
	collectLeaves(n.right, out)
}

func buildLeaves(leaves []*node) *node {
	switch len(leaves) {
	case 0:
		return nil
	case 1:
		return leaves[0]
	}
	mid := len(leaves) / 2
	l, r := buildLeaves(leaves[:mid]), buildLeaves(leaves[mid:])
	return &node{
		left:     l,
		right:    r,
		bytes:    l.bytes + r.bytes,
		chars:    l.chars + r.chars,
		newlines: l.newlines + r.newlines,
		depth:    max(l.depth, r.depth) + 1,
	}
}

// build chunks s into leaves cut on rune boundaries.
func build(s string) *node {
	var leaves []*node
	for len(s) > 0 {
		cut := len(s)
		if cut > maxLeafBytes {
			cut = maxLeafBytes
			for cut > 0 && !utf8.RuneStart(s[cut]) {
				cut--
			}
		}
		leaves = append(leaves, newLeaf(s[:cut]))
		s = s[cut:]
	}
	return buildLeaves(leaves)
}

// charByte returns the byte offset of the c-th rune of s.
func charByte(s string, c int) int {
	if c <= 0 {
		return 0
	}
	for i := range s {
		if c == 0 {
			return i
		}
		c--
	}
	return len(s)
}

// split returns the text before and after character c.
func split(n *node, c int) (*node, *node) {
	if n == nil {
		return nil, nil
	}
	if n.isLeaf() {
		b := charByte(n.text, c)
		return newLeaf(n.text[:b]), newLeaf(n.text[b:])
	}
	switch {
	case c < n.left.chars:
		ll, lr := split(n.left, c)
		return ll, join(lr, n.right)
	case c == n.left.chars:
		return n.left, n.right
	default:
		rl, rr := split(n.right, c-n.left.chars)
		return join(n.left, rl), rr
	}
}

// Rope is an immutable text value.
type Rope struct {
	root *node
}

// FromString builds a rope holding s.
func FromString(s string) Rope {
	return Rope{root: build(s)}
}

// Len returns the number of characters.
func (r Rope) Len() int {
	if r.root == nil {
		return 0
	}
	return r.root.chars
}

// LenBytes returns the UTF-8 length.
func (r Rope) LenBytes() int {
	if r.root == nil {
		return 0
	}
	return r.root.bytes
}

// LenLines returns the newline count plus one. A text ending in a newline
// therefore has an empty final line.
func (r Rope) LenLines() int {
	if r.root == nil {
		return 1
	}
	return r.root.newlines + 1
}

func (r Rope) String() string {
	var sb strings.Builder
	sb.Grow(r.LenBytes())
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		if n.isLeaf() {
			sb.WriteString(n.text)
			return
		}
		walk(n.left)
		walk(n.right)
	}
	walk(r.root)
	return sb.String()
}

func (r Rope) checkChar(c int) error {
	if c < 0 || c > r.Len() {
		return fmt.Errorf("char %d of %d: %w", c, r.Len(), ErrOutOfBounds)
	}
	return nil
}

func (r Rope) checkRange(start, end int) error {
	if start > end {
		return fmt.Errorf("range %d..%d: %w", start, end, ErrOutOfBounds)
	}
	if err := r.checkChar(start); err != nil {
		return err
	}
	return r.checkChar(end)
}

// Insert returns a rope with s inserted before character c.
func (r Rope) Insert(c int, s string) (Rope, error) {
	if err := r.checkChar(c); err != nil {
		return r, err
	}
	if s == "" {
		return r, nil
	}
	left, right := split(r.root, c)
	return Rope{root: join(join(left, build(s)), right)}, nil
}

// Remove returns a rope without the characters in [start, end).
func (r Rope) Remove(start, end int) (Rope, error) {
	if err := r.checkRange(start, end); err != nil {
		return r, err
	}
	if start == end {
		return r, nil
	}
	left, rest := split(r.root, start)
	_, right := split(rest, end-start)
	return Rope{root: join(left, right)}, nil
}

// Slice returns the text in [start, end).
func (r Rope) Slice(start, end int) (string, error) {
	if err := r.checkRange(start, end); err != nil {
		return "", err
	}
	var sb strings.Builder
	appendChars(&sb, r.root, start, end)
	return sb.String(), nil
}

func appendChars(sb *strings.Builder, n *node, start, end int) {
	if n == nil || start >= end {
		return
	}
	if n.isLeaf() {
		b0 := charByte(n.text, start)
		b1 := b0 + charByte(n.text[b0:], end-start)
		sb.WriteString(n.text[b0:b1])
		return
	}
	lc := n.left.chars
	if start < lc {
		appendChars(sb, n.left, start, min(end, lc))
	}
	if end > lc {
		appendChars(sb, n.right, max(start-lc, 0), end-lc)
	}
}

// Char returns the character at c.
func (r Rope) Char(c int) (rune, error) {
	if c < 0 || c >= r.Len() {
		return 0, fmt.Errorf("char %d of %d: %w", c, r.Len(), ErrOutOfBounds)
	}
	s, _ := r.Slice(c, c+1)
	ch, _ := utf8.DecodeRuneInString(s)
	return ch, nil
}
