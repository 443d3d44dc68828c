// Package treesitter wraps smacker/go-tree-sitter with the traversal and
// range queries the buffer needs.
package treesitter

import (
	"context"
	"errors"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrNoGrammar is returned when parsing is requested without a grammar.
var ErrNoGrammar = errors.New("no grammar")

// Tree is a parsed syntax tree together with the source it was parsed from.
// Nodes obtained from a Tree are invalid once it is closed.
type Tree struct {
	tree *sitter.Tree
	lang *sitter.Language
	src  []byte
}

// Parse parses src with lang. It always parses from scratch.
func Parse(ctx context.Context, lang *sitter.Language, src []byte) (*Tree, error) {
	if lang == nil {
		return nil, ErrNoGrammar
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	return &Tree{tree: tree, lang: lang, src: src}, nil
}

// Root returns the root node.
func (t *Tree) Root() *sitter.Node { return t.tree.RootNode() }

// Language returns the grammar the tree was parsed with.
func (t *Tree) Language() *sitter.Language { return t.lang }

// Source returns the parsed bytes.
func (t *Tree) Source() []byte { return t.src }

// HasError reports whether the tree contains any syntax error.
func (t *Tree) HasError() bool { return t.Root().HasError() }

func (t *Tree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// PreOrder visits n and then its descendants, ancestors first. Returning
// false from fn stops the walk.
func PreOrder(n *sitter.Node, fn func(*sitter.Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		if !PreOrder(n.Child(i), fn) {
			return false
		}
	}
	return true
}

// PostOrder visits the descendants of n before n itself.
func PostOrder(n *sitter.Node, fn func(*sitter.Node) bool) bool {
	if n == nil {
		return true
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		if !PostOrder(n.Child(i), fn) {
			return false
		}
	}
	return fn(n)
}

// DescendantForByteRange returns the smallest node under n that spans
// [start, end). A child qualifies when it starts at or before start and
// ends at or after end, and also ends past start.
func DescendantForByteRange(n *sitter.Node, start, end uint32) *sitter.Node {
	node := n
	for {
		var next *sitter.Node
		count := int(node.ChildCount())
		for i := 0; i < count; i++ {
			child := node.Child(i)
			if child.EndByte() < end || child.EndByte() <= start {
				continue
			}
			if start < child.StartByte() {
				break
			}
			next = child
			break
		}
		if next == nil {
			return node
		}
		node = next
	}
}

// IsRoot reports whether n has no parent.
func IsRoot(n *sitter.Node) bool { return n.Parent() == nil }
