package buffer

import (
	"slices"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/xonecas/arbor/internal/edit"
	"github.com/xonecas/arbor/internal/selection"
	"github.com/xonecas/arbor/internal/treesitter"
)

// Line is a line of text together with the position of the node that
// brought it in.
type Line struct {
	Origin  edit.Position
	Line    int
	Content string
}

// NearestNodeAfterChar returns the first node in pre-order that starts at
// or after c, so ancestors win over their children. It returns nil without
// a tree.
func (b *Buffer) NearestNodeAfterChar(c int) *sitter.Node {
	if b.tree == nil {
		return nil
	}
	n, err := b.text.CharToByte(c)
	if err != nil {
		return nil
	}
	var found *sitter.Node
	treesitter.PreOrder(b.tree.Root(), func(node *sitter.Node) bool {
		if int(node.StartByte()) >= n {
			found = node
			return false
		}
		return true
	})
	return found
}

// CurrentNode returns the node the selection covers. Of the ancestors that
// start where that node starts, the outermost one below the root is
// returned, provided it also ends in the same place. With largestEnd the end
// is ignored and only the selection start is considered.
func (b *Buffer) CurrentNode(sel selection.Selection, largestEnd bool) (*sitter.Node, error) {
	if b.tree == nil {
		return nil, nil
	}
	start, err := b.text.CharToByte(sel.Range.Start)
	if err != nil {
		return nil, err
	}
	end := start + 1
	if !largestEnd {
		if end, err = b.text.CharToByte(sel.Range.End); err != nil {
			return nil, err
		}
	}
	root := b.tree.Root()
	node := treesitter.DescendantForByteRange(root, uint32(start), uint32(end))
	if node == nil {
		node = root
	}

	result := node
	for {
		parent := result.Parent()
		if parent == nil || treesitter.IsRoot(parent) {
			return result, nil
		}
		if parent.StartByte() != node.StartByte() {
			return result, nil
		}
		if !largestEnd && parent.EndByte() != node.EndByte() {
			return result, nil
		}
		result = parent
	}
}

// NextToken returns the first leaf in post-order that ends after c. With
// named set anonymous leaves such as punctuation are skipped.
func (b *Buffer) NextToken(c int, named bool) *sitter.Node {
	if b.tree == nil {
		return nil
	}
	n, err := b.text.CharToByte(c)
	if err != nil {
		return nil
	}
	var found *sitter.Node
	treesitter.PostOrder(b.tree.Root(), func(node *sitter.Node) bool {
		if node.ChildCount() == 0 && (!named || node.IsNamed()) && int(node.EndByte()) > n {
			found = node
			return false
		}
		return true
	})
	return found
}

// HasSyntaxErrorAt reports whether the smallest node covering r contains a
// syntax error.
func (b *Buffer) HasSyntaxErrorAt(r edit.Range) bool {
	if b.tree == nil {
		return false
	}
	br, err := b.CharRangeToByteRange(r)
	if err != nil {
		return false
	}
	node := treesitter.DescendantForByteRange(b.tree.Root(), uint32(br.Start), uint32(br.End))
	return node != nil && node.HasError()
}

// GivenRangeIsNode reports whether some node spans exactly r.
func (b *Buffer) GivenRangeIsNode(r edit.Range) bool {
	if b.tree == nil {
		return false
	}
	br, err := b.CharRangeToByteRange(r)
	if err != nil {
		return false
	}
	node := treesitter.DescendantForByteRange(b.tree.Root(), uint32(br.Start), uint32(br.End))
	return node != nil && int(node.StartByte()) == br.Start && int(node.EndByte()) == br.End
}

// NodeRange returns the character range of n.
func (b *Buffer) NodeRange(n *sitter.Node) (edit.Range, error) {
	start, err := b.text.ByteToChar(int(n.StartByte()))
	if err != nil {
		return edit.Range{}, err
	}
	end, err := b.text.ByteToChar(int(n.EndByte()))
	if err != nil {
		return edit.Range{}, err
	}
	return edit.Range{Start: start, End: end}, nil
}

// ParentLines returns the lines above line that open the syntax nodes
// enclosing it, outermost first. It is the breadcrumb of line: each
// enclosing node contributes the line it starts on, lines without letters
// or digits are discarded, and of several lines at the same indentation
// only the innermost is kept.
func (b *Buffer) ParentLines(line int) ([]Line, error) {
	c, err := b.text.LineToChar(line)
	if err != nil {
		return nil, err
	}
	var lines []Line
	for node := b.NearestNodeAfterChar(c); node != nil; node = node.Parent() {
		origin, err := b.ByteToPosition(int(node.StartByte()))
		if err != nil {
			return nil, err
		}
		content, ok := b.text.Line(origin.Line)
		if !ok {
			break
		}
		lines = append(lines, Line{Origin: origin, Line: origin.Line, Content: content})
	}

	lines = slices.DeleteFunc(lines, func(l Line) bool {
		return !strings.ContainsFunc(l.Content, func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		})
	})
	for i := range lines {
		lines[i].Content = strings.TrimRightFunc(lines[i].Content, unicode.IsSpace)
	}
	lines = uniqueBy(lines, func(l Line) Line { return l })
	lines = uniqueBy(lines, func(l Line) int { return l.Origin.Column })
	lines = uniqueBy(lines, func(l Line) string { return l.Content })
	slices.Reverse(lines)
	return slices.DeleteFunc(lines, func(l Line) bool { return l.Line >= line }), nil
}

// uniqueBy keeps the first element for each key.
func uniqueBy[T any, K comparable](s []T, key func(T) K) []T {
	seen := make(map[K]bool, len(s))
	out := s[:0:0]
	for _, v := range s {
		k := key(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}
