package rope

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// CharToByte converts a character index to a byte offset.
func (r Rope) CharToByte(c int) (int, error) {
	if err := r.checkChar(c); err != nil {
		return 0, err
	}
	b := 0
	for n := r.root; n != nil; {
		if n.isLeaf() {
			return b + charByte(n.text, c), nil
		}
		if c < n.left.chars {
			n = n.left
			continue
		}
		b += n.left.bytes
		c -= n.left.chars
		n = n.right
	}
	return b, nil
}

// ByteToChar converts a byte offset to the index of the character containing it.
func (r Rope) ByteToChar(b int) (int, error) {
	if b < 0 || b > r.LenBytes() {
		return 0, fmt.Errorf("byte %d of %d: %w", b, r.LenBytes(), ErrOutOfBounds)
	}
	c := 0
	for n := r.root; n != nil; {
		if n.isLeaf() {
			for b > 0 && b < len(n.text) && !utf8.RuneStart(n.text[b]) {
				b--
			}
			return c + utf8.RuneCountInString(n.text[:b]), nil
		}
		if b < n.left.bytes {
			n = n.left
			continue
		}
		c += n.left.chars
		b -= n.left.bytes
		n = n.right
	}
	return c, nil
}

// CharToLine returns the zero-based line containing character c.
func (r Rope) CharToLine(c int) (int, error) {
	if err := r.checkChar(c); err != nil {
		return 0, err
	}
	line := 0
	for n := r.root; n != nil; {
		if n.isLeaf() {
			return line + strings.Count(n.text[:charByte(n.text, c)], "\n"), nil
		}
		if c < n.left.chars {
			n = n.left
			continue
		}
		line += n.left.newlines
		c -= n.left.chars
		n = n.right
	}
	return line, nil
}

// ByteToLine returns the zero-based line containing byte b.
func (r Rope) ByteToLine(b int) (int, error) {
	if b < 0 || b > r.LenBytes() {
		return 0, fmt.Errorf("byte %d of %d: %w", b, r.LenBytes(), ErrOutOfBounds)
	}
	line := 0
	for n := r.root; n != nil; {
		if n.isLeaf() {
			return line + strings.Count(n.text[:b], "\n"), nil
		}
		if b < n.left.bytes {
			n = n.left
			continue
		}
		line += n.left.newlines
		b -= n.left.bytes
		n = n.right
	}
	return line, nil
}

// lineStart locates the start of line l, which must satisfy
// 0 < l <= newlines. It returns the start as a char and a byte offset.
func (r Rope) lineStart(l int) (int, int) {
	c, b := 0, 0
	for n := r.root; n != nil; {
		if n.isLeaf() {
			i := nthNewline(n.text, l)
			return c + utf8.RuneCountInString(n.text[:i+1]), b + i + 1
		}
		if l <= n.left.newlines {
			n = n.left
			continue
		}
		c += n.left.chars
		b += n.left.bytes
		l -= n.left.newlines
		n = n.right
	}
	return c, b
}

// nthNewline returns the byte index of the n-th (1-based) newline in s.
func nthNewline(s string, n int) int {
	off := 0
	for {
		i := strings.IndexByte(s[off:], '\n')
		if i < 0 {
			return len(s) - 1
		}
		n--
		if n == 0 {
			return off + i
		}
		off += i + 1
	}
}

func (r Rope) checkLine(l int) error {
	if l < 0 || l > r.LenLines() {
		return fmt.Errorf("line %d of %d: %w", l, r.LenLines(), ErrOutOfBounds)
	}
	return nil
}

// LineToChar returns the character index at which line l starts. l may equal
// LenLines, in which case the text length is returned.
func (r Rope) LineToChar(l int) (int, error) {
	if err := r.checkLine(l); err != nil {
		return 0, err
	}
	switch l {
	case 0:
		return 0, nil
	case r.LenLines():
		return r.Len(), nil
	}
	c, _ := r.lineStart(l)
	return c, nil
}

// LineToByte is LineToChar in byte units.
func (r Rope) LineToByte(l int) (int, error) {
	if err := r.checkLine(l); err != nil {
		return 0, err
	}
	switch l {
	case 0:
		return 0, nil
	case r.LenLines():
		return r.LenBytes(), nil
	}
	_, b := r.lineStart(l)
	return b, nil
}

// Line returns line l including its newline. ok is false when l is not a
// line of the text.
func (r Rope) Line(l int) (string, bool) {
	if l < 0 || l >= r.LenLines() {
		return "", false
	}
	start, _ := r.LineToChar(l)
	end, _ := r.LineToChar(l + 1)
	s, err := r.Slice(start, end)
	return s, err == nil
}

// LineLen returns the number of characters of line l, newline included.
func (r Rope) LineLen(l int) int {
	if l < 0 || l >= r.LenLines() {
		return 0
	}
	start, _ := r.LineToChar(l)
	end, _ := r.LineToChar(l + 1)
	return end - start
}
