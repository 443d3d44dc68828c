package main

import (
	"regexp"
	"testing"

	"github.com/alecthomas/chroma/v2"
	"github.com/charmbracelet/x/powernap/pkg/lsp/protocol"

	"github.com/xonecas/arbor/internal/highlight"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestRenderKeepsText(t *testing.T) {
	text := "fn main() {}\n"
	spans := highlight.Spans{
		{Range: highlight.ByteRange{Start: 0, End: 2}, Token: chroma.Keyword},
		{Range: highlight.ByteRange{Start: 1, End: 4}, Token: chroma.Keyword},
		{Range: highlight.ByteRange{Start: 3, End: 7}, Token: chroma.NameFunction},
		{Range: highlight.ByteRange{Start: 10, End: 99}, Token: chroma.Punctuation},
	}
	out := render(text, spans, "github-dark")
	if got := ansiRe.ReplaceAllString(out, ""); got != text {
		t.Errorf("stripped output = %q, want %q", got, text)
	}
}

func TestProtocolRange(t *testing.T) {
	if got := protocolRange(protocol.Range{Start: protocol.Position{}, End: protocol.Position{Line: 1, Character: 3}}); got != "1:1-2:4" {
		t.Errorf("got %q", got)
	}
}
