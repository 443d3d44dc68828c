package highlight

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/google/uuid"
)

func TestTokenizeGo(t *testing.T) {
	text := "package main\n\nfunc main() {}\n"
	spans, err := Tokenize("go", text)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if len(spans) == 0 {
		t.Fatal("expected spans")
	}
	first := spans[0]
	if got := text[first.Range.Start:first.Range.End]; got != "package" {
		t.Errorf("first span covers %q", got)
	}
	for i := 1; i < len(spans); i++ {
		if spans[i].Range.Start < spans[i-1].Range.End {
			t.Fatalf("spans overlap or are unsorted at %d: %+v %+v", i, spans[i-1], spans[i])
		}
	}
}

func TestTokenizeUnknownLexer(t *testing.T) {
	spans, err := Tokenize("no-such-lexer", "x")
	if err != nil || spans != nil {
		t.Errorf("got %v, %v", spans, err)
	}
}

func TestSpansApplyEdit(t *testing.T) {
	spans := Spans{
		{Range: ByteRange{0, 3}, StyleKey: "a"},
		{Range: ByteRange{5, 8}, StyleKey: "b"},
		{Range: ByteRange{10, 12}, StyleKey: "c"},
		{Range: ByteRange{40, 44}, StyleKey: "offscreen"},
	}
	// Two bytes inserted at byte 5 with the visible region ending at 30.
	got := spans.ApplyEdit(ByteRange{Start: 5, End: 30}, 2)
	want := []ByteRange{{0, 3}, {7, 10}, {12, 14}, {40, 44}}
	if len(got) != len(want) {
		t.Fatalf("got %d spans", len(got))
	}
	for i := range want {
		if got[i].Range != want[i] {
			t.Errorf("span %d = %v, want %v", i, got[i].Range, want[i])
		}
	}

	// Deleting bytes 4..9 swallows the second span.
	got = spans.ApplyEdit(ByteRange{Start: 4, End: 30}, -5)
	if len(got) != 3 || got[1].StyleKey != "c" || got[1].Range != (ByteRange{5, 7}) {
		t.Errorf("after delete: %+v", got)
	}
	if spans[1].Range != (ByteRange{5, 8}) {
		t.Error("ApplyEdit must not mutate the receiver")
	}
}

func TestBatchIDIncrement(t *testing.T) {
	var b BatchID
	b.Increment()
	b.Increment()
	if b != 2 {
		t.Errorf("got %d", b)
	}
}

func TestWorker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w := NewWorker(2)
	w.Start(ctx)
	id := uuid.New()
	for i := 0; i < 3; i++ {
		if err := w.Submit(ctx, Request{BufferID: id, Batch: BatchID(i), Lexer: "go", Text: "package x\n"}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	w.Close()

	seen := map[BatchID]bool{}
	for res := range w.Results() {
		if res.BufferID != id || res.Err != nil || len(res.Spans) == 0 {
			t.Errorf("bad result %+v", res)
		}
		seen[res.Batch] = true
	}
	if len(seen) != 3 {
		t.Errorf("got results for %d batches", len(seen))
	}
}

func TestColour(t *testing.T) {
	if c := Colour("monokai", chroma.Keyword); c == "" {
		t.Error("monokai styles keywords")
	}
}
