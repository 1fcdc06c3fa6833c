package document

import (
	"testing"

	"github.com/tack-ls/tack/protocol"
)

func rng(startLine, startChar, endLine, endChar uint32) *protocol.Range {
	return &protocol.Range{
		Start: protocol.Position{Line: startLine, Character: startChar},
		End:   protocol.Position{Line: endLine, Character: endChar},
	}
}

func TestApplyEditsFullReplace(t *testing.T) {
	got := ApplyEdits("old text", []protocol.TextDocumentContentChangeEvent{
		{Text: "new text"},
	})
	if got != "new text" {
		t.Errorf("ApplyEdits = %q, want %q", got, "new text")
	}
}

func TestApplyEditsSingleRange(t *testing.T) {
	got := ApplyEdits("hello world", []protocol.TextDocumentContentChangeEvent{
		{Range: rng(0, 6, 0, 11), Text: "tack"},
	})
	if got != "hello tack" {
		t.Errorf("ApplyEdits = %q, want %q", got, "hello tack")
	}
}

func TestApplyEditsBatchUsesPreBatchOffsets(t *testing.T) {
	// Both edits position against the original text, not each other's
	// output: inserting at character 0 must not shift the second edit.
	got := ApplyEdits("abcdef", []protocol.TextDocumentContentChangeEvent{
		{Range: rng(0, 0, 0, 0), Text: "X"},
		{Range: rng(0, 3, 0, 3), Text: "Y"},
	})
	want := "XabcYdef"
	if got != want {
		t.Errorf("ApplyEdits = %q, want %q", got, want)
	}
}

func TestApplyEditsBatchDeleteAndInsert(t *testing.T) {
	got := ApplyEdits("one two three", []protocol.TextDocumentContentChangeEvent{
		{Range: rng(0, 4, 0, 7), Text: ""},        // delete "two"
		{Range: rng(0, 8, 0, 13), Text: "TRES"},   // replace "three"
	})
	want := "one  TRES"
	if got != want {
		t.Errorf("ApplyEdits = %q, want %q", got, want)
	}
}

func TestApplyEditsFullReplaceResetsBatch(t *testing.T) {
	// A full replacement mid-batch discards earlier patches; later range
	// edits apply to the replacement text.
	got := ApplyEdits("original", []protocol.TextDocumentContentChangeEvent{
		{Range: rng(0, 0, 0, 8), Text: "zzz"},
		{Text: "fresh base"},
		{Range: rng(0, 0, 0, 5), Text: "clean"},
	})
	want := "clean base"
	if got != want {
		t.Errorf("ApplyEdits = %q, want %q", got, want)
	}
}

func TestApplyEditsOverlapClamped(t *testing.T) {
	// Overlapping ranges must not panic or duplicate text already consumed.
	got := ApplyEdits("abcdef", []protocol.TextDocumentContentChangeEvent{
		{Range: rng(0, 0, 0, 4), Text: "1"},
		{Range: rng(0, 2, 0, 6), Text: "2"},
	})
	want := "12"
	if got != want {
		t.Errorf("ApplyEdits = %q, want %q", got, want)
	}
}

func TestApplyEditsEquivalentToFullReplace(t *testing.T) {
	// Applying the same logical change incrementally or as a full-text
	// replacement must converge on identical content.
	base := "fn main() {\n    let x = 1;\n}"
	incremental := ApplyEdits(base, []protocol.TextDocumentContentChangeEvent{
		{Range: rng(1, 8, 1, 9), Text: "count"},
	})
	full := ApplyEdits(base, []protocol.TextDocumentContentChangeEvent{
		{Text: "fn main() {\n    let count = 1;\n}"},
	})
	if incremental != full {
		t.Errorf("incremental %q != full %q", incremental, full)
	}
}

func TestApplyEditsEmptyBatch(t *testing.T) {
	if got := ApplyEdits("unchanged", nil); got != "unchanged" {
		t.Errorf("ApplyEdits = %q, want %q", got, "unchanged")
	}
}
