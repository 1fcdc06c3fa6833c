package document

import (
	"sort"
	"strings"

	"github.com/tack-ls/tack/protocol"
)

type patch struct {
	start, end int
	text       string
}

// ApplyEdits applies one didChange batch to document text. A change without
// a range is a full-text replacement and resets the base for the rest of the
// batch. Range patches are resolved against the pre-batch text: every
// patch's offsets refer to the document state before any patch in the batch
// was applied. They are then spliced in left-to-right.
func ApplyEdits(text string, changes []protocol.TextDocumentContentChangeEvent) string {
	base := text
	var patches []patch

	for _, change := range changes {
		if change.Range == nil {
			base = change.Text
			patches = patches[:0]
			continue
		}
		start := OffsetAt(base, change.Range.Start)
		end := OffsetAt(base, change.Range.End)
		if start < 0 {
			start = 0
		}
		if end > len(base) {
			end = len(base)
		}
		if start > end {
			start = end
		}
		patches = append(patches, patch{start: start, end: end, text: change.Text})
	}

	if len(patches) == 0 {
		return base
	}

	// Stable sort keeps batch order for patches at the same offset.
	sort.SliceStable(patches, func(i, j int) bool { return patches[i].start < patches[j].start })

	var b strings.Builder
	cursor := 0
	for _, p := range patches {
		if p.start < cursor {
			// Overlap with an earlier patch; keep what was already emitted.
			p.start = cursor
			if p.end < cursor {
				p.end = cursor
			}
		}
		b.WriteString(base[cursor:p.start])
		b.WriteString(p.text)
		cursor = p.end
	}
	b.WriteString(base[cursor:])
	return b.String()
}
