// Package hover answers point queries over a single document's text with a
// deliberately textual heuristic: it recognizes top-level fn/struct/enum
// definition lines and resolves name uses to the nearest preceding
// definition. No type information, no cross-file lookup.
package hover

import (
	"fmt"
	"strings"

	"github.com/tack-ls/tack/document"
	"github.com/tack-ls/tack/protocol"
)

// Kind is the closed set of definition shapes the resolver recognizes.
type Kind int

const (
	Function Kind = iota
	Structure
	Enumeration
)

func (k Kind) String() string {
	switch k {
	case Function:
		return "fn"
	case Structure:
		return "struct"
	case Enumeration:
		return "enum"
	}
	return "unknown"
}

var keywords = map[string]Kind{
	"fn":     Function,
	"struct": Structure,
	"enum":   Enumeration,
}

// Definition is one recognized definition: its name, kind, the zero-based
// line it occurs on, the UTF-16 column span of the name token, and the
// trimmed source line shown on hover.
type Definition struct {
	Name      string
	Kind      Kind
	Line      uint32
	StartChar uint32
	EndChar   uint32
	Signature string
}

// Result is a resolved hover: the rendered contents and the span of the
// token under the query point.
type Result struct {
	Contents string
	Range    protocol.Range
}

// Resolve answers a point query against document text. Returns nil when the
// point is not inside an identifier, or the identifier matches no recorded
// definition name.
func Resolve(text string, pos protocol.Position) *Result {
	ident, tokenRange := identAt(text, pos)
	if ident == "" {
		return nil
	}

	defs := ScanDefinitions(text)
	def := pick(defs, ident, pos)
	if def == nil {
		return nil
	}

	return &Result{
		Contents: fmt.Sprintf("```rust\n%s\n```", def.Signature),
		Range:    tokenRange,
	}
}

// pick chooses among definitions matching ident. Hovering a definition's own
// name token returns that definition. For a use, the closest preceding
// definition by line wins; ties and uses above every definition fall back to
// first occurrence.
func pick(defs []Definition, ident string, pos protocol.Position) *Definition {
	var candidates []*Definition
	for i := range defs {
		d := &defs[i]
		if d.Name != ident {
			continue
		}
		if d.Line == pos.Line && pos.Character >= d.StartChar && pos.Character <= d.EndChar {
			return d
		}
		candidates = append(candidates, d)
	}
	if len(candidates) == 0 {
		return nil
	}

	var best *Definition
	for _, d := range candidates {
		if d.Line > pos.Line {
			continue
		}
		if best == nil || d.Line > best.Line {
			best = d
		}
	}
	if best == nil {
		best = candidates[0]
	}
	return best
}

// ScanDefinitions walks the text line by line collecting fn/struct/enum
// definitions. Comment lines are skipped; pub / pub(...) visibility prefixes
// are allowed before the keyword.
func ScanDefinitions(text string) []Definition {
	var defs []Definition
	for i, line := range strings.Split(text, "\n") {
		rest, indent := stripIndent(line)
		if strings.HasPrefix(rest, "//") || strings.HasPrefix(rest, "/*") {
			continue
		}
		rest, vis := stripVisibility(rest)

		word, after := nextWord(rest)
		kind, ok := keywords[word]
		if !ok {
			continue
		}

		trimmed := strings.TrimLeft(after, " \t")
		name := takeIdent(trimmed)
		if name == "" {
			continue
		}

		// Byte offset of the name token within the line.
		nameStart := indent + vis + len(word) + (len(after) - len(trimmed))
		defs = append(defs, Definition{
			Name:      name,
			Kind:      kind,
			Line:      uint32(i),
			StartChar: uint32(utf16Prefix(line, nameStart)),
			EndChar:   uint32(utf16Prefix(line, nameStart+len(name))),
			Signature: strings.TrimSpace(line),
		})
	}
	return defs
}

// identAt extracts the identifier containing the position, expanding both
// directions from the query point like the editor's word-under-cursor.
func identAt(text string, pos protocol.Position) (string, protocol.Range) {
	offset := document.OffsetAt(text, pos)
	if offset > len(text) {
		return "", protocol.Range{}
	}

	start := offset
	for start > 0 && isIdentByte(text[start-1]) {
		start--
	}
	end := offset
	for end < len(text) && isIdentByte(text[end]) {
		end++
	}
	if start == end {
		return "", protocol.Range{}
	}

	return text[start:end], protocol.Range{
		Start: document.PositionAt(text, start),
		End:   document.PositionAt(text, end),
	}
}

func isIdentByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// takeIdent returns the identifier at the start of s, or "" if s does not
// begin with one.
func takeIdent(s string) string {
	if s == "" {
		return ""
	}
	b := s[0]
	if b != '_' && !(b >= 'a' && b <= 'z') && !(b >= 'A' && b <= 'Z') {
		return ""
	}
	end := 1
	for end < len(s) && isIdentByte(s[end]) {
		end++
	}
	return s[:end]
}

func stripIndent(line string) (string, int) {
	trimmed := strings.TrimLeft(line, " \t")
	return trimmed, len(line) - len(trimmed)
}

// stripVisibility drops a leading "pub" or "pub(...)" prefix, returning the
// remainder and how many bytes were consumed.
func stripVisibility(s string) (string, int) {
	rest, ok := strings.CutPrefix(s, "pub")
	if !ok {
		return s, 0
	}
	consumed := 3
	if strings.HasPrefix(rest, "(") {
		close := strings.IndexByte(rest, ')')
		if close < 0 {
			return s, 0
		}
		consumed += close + 1
		rest = rest[close+1:]
	} else if rest == "" || !(rest[0] == ' ' || rest[0] == '\t') {
		// "public", "pubx": not a visibility prefix.
		return s, 0
	}
	trimmed := strings.TrimLeft(rest, " \t")
	consumed += len(rest) - len(trimmed)
	return trimmed, consumed
}

// nextWord splits the first whitespace-delimited word from s.
func nextWord(s string) (word, rest string) {
	end := 0
	for end < len(s) && isIdentByte(s[end]) {
		end++
	}
	return s[:end], s[end:]
}

// utf16Prefix converts a byte offset within line to a UTF-16 column.
func utf16Prefix(line string, byteOffset int) int {
	if byteOffset > len(line) {
		byteOffset = len(line)
	}
	n := 0
	for _, r := range line[:byteOffset] {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}
