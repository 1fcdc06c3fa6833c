package document

import (
	"strings"
	"unicode/utf8"

	"github.com/tack-ls/tack/protocol"
)

// OffsetAt converts an LSP position (zero-based line, UTF-16 character
// offset) to a byte offset. Positions past the end of a line clamp to the
// line end; lines past the end of the text clamp to len(text).
func OffsetAt(text string, pos protocol.Position) int {
	lineStart := 0
	for l := uint32(0); l < pos.Line; l++ {
		nl := strings.IndexByte(text[lineStart:], '\n')
		if nl < 0 {
			return len(text)
		}
		lineStart += nl + 1
	}

	line := text[lineStart:]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	return lineStart + utf16ToByteOffset(line, int(pos.Character))
}

// PositionAt converts a byte offset to an LSP position.
func PositionAt(text string, offset int) protocol.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}

	before := text[:offset]
	line := strings.Count(before, "\n")
	lineStart := strings.LastIndexByte(before, '\n') + 1

	return protocol.Position{
		Line:      uint32(line),
		Character: uint32(utf16Len(before[lineStart:])),
	}
}

// LineAt returns the text of the given zero-based line, without the trailing
// newline. Lines past the end of the text are empty.
func LineAt(text string, line uint32) string {
	start := 0
	for l := uint32(0); l < line; l++ {
		nl := strings.IndexByte(text[start:], '\n')
		if nl < 0 {
			return ""
		}
		start += nl + 1
	}
	if nl := strings.IndexByte(text[start:], '\n'); nl >= 0 {
		return text[start : start+nl]
	}
	return text[start:]
}

// utf16RuneLen mirrors utf16.RuneLen (added in Go 1.23): the number of
// 16-bit code units in the UTF-16 encoding of r, or -1 if r cannot be
// encoded.
func utf16RuneLen(r rune) int {
	switch {
	case 0 <= r && r < 0xd800, 0xe000 <= r && r < 0x10000:
		return 1
	case 0x10000 <= r && r <= 0x10ffff:
		return 2
	default:
		return -1
	}
}

// utf16ToByteOffset converts a UTF-16 code-unit offset within a line to a
// byte offset, clamping at the line end.
func utf16ToByteOffset(line string, units int) int {
	u, b := 0, 0
	for b < len(line) && u < units {
		r, size := utf8.DecodeRuneInString(line[b:])
		if r == utf8.RuneError && size == 1 {
			u++
			b++
			continue
		}
		u += utf16RuneLen(r)
		b += size
	}
	return b
}

// utf16Len returns the UTF-16 code-unit length of s.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
