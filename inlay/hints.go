package inlay

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tack-ls/tack/protocol"
)

// Compute scans text for hint sites within rng and returns the hints sorted
// by position. Two families are produced: ": Type" after let bindings with
// no explicit annotation, and "name:" before call arguments of indexed
// functions.
func Compute(text string, ix *Index, rng protocol.Range) []protocol.InlayHint {
	var hints []protocol.InlayHint

	line := uint32(0)
	for len(text) > 0 {
		raw := text
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			raw = text[:nl]
			text = text[nl+1:]
		} else {
			text = ""
		}

		if line >= rng.Start.Line && line <= rng.End.Line && !isCommentLine(raw) {
			if h, ok := letTypeHint(raw, line, ix); ok {
				hints = append(hints, h)
			}
			hints = append(hints, paramHints(raw, line, ix)...)
		}
		line++
	}

	hints = filterRange(hints, rng)
	sort.Slice(hints, func(i, j int) bool {
		a, b := hints[i].Position, hints[j].Position
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Character < b.Character
	})
	return hints
}

// letTypeHint produces a ": Type" hint for "let x = ..." when the
// initializer is a constructor path naming a known type, or a call to a
// function with a known return type. Bindings with an explicit annotation
// are left alone.
func letTypeHint(raw string, line uint32, ix *Index) (protocol.InlayHint, bool) {
	trimmed := strings.TrimLeft(raw, " \t")
	if !strings.HasPrefix(trimmed, "let ") {
		return protocol.InlayHint{}, false
	}
	indent := len(raw) - len(trimmed)

	rest := trimmed[len("let "):]
	nameStart := indent + len("let ")
	if strings.HasPrefix(rest, "mut ") {
		rest = rest[len("mut "):]
		nameStart += len("mut ")
	}

	name := takeIdent(rest)
	if name == "" {
		return protocol.InlayHint{}, false
	}
	after := strings.TrimLeft(rest[len(name):], " \t")
	if !strings.HasPrefix(after, "=") || strings.HasPrefix(after, "==") {
		return protocol.InlayHint{}, false // annotated, destructured, or not a binding
	}

	rhs := strings.TrimLeft(after[1:], " \t")
	ty, ok := inferType(rhs, ix)
	if !ok {
		return protocol.InlayHint{}, false
	}

	return protocol.InlayHint{
		Position: protocol.Position{
			Line:      line,
			Character: utf16Col(raw, nameStart+len(name)),
		},
		Label: ": " + ty,
		Kind:  protocol.InlayHintType,
	}, true
}

// inferType resolves the initializer expression against the index:
// "Foo::..." where Foo is a known struct or enum, or "bar(...)" where bar
// has a recorded return type.
func inferType(rhs string, ix *Index) (string, bool) {
	head := takeIdent(rhs)
	if head == "" {
		return "", false
	}
	tail := rhs[len(head):]

	if strings.HasPrefix(tail, "::") && ix.types[head] {
		return head, true
	}
	if strings.HasPrefix(tail, "(") {
		end := matchParen(tail, 0)
		if end < 0 {
			return "", false
		}
		arity := len(splitTopLevel(tail[1:end]))
		if sig, ok := ix.signatureFor(head, arity); ok && sig.Return != "" {
			return sig.Return, true
		}
	}
	return "", false
}

// paramHints produces "name:" hints before the arguments of calls to
// indexed functions. Arguments that already spell the parameter name are
// skipped, as are parameters whose declaration was not a plain identifier.
func paramHints(raw string, line uint32, ix *Index) []protocol.InlayHint {
	var hints []protocol.InlayHint

	for i := 0; i < len(raw); {
		if !isIdentByte(raw[i]) {
			i++
			continue
		}
		start := i
		for i < len(raw) && isIdentByte(raw[i]) {
			i++
		}
		name := raw[start:i]
		if start > 0 && isIdentByte(raw[start-1]) {
			continue
		}
		if i >= len(raw) || raw[i] != '(' {
			continue
		}
		if isDefinitionSite(raw, start) {
			continue
		}

		end := matchParen(raw, i)
		if end < 0 {
			continue
		}
		args := splitTopLevel(raw[i+1 : end])
		sig, ok := ix.signatureFor(name, len(args))
		if !ok || len(args) == 0 {
			continue
		}

		off := i + 1
		for argIdx, arg := range args {
			argStart := off + (len(arg) - len(strings.TrimLeft(arg, " \t")))
			off += len(arg) + 1

			if argIdx >= len(sig.Params) {
				break
			}
			param := sig.Params[argIdx]
			if param == "" || strings.TrimSpace(arg) == param {
				continue
			}

			hints = append(hints, protocol.InlayHint{
				Position: protocol.Position{
					Line:      line,
					Character: utf16Col(raw, argStart),
				},
				Label:        param + ":",
				Kind:         protocol.InlayHintParameter,
				PaddingRight: true,
			})
		}
	}
	return hints
}

// isDefinitionSite reports whether the identifier at off is being declared
// rather than called, i.e. immediately preceded by "fn ".
func isDefinitionSite(raw string, off int) bool {
	before := strings.TrimRight(raw[:off], " \t")
	return strings.HasSuffix(before, "fn")
}

func isCommentLine(raw string) bool {
	trimmed := strings.TrimLeft(raw, " \t")
	return strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") ||
		strings.HasPrefix(trimmed, "*")
}

func filterRange(hints []protocol.InlayHint, rng protocol.Range) []protocol.InlayHint {
	kept := hints[:0]
	for _, h := range hints {
		if positionBefore(h.Position, rng.Start) || positionBefore(rng.End, h.Position) {
			continue
		}
		kept = append(kept, h)
	}
	return kept
}

func positionBefore(a, b protocol.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Character < b.Character
}

func takeIdent(s string) string {
	i := 0
	for i < len(s) && isIdentByte(s[i]) {
		i++
	}
	if i == 0 || (s[0] >= '0' && s[0] <= '9') {
		return ""
	}
	return s[:i]
}

func isIdentByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// utf16Col converts a byte offset within a line to a UTF-16 column.
func utf16Col(line string, byteOff int) uint32 {
	if byteOff > len(line) {
		byteOff = len(line)
	}
	n := uint32(0)
	for _, r := range line[:byteOff] {
		if utf8.RuneLen(r) == 4 {
			n += 2
		} else {
			n++
		}
	}
	return n
}
