// Package inlay computes inlay hints from open-buffer text: type hints for
// let bindings whose initializer names a known type or function, and
// argument-name hints at call sites of functions defined in open buffers.
// Like hover, it is a textual heuristic: single-line signatures only, no
// type inference, and no filesystem walk.
package inlay

import (
	"strings"

	"github.com/tack-ls/tack/hover"
)

// Signature is one parsed function signature: parameter names (empty string
// for patterns that are not plain identifiers) and the return type, if any.
type Signature struct {
	Params []string
	Return string
}

// Index aggregates definitions visible across the open buffers.
type Index struct {
	fns   map[string][]Signature
	types map[string]bool
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		fns:   make(map[string][]Signature),
		types: make(map[string]bool),
	}
}

// AddSource indexes one buffer's text: fn signatures that fit on one line,
// and struct/enum names usable as constructor-path type hints.
func (ix *Index) AddSource(text string) {
	for _, def := range hover.ScanDefinitions(text) {
		if def.Kind == hover.Structure || def.Kind == hover.Enumeration {
			ix.types[def.Name] = true
		}
		if def.Kind == hover.Function {
			if sig, ok := parseSignature(def.Signature, def.Name); ok {
				ix.fns[def.Name] = append(ix.fns[def.Name], sig)
			}
		}
	}
}

// signatureFor returns the signature matching the call arity, falling back
// to the first recorded one.
func (ix *Index) signatureFor(name string, arity int) (Signature, bool) {
	sigs := ix.fns[name]
	if len(sigs) == 0 {
		return Signature{}, false
	}
	for _, sig := range sigs {
		if len(sig.Params) == arity {
			return sig, true
		}
	}
	return sigs[0], true
}

// parseSignature extracts params and return type from a trimmed definition
// line like "pub fn frob(count: usize, label: &str) -> Frob {".
func parseSignature(line, name string) (Signature, bool) {
	idx := strings.Index(line, name)
	if idx < 0 {
		return Signature{}, false
	}
	rest := line[idx+len(name):]

	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return Signature{}, false
	}
	end := matchParen(rest, open)
	if end < 0 {
		return Signature{}, false
	}

	var params []string
	for _, part := range splitTopLevel(rest[open+1 : end]) {
		params = append(params, paramName(part))
	}

	ret := ""
	after := rest[end+1:]
	if arrow := strings.Index(after, "->"); arrow >= 0 {
		ret = after[arrow+2:]
		if brace := strings.IndexByte(ret, '{'); brace >= 0 {
			ret = ret[:brace]
		}
		if where := strings.Index(ret, "where"); where >= 0 {
			ret = ret[:where]
		}
		ret = strings.TrimSpace(ret)
	}

	return Signature{Params: params, Return: ret}, true
}

// paramName extracts the binding name from one parameter declaration.
// Receivers, wildcards, and destructuring patterns yield "".
func paramName(decl string) string {
	decl = strings.TrimSpace(decl)
	colon := strings.IndexByte(decl, ':')
	if colon < 0 {
		return "" // self, _, or malformed
	}
	pattern := strings.TrimSpace(decl[:colon])
	pattern = strings.TrimPrefix(pattern, "mut ")
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || pattern == "_" || !isIdent(pattern) {
		return ""
	}
	return pattern
}

// matchParen returns the index of the ')' balancing the '(' at open, or -1
// if it does not close on this line.
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits on commas not nested inside (), <>, or [].
func splitTopLevel(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '<', '[':
			depth++
		case ')', '>', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func isIdent(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		ok := b == '_' ||
			(b >= 'a' && b <= 'z') ||
			(b >= 'A' && b <= 'Z') ||
			(i > 0 && b >= '0' && b <= '9')
		if !ok {
			return false
		}
	}
	return s != ""
}
