package checker

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tack-ls/tack/protocol"
)

// ParseLine converts one checker output line into a Record. Only
// compiler-message records with at least one span qualify; the primary span
// wins, falling back to the first. Reports false for empty lines, invalid
// JSON, and build-step metadata.
func ParseLine(line string) (Record, bool) {
	line = strings.TrimSpace(line)
	if line == "" || !gjson.Valid(line) {
		return Record{}, false
	}

	v := gjson.Parse(line)
	if v.Get("reason").String() != "compiler-message" {
		return Record{}, false
	}

	msg := v.Get("message")
	if !msg.Exists() {
		return Record{}, false
	}

	spans := msg.Get("spans").Array()
	if len(spans) == 0 {
		return Record{}, false
	}
	span := spans[0]
	for _, s := range spans {
		if s.Get("is_primary").Bool() {
			span = s
			break
		}
	}

	file := span.Get("file_name").String()
	if file == "" {
		return Record{}, false
	}

	text := msg.Get("message").String()
	if text == "" {
		text = "checker error"
	}

	return Record{
		File: file,
		Range: protocol.Range{
			Start: spanPosition(span, "line_start", "column_start"),
			End:   spanPosition(span, "line_end", "column_end"),
		},
		Severity: mapSeverity(msg.Get("level").String()),
		Message:  text,
		Code:     msg.Get("code.code").String(),
	}, true
}

// spanPosition converts the checker's 1-based line/column to a 0-based
// protocol position, saturating at zero.
func spanPosition(span gjson.Result, lineKey, colKey string) protocol.Position {
	line := span.Get(lineKey).Int()
	col := span.Get(colKey).Int()
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	return protocol.Position{Line: uint32(line - 1), Character: uint32(col - 1)}
}

// mapSeverity maps cargo levels onto the four-level protocol enum;
// unrecognized levels default to info.
func mapSeverity(level string) protocol.DiagnosticSeverity {
	switch level {
	case "error":
		return protocol.SeverityError
	case "warning":
		return protocol.SeverityWarning
	case "note":
		return protocol.SeverityHint
	case "help":
		return protocol.SeverityInformation
	default:
		return protocol.SeverityInformation
	}
}
