// Package document provides the in-memory store of open text documents:
// the only text tack ever holds. Documents are created by didOpen, mutated
// by didChange, and removed by didClose; versions are client-assigned and
// strictly increasing per URI.
package document

import (
	"errors"

	"github.com/tack-ls/tack/protocol"
)

// Sentinel errors for document-state misuse. These never crash the session;
// the dispatcher reports them on requests and logs them on notifications.
var (
	ErrStaleVersion    = errors.New("stale document version")
	ErrUnknownDocument = errors.New("unknown document")
)

// Document is an immutable snapshot of one open file. The store replaces the
// whole value on every change, so holders of a *Document can read text and
// version without locking and without observing torn updates.
type Document struct {
	uri        protocol.DocumentURI
	languageID string
	version    int32
	text       string
}

// New creates a Document from an LSP TextDocumentItem.
func New(item protocol.TextDocumentItem) *Document {
	return &Document{
		uri:        item.URI,
		languageID: item.LanguageID,
		version:    item.Version,
		text:       item.Text,
	}
}

// URI returns the document's URI.
func (d *Document) URI() protocol.DocumentURI { return d.uri }

// LanguageID returns the LSP language identifier (e.g. "rust").
func (d *Document) LanguageID() string { return d.languageID }

// Version returns the client-assigned version number.
func (d *Document) Version() int32 { return d.version }

// Text returns the full text content.
func (d *Document) Text() string { return d.text }

// OffsetAt converts an LSP position to a byte offset in the document text.
func (d *Document) OffsetAt(pos protocol.Position) int {
	return OffsetAt(d.text, pos)
}

// PositionAt converts a byte offset to an LSP position.
func (d *Document) PositionAt(offset int) protocol.Position {
	return PositionAt(d.text, offset)
}

// withEdits returns a new snapshot carrying the edited text and version.
func (d *Document) withEdits(version int32, text string) *Document {
	return &Document{
		uri:        d.uri,
		languageID: d.languageID,
		version:    version,
		text:       text,
	}
}
