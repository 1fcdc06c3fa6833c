package document

import (
	"sync"

	"github.com/tack-ls/tack/protocol"
)

// Store is a thread-safe store of open text documents. Writes come from the
// dispatch loop (strictly serialized); reads may come from the diagnostics
// path concurrently and always observe a consistent snapshot.
type Store struct {
	mu   sync.RWMutex
	docs map[protocol.DocumentURI]*Document
}

// OpenDocument is one entry of a store snapshot: the URI/version pair at a
// single instant, used by the diagnostics coordinator to correlate checker
// output with what is currently open.
type OpenDocument struct {
	URI     protocol.DocumentURI
	Version int32
}

// NewStore creates an empty document store.
func NewStore() *Store {
	return &Store{docs: make(map[protocol.DocumentURI]*Document)}
}

// Open inserts a document. Re-opening an already-open URI is treated as a
// version reset: prior state is overwritten and reset reports true so the
// caller can log it.
func (s *Store) Open(item protocol.TextDocumentItem) (reset bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, reset = s.docs[item.URI]
	s.docs[item.URI] = New(item)
	return reset
}

// Change applies a didChange batch. The new version must be strictly greater
// than the stored one (ErrStaleVersion otherwise, document untouched); an
// absent URI is ErrUnknownDocument and no document is created. On success the
// returned snapshot carries the new text and version.
func (s *Store) Change(uri protocol.DocumentURI, version int32, changes []protocol.TextDocumentContentChangeEvent) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[uri]
	if !ok {
		return nil, ErrUnknownDocument
	}
	if version <= doc.version {
		return nil, ErrStaleVersion
	}

	next := doc.withEdits(version, ApplyEdits(doc.text, changes))
	s.docs[uri] = next
	return next, nil
}

// Close removes a document. Reports whether it was open.
func (s *Store) Close(uri protocol.DocumentURI) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[uri]
	delete(s.docs, uri)
	return ok
}

// Get returns the current snapshot for the URI, or nil if not open.
func (s *Store) Get(uri protocol.DocumentURI) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}

// All returns snapshots of every open document, in no particular order.
func (s *Store) All() []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d)
	}
	return out
}

// Snapshot returns the URI/version set at a single instant.
func (s *Store) Snapshot() []OpenDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]OpenDocument, 0, len(s.docs))
	for uri, d := range s.docs {
		out = append(out, OpenDocument{URI: uri, Version: d.version})
	}
	return out
}

// Len returns the number of open documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
