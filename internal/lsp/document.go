package lsp

import (
	"sync"
	"time"

	"github.com/dshills/datacard/internal/datacard"
	"github.com/dshills/datacard/internal/engine/buffer"
)

// DocumentManager tracks the documents a client has opened. Each document
// is held in a revisioned buffer; analyses are cached per revision.
type DocumentManager struct {
	mu        sync.RWMutex
	documents map[DocumentURI]*ManagedDocument
	cache     *datacard.Cache
}

// ManagedDocument is an open document.
type ManagedDocument struct {
	URI        DocumentURI
	LanguageID string
	Version    int
	Buffer     *buffer.Buffer

	OpenedAt   time.Time
	ModifiedAt time.Time
}

// NewDocumentManager creates a document manager whose analysis cache holds
// up to cacheSize entries.
func NewDocumentManager(cacheSize int) *DocumentManager {
	return &DocumentManager{
		documents: make(map[DocumentURI]*ManagedDocument),
		cache:     datacard.NewCache(cacheSize),
	}
}

// Open registers a document. Re-opening replaces the previous content.
func (dm *DocumentManager) Open(item TextDocumentItem) *ManagedDocument {
	now := time.Now()
	doc := &ManagedDocument{
		URI:        item.URI,
		LanguageID: item.LanguageID,
		Version:    item.Version,
		Buffer:     buffer.NewBufferFromString(item.Text, buffer.WithDetectedLineEnding(item.Text)),
		OpenedAt:   now,
		ModifiedAt: now,
	}

	dm.mu.Lock()
	dm.documents[item.URI] = doc
	dm.mu.Unlock()
	dm.cache.Invalidate(string(item.URI))
	return doc
}

// Change applies content changes in order.
func (dm *DocumentManager) Change(uri DocumentURI, version int, changes []TextDocumentContentChangeEvent) (*ManagedDocument, error) {
	doc, err := dm.Get(uri)
	if err != nil {
		return nil, err
	}

	// Offsets in applyChange are computed against "\n"-joined text.
	text := datacard.JoinLines(doc.Buffer.Snapshot().Lines())
	for _, c := range changes {
		text = applyChange(text, c)
	}
	doc.Buffer.SetText(text)

	dm.mu.Lock()
	doc.Version = version
	doc.ModifiedAt = time.Now()
	dm.mu.Unlock()
	return doc, nil
}

// Close forgets a document.
func (dm *DocumentManager) Close(uri DocumentURI) error {
	dm.mu.Lock()
	_, ok := dm.documents[uri]
	delete(dm.documents, uri)
	dm.mu.Unlock()

	if !ok {
		return ErrDocumentNotOpen
	}
	dm.cache.Invalidate(string(uri))
	return nil
}

// Get returns an open document.
func (dm *DocumentManager) Get(uri DocumentURI) (*ManagedDocument, error) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	doc, ok := dm.documents[uri]
	if !ok {
		return nil, ErrDocumentNotOpen
	}
	return doc, nil
}

// Count returns the number of open documents.
func (dm *DocumentManager) Count() int {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return len(dm.documents)
}

// Snapshot returns a snapshot of the document together with its analysis.
func (dm *DocumentManager) Snapshot(uri DocumentURI) (*buffer.Snapshot, *datacard.Analysis, error) {
	doc, err := dm.Get(uri)
	if err != nil {
		return nil, nil, err
	}
	snap := doc.Buffer.Snapshot()
	return snap, dm.cache.Get(string(uri), uint64(snap.RevisionID()), snap), nil
}
