// Package memory is an in-memory MappingWriter used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"pennyflow/internal/mappings"
	ports "pennyflow/internal/sheets"
)

type Writer struct {
	mu      sync.Mutex
	byOwner map[string]mappings.Export
}

var _ ports.MappingWriter = (*Writer)(nil)

func NewWriter() *Writer {
	return &Writer{byOwner: make(map[string]mappings.Export)}
}

// WriteMappings stores the latest export per owner, replacing any previous
// one.
func (w *Writer) WriteMappings(_ context.Context, ownerID string, export mappings.Export) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.byOwner[ownerID] = export
	return nil
}

// Last returns the most recently written export for an owner.
func (w *Writer) Last(ownerID string) (mappings.Export, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	export, ok := w.byOwner[ownerID]
	return export, ok
}
