// Package sheets defines the ports for publishing an owner's mapping export
// to a spreadsheet.
package sheets

import (
	"context"

	"pennyflow/internal/mappings"
)

// MappingWriter replaces the mapping rows for one owner with the given export
// document.
type MappingWriter interface {
	WriteMappings(ctx context.Context, ownerID string, export mappings.Export) error
}
