// Package store defines the persistence boundary of the analytics core.
//
// The core reads one import's graph as a consistent snapshot and writes back
// derived attributes in a single atomic batch. Everything else about
// persistence (ingestion, schema, retries) belongs to the collaborators on
// the other side of this interface.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/depscope/depscope/pkg/model"
)

// ErrNotFound is returned when an import or node does not exist.
var ErrNotFound = errors.New("not found")

// Snapshot is a consistent read of one import's graph. The slices are owned
// by the caller; mutating them never affects the store.
type Snapshot struct {
	Import model.Import
	Nodes  []model.Node
	Edges  []model.Edge
}

// DerivedBatch carries the derived attributes of one pipeline run. A nil map
// leaves the corresponding fields untouched, so a stale-only contribution
// pass can write without clobbering other imports' state.
type DerivedBatch struct {
	ComputedAt time.Time

	// ClosureSizes maps node hash to closure size.
	ClosureSizes map[string]int

	// Contributions maps top-level node hash to its contribution triple.
	// Nodes present here also get their ContributionComputedAt stamped
	// with ComputedAt.
	Contributions map[string]model.Contribution

	// RedundantEdges is the full set of redundant edge IDs for the import.
	// When non-nil, every edge's flag is set to its membership here.
	RedundantEdges map[model.EdgeID]bool
}

// Store is the persistence surface the analytics core depends on.
// Implementations must make LoadImport a snapshot read and WriteDerived
// all-or-nothing: readers never observe a partially applied batch.
// I/O failures are propagated to the caller for retry, never retried here.
type Store interface {
	// Imports lists all known imports.
	Imports(ctx context.Context) ([]model.Import, error)

	// LoadImport reads one import's graph. Returns ErrNotFound if the
	// import does not exist.
	LoadImport(ctx context.Context, id model.ImportID) (*Snapshot, error)

	// WriteDerived applies a batch of derived attributes to one import.
	// Returns ErrNotFound if the import does not exist.
	WriteDerived(ctx context.Context, id model.ImportID, batch *DerivedBatch) error
}
