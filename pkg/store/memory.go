package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/depscope/depscope/pkg/model"
)

// Memory is an in-memory Store used by tests and the CLI. Reads copy the
// import's rows under the lock, so a Snapshot never observes a partially
// applied WriteDerived.
type Memory struct {
	mu      sync.RWMutex
	imports map[model.ImportID]*importRows
	byName  map[string]model.ImportID
	now     func() time.Time
}

type importRows struct {
	meta  model.Import
	nodes []model.Node
	index map[string]int // hash -> position in nodes
	edges []model.Edge
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		imports: make(map[model.ImportID]*importRows),
		byName:  make(map[string]model.ImportID),
		now:     time.Now,
	}
}

// PutImport ingests a new graph under the given name and returns its ID.
// If an import with the same name already exists, its graph is replaced in
// place: the ID and CreatedAt are kept and ModifiedAt advances, which marks
// previously computed contributions as stale. Derived fields on the incoming
// rows are reset; they belong to the pipeline, not to ingestion.
func (m *Memory) PutImport(name string, nodes []model.Node, edges []model.Edge) (model.ImportID, error) {
	// Copy the rows so the caller's slices never alias store state.
	nodes = append([]model.Node(nil), nodes...)
	edges = append([]model.Edge(nil), edges...)

	index := make(map[string]int, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		if err := n.Validate(); err != nil {
			return "", err
		}
		if _, dup := index[n.Hash]; dup {
			return "", fmt.Errorf("duplicate node hash %s", n.Hash)
		}
		index[n.Hash] = i
		n.ClosureSize = -1
		n.Contribution = nil
		n.ContributionComputedAt = nil
	}
	for i := range edges {
		e := &edges[i]
		if err := e.Validate(); err != nil {
			return "", err
		}
		if _, ok := index[e.Source]; !ok {
			return "", fmt.Errorf("edge %s: unknown source node", e.ID())
		}
		if _, ok := index[e.Target]; !ok {
			return "", fmt.Errorf("edge %s: unknown target node", e.ID())
		}
		e.Redundant = false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	id, exists := m.byName[name]
	meta := model.Import{ID: id, Name: name, CreatedAt: now, ModifiedAt: now}
	if exists {
		meta.CreatedAt = m.imports[id].meta.CreatedAt
	} else {
		id = model.ImportID(uuid.NewString())
		meta.ID = id
		m.byName[name] = id
	}
	m.imports[id] = &importRows{meta: meta, nodes: nodes, index: index, edges: edges}
	return id, nil
}

// DeleteImport removes an import and, cascading, all its rows.
func (m *Memory) DeleteImport(id model.ImportID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.imports[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.byName, rows.meta.Name)
	delete(m.imports, id)
	return nil
}

// Imports lists all known imports.
func (m *Memory) Imports(ctx context.Context) ([]model.Import, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Import, 0, len(m.imports))
	for _, rows := range m.imports {
		out = append(out, rows.meta)
	}
	return out, nil
}

// LoadImport returns a deep copy of one import's rows.
func (m *Memory) LoadImport(ctx context.Context, id model.ImportID) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows, ok := m.imports[id]
	if !ok {
		return nil, fmt.Errorf("import %s: %w", id, ErrNotFound)
	}

	snap := &Snapshot{
		Import: rows.meta,
		Nodes:  make([]model.Node, len(rows.nodes)),
		Edges:  make([]model.Edge, len(rows.edges)),
	}
	copy(snap.Edges, rows.edges)
	for i, n := range rows.nodes {
		if n.Contribution != nil {
			c := *n.Contribution
			n.Contribution = &c
		}
		if n.ContributionComputedAt != nil {
			t := *n.ContributionComputedAt
			n.ContributionComputedAt = &t
		}
		snap.Nodes[i] = n
	}
	return snap, nil
}

// WriteDerived applies the batch under the write lock, so concurrent
// LoadImport calls see either none or all of it.
func (m *Memory) WriteDerived(ctx context.Context, id model.ImportID, batch *DerivedBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.imports[id]
	if !ok {
		return fmt.Errorf("import %s: %w", id, ErrNotFound)
	}

	for hash := range batch.ClosureSizes {
		if _, ok := rows.index[hash]; !ok {
			return fmt.Errorf("closure size for node %s: %w", hash, ErrNotFound)
		}
	}
	for hash, c := range batch.Contributions {
		i, ok := rows.index[hash]
		if !ok {
			return fmt.Errorf("contribution for node %s: %w", hash, ErrNotFound)
		}
		if !rows.nodes[i].TopLevel {
			return fmt.Errorf("contribution for non-top-level node %s", hash)
		}
		if err := c.Validate(); err != nil {
			return err
		}
	}

	for hash, size := range batch.ClosureSizes {
		rows.nodes[rows.index[hash]].ClosureSize = size
	}
	for hash, c := range batch.Contributions {
		n := &rows.nodes[rows.index[hash]]
		contribution := c
		stamp := batch.ComputedAt
		n.Contribution = &contribution
		n.ContributionComputedAt = &stamp
	}
	if batch.RedundantEdges != nil {
		for i := range rows.edges {
			rows.edges[i].Redundant = batch.RedundantEdges[rows.edges[i].ID()]
		}
	}
	return nil
}

var _ Store = (*Memory)(nil)
