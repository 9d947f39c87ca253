// Package graph materializes one import's dependency graph in memory and
// provides the topological order the analysis pipeline runs in.
//
// Nodes are indexed by dense ordinals (0..V-1) which double as gonum node
// IDs. The dense index is what makes the bitset-based closure and reacher
// sets in pkg/analysis compact.
package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/depscope/depscope/pkg/model"
	"github.com/depscope/depscope/pkg/store"
)

var (
	// ErrEmptyGraph is returned by Load when the import has zero nodes.
	// Callers may treat this as a no-op rather than a failure.
	ErrEmptyGraph = errors.New("import has no nodes")

	// ErrTooLarge is returned by Load when the import exceeds the
	// configured node bound. Closure memory is O(V²) bits in the worst
	// case, so the bound keeps the engine tractable. Reported before any
	// adjacency is built.
	ErrTooLarge = errors.New("import exceeds configured node limit")
)

// DepGraph is the in-memory view of one import: a gonum directed graph over
// dense ordinals, the node and edge rows, and the ordered top-level node
// list. It is immutable after Load, so queries and pipeline stages can read
// it concurrently.
type DepGraph struct {
	importID   model.ImportID
	importName string
	modifiedAt time.Time

	g     *simple.DirectedGraph
	nodes []*model.Node    // ordinal -> node
	ids   map[string]int64 // hash -> ordinal
	edges []*model.Edge
	// edge lookup by ordinal pair
	edgeAt map[[2]int64]*model.Edge

	topLevel []int64 // ordinals of top-level nodes, in row order
}

// Load reads the import from the store and builds its in-memory graph.
// maxNodes <= 0 disables the size bound. Fails with store.ErrNotFound,
// ErrEmptyGraph, or ErrTooLarge; the size check runs before any adjacency
// is built.
func Load(ctx context.Context, st store.Store, id model.ImportID, maxNodes int) (*DepGraph, error) {
	snap, err := st.LoadImport(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(snap.Nodes) == 0 {
		return nil, fmt.Errorf("import %s: %w", id, ErrEmptyGraph)
	}
	if maxNodes > 0 && len(snap.Nodes) > maxNodes {
		return nil, fmt.Errorf("import %s has %d nodes, limit %d: %w",
			id, len(snap.Nodes), maxNodes, ErrTooLarge)
	}

	dg := &DepGraph{
		importID:   snap.Import.ID,
		importName: snap.Import.Name,
		modifiedAt: snap.Import.ModifiedAt,
		g:          simple.NewDirectedGraph(),
		nodes:      make([]*model.Node, len(snap.Nodes)),
		ids:        make(map[string]int64, len(snap.Nodes)),
		edges:      make([]*model.Edge, len(snap.Edges)),
		edgeAt:     make(map[[2]int64]*model.Edge, len(snap.Edges)),
	}

	for i := range snap.Nodes {
		n := &snap.Nodes[i]
		if _, dup := dg.ids[n.Hash]; dup {
			return nil, fmt.Errorf("import %s: duplicate node hash %s", id, n.Hash)
		}
		ord := int64(i)
		dg.ids[n.Hash] = ord
		dg.nodes[i] = n
		dg.g.AddNode(simple.Node(ord))
		if n.TopLevel {
			dg.topLevel = append(dg.topLevel, ord)
		}
	}

	for i := range snap.Edges {
		e := &snap.Edges[i]
		src, ok := dg.ids[e.Source]
		if !ok {
			return nil, fmt.Errorf("import %s: edge %s references unknown source", id, e.ID())
		}
		dst, ok := dg.ids[e.Target]
		if !ok {
			return nil, fmt.Errorf("import %s: edge %s references unknown target", id, e.ID())
		}
		if src == dst {
			// gonum's SetEdge panics on self edges, so reject them here.
			return nil, &CycleError{Import: id, Nodes: []string{e.Source}}
		}
		dg.edges[i] = e
		key := [2]int64{src, dst}
		if _, dup := dg.edgeAt[key]; dup {
			return nil, fmt.Errorf("import %s: duplicate edge %s", id, e.ID())
		}
		dg.edgeAt[key] = e
		dg.g.SetEdge(dg.g.NewEdge(simple.Node(src), simple.Node(dst)))
	}

	return dg, nil
}

// ImportID returns the import this graph belongs to.
func (dg *DepGraph) ImportID() model.ImportID { return dg.importID }

// ImportName returns the import's display name.
func (dg *DepGraph) ImportName() string { return dg.importName }

// ModifiedAt returns when the import's graph last changed. Contribution
// stamps older than this are stale.
func (dg *DepGraph) ModifiedAt() time.Time { return dg.modifiedAt }

// NodeCount returns the number of nodes.
func (dg *DepGraph) NodeCount() int { return len(dg.nodes) }

// EdgeCount returns the number of edges.
func (dg *DepGraph) EdgeCount() int { return len(dg.edges) }

// NodeAt returns the node at the given ordinal.
func (dg *DepGraph) NodeAt(ord int64) *model.Node { return dg.nodes[ord] }

// Ordinal returns the dense ordinal for a node hash.
func (dg *DepGraph) Ordinal(hash string) (int64, bool) {
	ord, ok := dg.ids[hash]
	return ord, ok
}

// Edges returns all edge rows. The slice must not be modified.
func (dg *DepGraph) Edges() []*model.Edge { return dg.edges }

// EdgeBetween returns the edge row between two ordinals, if any.
func (dg *DepGraph) EdgeBetween(src, dst int64) (*model.Edge, bool) {
	e, ok := dg.edgeAt[[2]int64{src, dst}]
	return e, ok
}

// TopLevel returns the ordinals of top-level nodes in row order.
// The slice must not be modified.
func (dg *DepGraph) TopLevel() []int64 { return dg.topLevel }

// Children calls fn for each direct dependency (forward edge target) of ord.
func (dg *DepGraph) Children(ord int64, fn func(child int64)) {
	it := dg.g.From(ord)
	for it.Next() {
		fn(it.Node().ID())
	}
}

// Parents calls fn for each direct dependent (reverse edge source) of ord.
func (dg *DepGraph) Parents(ord int64, fn func(parent int64)) {
	it := dg.g.To(ord)
	for it.Next() {
		fn(it.Node().ID())
	}
}

// OutDegree returns the number of direct dependencies of ord.
func (dg *DepGraph) OutDegree(ord int64) int {
	return dg.g.From(ord).Len()
}

// Directed exposes the underlying gonum graph for traversal algorithms.
func (dg *DepGraph) Directed() graph.Directed { return dg.g }
