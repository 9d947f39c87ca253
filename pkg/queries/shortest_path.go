package queries

import (
	"errors"
	"fmt"

	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/depscope/depscope/pkg/graph"
	"github.com/depscope/depscope/pkg/model"
	"github.com/depscope/depscope/pkg/store"
)

var (
	// ErrCrossImport is returned when a query references a different
	// import than the graph it runs against. Rejected before any
	// traversal.
	ErrCrossImport = errors.New("query spans multiple imports")

	// ErrNoPath is the normal shortest-path result when the target is not
	// reachable from the source. Callers should not treat it as a failure.
	ErrNoPath = errors.New("no dependency path exists")
)

// ShortestPath returns the shortest directed dependency path from src to
// dst as an ordered edge list, following forward edges only (all edges
// unweighted). Both references must name nodes of g's import:
// a mismatched import fails with ErrCrossImport, an unknown hash with
// store.ErrNotFound. An unreachable target yields ErrNoPath.
func ShortestPath(g *graph.DepGraph, src, dst model.NodeRef) ([]model.EdgeID, error) {
	if src.Import != g.ImportID() || dst.Import != g.ImportID() {
		return nil, fmt.Errorf("graph belongs to import %s: %w", g.ImportID(), ErrCrossImport)
	}
	srcOrd, ok := g.Ordinal(src.Hash)
	if !ok {
		return nil, fmt.Errorf("node %s: %w", src.Hash, store.ErrNotFound)
	}
	dstOrd, ok := g.Ordinal(dst.Hash)
	if !ok {
		return nil, fmt.Errorf("node %s: %w", dst.Hash, store.ErrNotFound)
	}
	if srcOrd == dstOrd {
		return []model.EdgeID{}, nil
	}

	// BFS over forward adjacency, recording the tree edge that first
	// reached each node.
	parent := make(map[int64]int64, g.NodeCount())
	bfs := traverse.BreadthFirst{
		Traverse: func(e gonumgraph.Edge) bool {
			if _, seen := parent[e.To().ID()]; !seen {
				parent[e.To().ID()] = e.From().ID()
			}
			return true
		},
	}
	found := bfs.Walk(g.Directed(), simpleNode(srcOrd), func(n gonumgraph.Node, _ int) bool {
		return n.ID() == dstOrd
	})
	if found == nil {
		return nil, fmt.Errorf("%s -> %s: %w", src.Hash, dst.Hash, ErrNoPath)
	}

	// Walk the parent chain back from dst and reverse into edge order.
	var reversed []model.EdgeID
	for at := dstOrd; at != srcOrd; {
		from, ok := parent[at]
		if !ok {
			return nil, fmt.Errorf("%s -> %s: %w", src.Hash, dst.Hash, ErrNoPath)
		}
		reversed = append(reversed, model.EdgeID{
			Source: g.NodeAt(from).Hash,
			Target: g.NodeAt(at).Hash,
		})
		at = from
	}

	path := make([]model.EdgeID, len(reversed))
	for i, e := range reversed {
		path[len(reversed)-1-i] = e
	}
	return path, nil
}

// simpleNode adapts an ordinal to gonum's node interface.
type simpleNode int64

func (n simpleNode) ID() int64 { return int64(n) }
