package analysis

import (
	"context"
	"fmt"

	"github.com/depscope/depscope/pkg/graph"
	"github.com/depscope/depscope/pkg/model"
)

// DetectRedundantEdges flags every edge whose removal would not change
// reachability: edge (u -> v) is redundant iff v is in the closure of some
// other direct dependency w of u. This reuses the closure bitsets, so the
// scan costs O(E · avg out-degree) bitset probes instead of recomputing
// reachability per edge.
//
// Redundant edges are only reported, never removed; consumers decide whether
// to hide them.
func DetectRedundantEdges(ctx context.Context, g *graph.DepGraph, cl *Closures) ([]model.EdgeID, error) {
	var redundant []model.EdgeID

	n := int64(g.NodeCount())
	children := make([]int64, 0, 16)
	for u := int64(0); u < n; u++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("redundancy pass: %w", err)
		}

		children = children[:0]
		g.Children(u, func(child int64) {
			children = append(children, child)
		})
		if len(children) < 2 {
			continue // a single dependency can never be bypassed
		}

		for _, v := range children {
			for _, w := range children {
				if w == v {
					continue
				}
				if cl.Contains(w, v) {
					redundant = append(redundant, model.EdgeID{
						Source: g.NodeAt(u).Hash,
						Target: g.NodeAt(v).Hash,
					})
					break
				}
			}
		}
	}
	return redundant, nil
}
