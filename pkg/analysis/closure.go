// Package analysis implements the per-import analytics pipeline: transitive
// closure sizes, unique/shared contribution attribution for top-level nodes,
// and redundant-edge detection, plus the runner that sequences the stages
// and writes derived attributes back to the store.
package analysis

import (
	"context"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/depscope/depscope/pkg/graph"
)

// Closures holds every node's forward transitive closure as a bitset over
// the import's dense ordinal space. closure(n) contains the descendants of n
// only; n itself is excluded, so closure size is simply the popcount.
//
// Bitsets keep the per-node union near O(V / word size) instead of
// O(closure cardinality), which is what makes the pass viable at 10^5+
// nodes. Worst-case memory is O(V²) bits; the loader's node bound keeps
// that in check.
type Closures struct {
	sets  []*bitset.BitSet
	order []int64 // topological order the sets were built in
}

// ComputeClosures builds all closure sets in one pass over the topological
// order (dependencies before dependents): each node's closure is the union
// of its direct dependencies and their already-computed closures.
//
// Cancellation is honored at node granularity; on cancellation the partial
// result is discarded.
func ComputeClosures(ctx context.Context, g *graph.DepGraph, order []int64) (*Closures, error) {
	n := g.NodeCount()
	if len(order) != n {
		return nil, fmt.Errorf("topological order covers %d of %d nodes", len(order), n)
	}

	sets := make([]*bitset.BitSet, n)
	for _, ord := range order {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("closure pass: %w", err)
		}
		set := bitset.New(uint(n))
		g.Children(ord, func(child int64) {
			set.Set(uint(child))
			set.InPlaceUnion(sets[child])
		})
		sets[ord] = set
	}
	return &Closures{sets: sets, order: order}, nil
}

// Set returns the closure bitset of one node. The set must not be modified.
func (c *Closures) Set(ord int64) *bitset.BitSet { return c.sets[ord] }

// Size returns the closure size of one node.
func (c *Closures) Size(ord int64) int { return int(c.sets[ord].Count()) }

// Contains reports whether target is in the closure of ord.
func (c *Closures) Contains(ord, target int64) bool { return c.sets[ord].Test(uint(target)) }

// Order returns the topological order the closures were built in.
func (c *Closures) Order() []int64 { return c.order }

// Sizes returns the closure size of every node keyed by hash, the shape the
// store write-back expects.
func (c *Closures) Sizes(g *graph.DepGraph) map[string]int {
	out := make(map[string]int, len(c.sets))
	for ord := range c.sets {
		out[g.NodeAt(int64(ord)).Hash] = int(c.sets[ord].Count())
	}
	return out
}
