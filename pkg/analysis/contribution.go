package analysis

import (
	"context"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/depscope/depscope/pkg/graph"
	"github.com/depscope/depscope/pkg/model"
)

// ContributionOptions controls the contribution pass.
type ContributionOptions struct {
	// StaleOnly restricts output to top-level nodes whose contribution has
	// never been computed or whose import changed after the last stamp.
	// The reacher propagation always runs over the whole graph; staleness
	// only limits what gets recounted and written back.
	StaleOnly bool
}

// ComputeContributions partitions each top-level node's closure into
// uniquely-attributable and shared dependencies.
//
// Reacher sets (which top-level nodes can reach a given node) are bitsets
// indexed by top-level ordinal, so they stay small even when closures are
// large. They are propagated dependents-first, the reverse of the closure
// order: each top-level node seeds its own bit and every node unions its
// direct dependents' sets. A node's own seed bit is not a reacher for
// attribution, since closure membership excludes self-reference.
//
// For top-level T and D in closure(T): exactly one reacher means D counts
// toward T's unique contribution, more than one means shared. The returned
// triples satisfy Total == Unique + Shared == closure_size(T) by
// construction; a mismatch against the closure sizes is reported as an
// internal consistency error rather than silently corrected.
func ComputeContributions(ctx context.Context, g *graph.DepGraph, cl *Closures, opts ContributionOptions) (map[string]model.Contribution, error) {
	top := g.TopLevel()
	out := make(map[string]model.Contribution, len(top))
	if len(top) == 0 {
		return out, nil
	}

	topIdx := make(map[int64]uint, len(top))
	for i, ord := range top {
		topIdx[ord] = uint(i)
	}

	n := g.NodeCount()
	reachers := make([]*bitset.BitSet, n)
	for i := range reachers {
		reachers[i] = bitset.New(uint(len(top)))
	}
	for _, ord := range top {
		reachers[ord].Set(topIdx[ord])
	}

	order := cl.Order()
	for i := len(order) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("reacher pass: %w", err)
		}
		ord := order[i]
		g.Parents(ord, func(parent int64) {
			reachers[ord].InPlaceUnion(reachers[parent])
		})
	}

	for _, tOrd := range top {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("contribution pass: %w", err)
		}
		node := g.NodeAt(tOrd)
		if opts.StaleOnly && !contributionStale(node, g) {
			continue
		}

		var unique, shared int
		set := cl.Set(tOrd)
		for d, ok := set.NextSet(0); ok; d, ok = set.NextSet(d + 1) {
			count := int(reachers[d].Count())
			if _, isTop := topIdx[int64(d)]; isTop {
				count-- // own seed bit, not a reacher
			}
			if count == 1 {
				unique++
			} else {
				shared++
			}
		}

		contrib := model.Contribution{Unique: unique, Shared: shared, Total: unique + shared}
		if want := cl.Size(tOrd); contrib.Total != want {
			return nil, fmt.Errorf("internal consistency: node %s contribution total %d != closure size %d",
				node.Hash, contrib.Total, want)
		}
		out[node.Hash] = contrib
	}
	return out, nil
}

// contributionStale reports whether a top-level node needs recomputation:
// never computed, or the import's graph changed after the stamp.
func contributionStale(n *model.Node, g *graph.DepGraph) bool {
	return n.ContributionComputedAt == nil || n.ContributionComputedAt.Before(g.ModifiedAt())
}
