package graph

import (
	"fmt"
	"sort"

	"github.com/depscope/depscope/pkg/cycles"
	"github.com/depscope/depscope/pkg/model"
)

// CycleError reports that an import's edge relation is not acyclic. The
// whole pipeline run for that import is aborted and no derived fields are
// written.
type CycleError struct {
	Import model.ImportID
	Nodes  []string // hashes of the nodes involved in cycles
}

func (e *CycleError) Error() string {
	if len(e.Nodes) <= 5 {
		return fmt.Sprintf("import %s: cycle detected involving %v", e.Import, e.Nodes)
	}
	return fmt.Sprintf("import %s: cycle detected involving %d nodes (%v ...)",
		e.Import, len(e.Nodes), e.Nodes[:5])
}

// TopoOrder returns all node ordinals ordered so that every node appears
// after the nodes it depends on: edge targets (dependencies) precede edge
// sources (dependents). The closure engine consumes this order directly.
//
// The order is computed with Kahn's algorithm over out-degree counts using
// an explicit queue; no recursion, so graph depth is not limited by the call
// stack. If any node cannot be placed the graph has a cycle and a
// *CycleError naming the involved nodes is returned.
func (dg *DepGraph) TopoOrder() ([]int64, error) {
	n := len(dg.nodes)
	outDegree := make([]int, n)
	queue := make([]int64, 0, n)

	for ord := int64(0); ord < int64(n); ord++ {
		deg := dg.OutDegree(ord)
		outDegree[ord] = deg
		if deg == 0 {
			queue = append(queue, ord)
		}
	}

	order := make([]int64, 0, n)
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		order = append(order, curr)

		dg.Parents(curr, func(parent int64) {
			outDegree[parent]--
			if outDegree[parent] == 0 {
				queue = append(queue, parent)
			}
		})
	}

	if len(order) < n {
		return nil, dg.cycleError()
	}
	return order, nil
}

// cycleError extracts the strongly connected components with more than one
// node and reports their members.
func (dg *DepGraph) cycleError() *CycleError {
	sccs := cycles.NewTarjanSCC(dg.g).FindSCCs()
	var hashes []string
	for _, scc := range sccs {
		for _, ord := range scc {
			hashes = append(hashes, dg.nodes[ord].Hash)
		}
	}
	sort.Strings(hashes)
	return &CycleError{Import: dg.importID, Nodes: hashes}
}
