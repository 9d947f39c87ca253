// Package cycles finds strongly connected components in directed graphs.
// Components with more than one node are exactly the node sets involved in
// directed cycles, which is what the pipeline reports when it rejects a
// non-acyclic import.
package cycles

import (
	"gonum.org/v1/gonum/graph"
)

// TarjanSCC finds all strongly connected components using Tarjan's algorithm.
// The traversal is iterative with an explicit stack so that graphs with
// hundreds of thousands of nodes cannot exhaust the call stack.
type TarjanSCC struct {
	succ    map[int64][]int64
	order   []int64
	index   int
	stack   []int64
	onStack map[int64]bool
	indices map[int64]int
	lowLink map[int64]int
	sccs    [][]int64
}

// NewTarjanSCC creates a new Tarjan SCC finder over the given graph.
func NewTarjanSCC(g graph.Directed) *TarjanSCC {
	t := &TarjanSCC{
		succ:    make(map[int64][]int64),
		onStack: make(map[int64]bool),
		indices: make(map[int64]int),
		lowLink: make(map[int64]int),
	}

	nodes := g.Nodes()
	for nodes.Next() {
		id := nodes.Node().ID()
		t.order = append(t.order, id)
		to := g.From(id)
		for to.Next() {
			t.succ[id] = append(t.succ[id], to.Node().ID())
		}
	}
	return t
}

// FindSCCs returns all strongly connected components with more than one
// node, i.e. the cycles.
func (t *TarjanSCC) FindSCCs() [][]int64 {
	for _, id := range t.order {
		if _, visited := t.indices[id]; !visited {
			t.strongConnect(id)
		}
	}
	return t.sccs
}

// visitFrame tracks one node's progress through its successor list.
type visitFrame struct {
	node int64
	next int // index of the next successor to consider
}

// strongConnect runs the usual recursive algorithm on an explicit frame
// stack. Lowlink values propagate to the parent when a frame is popped.
func (t *TarjanSCC) strongConnect(root int64) {
	t.discover(root)
	frames := []visitFrame{{node: root}}

	for len(frames) > 0 {
		f := &frames[len(frames)-1]

		if f.next < len(t.succ[f.node]) {
			w := t.succ[f.node][f.next]
			f.next++

			if _, visited := t.indices[w]; !visited {
				t.discover(w)
				frames = append(frames, visitFrame{node: w})
			} else if t.onStack[w] {
				// w is on the stack and hence in the current SCC
				t.lowLink[f.node] = min(t.lowLink[f.node], t.indices[w])
			}
			continue
		}

		// All successors of f.node handled
		if t.lowLink[f.node] == t.indices[f.node] {
			t.popComponent(f.node)
		}
		frames = frames[:len(frames)-1]
		if len(frames) > 0 {
			parent := &frames[len(frames)-1]
			t.lowLink[parent.node] = min(t.lowLink[parent.node], t.lowLink[f.node])
		}
	}
}

func (t *TarjanSCC) discover(id int64) {
	t.indices[id] = t.index
	t.lowLink[id] = t.index
	t.index++
	t.stack = append(t.stack, id)
	t.onStack[id] = true
}

// popComponent pops the stack down to root and records the SCC if it
// contains more than one node.
func (t *TarjanSCC) popComponent(root int64) {
	scc := make([]int64, 0)
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == root {
			break
		}
	}
	if len(scc) > 1 {
		t.sccs = append(t.sccs, scc)
	}
}
