package cycles

import (
	"testing"

	"gonum.org/v1/gonum/graph/simple"
)

func buildGraph(nodes int64, edges [][2]int64) *simple.DirectedGraph {
	g := simple.NewDirectedGraph()
	for i := int64(0); i < nodes; i++ {
		g.AddNode(simple.Node(i))
	}
	for _, e := range edges {
		g.SetEdge(g.NewEdge(simple.Node(e[0]), simple.Node(e[1])))
	}
	return g
}

func TestFindSCCs_Acyclic(t *testing.T) {
	// Chain: 0 -> 1 -> 2
	g := buildGraph(3, [][2]int64{{0, 1}, {1, 2}})

	sccs := NewTarjanSCC(g).FindSCCs()
	if len(sccs) != 0 {
		t.Errorf("Expected no cycles, found %d components", len(sccs))
	}
}

func TestFindSCCs_TwoNodeCycle(t *testing.T) {
	g := buildGraph(2, [][2]int64{{0, 1}, {1, 0}})

	sccs := NewTarjanSCC(g).FindSCCs()
	if len(sccs) != 1 {
		t.Fatalf("Expected 1 component, found %d", len(sccs))
	}
	if len(sccs[0]) != 2 {
		t.Errorf("Expected component of 2 nodes, got %d", len(sccs[0]))
	}
}

func TestFindSCCs_CycleWithTail(t *testing.T) {
	// 0 -> 1 -> 2 -> 1, plus 2 -> 3
	g := buildGraph(4, [][2]int64{{0, 1}, {1, 2}, {2, 1}, {2, 3}})

	sccs := NewTarjanSCC(g).FindSCCs()
	if len(sccs) != 1 {
		t.Fatalf("Expected 1 component, found %d", len(sccs))
	}

	members := make(map[int64]bool)
	for _, id := range sccs[0] {
		members[id] = true
	}
	if !members[1] || !members[2] || members[0] || members[3] {
		t.Errorf("Expected component {1, 2}, got %v", sccs[0])
	}
}

func TestFindSCCs_MultipleComponents(t *testing.T) {
	// Two disjoint cycles: {0, 1} and {2, 3, 4}
	g := buildGraph(5, [][2]int64{
		{0, 1}, {1, 0},
		{2, 3}, {3, 4}, {4, 2},
	})

	sccs := NewTarjanSCC(g).FindSCCs()
	if len(sccs) != 2 {
		t.Fatalf("Expected 2 components, found %d", len(sccs))
	}

	sizes := make(map[int]int)
	for _, scc := range sccs {
		sizes[len(scc)]++
	}
	if sizes[2] != 1 || sizes[3] != 1 {
		t.Errorf("Expected one 2-node and one 3-node component, got %v", sizes)
	}
}

func TestFindSCCs_DeepChain(t *testing.T) {
	// A long chain must not blow the stack; the traversal is iterative.
	const n = 200_000
	g := simple.NewDirectedGraph()
	for i := int64(0); i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for i := int64(0); i < n-1; i++ {
		g.SetEdge(g.NewEdge(simple.Node(i), simple.Node(i+1)))
	}

	sccs := NewTarjanSCC(g).FindSCCs()
	if len(sccs) != 0 {
		t.Errorf("Expected no cycles in a chain, found %d components", len(sccs))
	}
}
