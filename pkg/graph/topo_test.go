package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/depscope/depscope/pkg/model"
	"github.com/depscope/depscope/pkg/store"
)

// assertTopoOrder checks that every edge target appears before its source.
func assertTopoOrder(t *testing.T, g *DepGraph, order []int64) {
	t.Helper()
	pos := make(map[int64]int, len(order))
	for i, ord := range order {
		pos[ord] = i
	}
	for _, e := range g.Edges() {
		src, _ := g.Ordinal(e.Source)
		dst, _ := g.Ordinal(e.Target)
		if pos[dst] >= pos[src] {
			t.Errorf("Edge %s: target must come before source in the order", e.ID())
		}
	}
}

func TestTopoOrderChain(t *testing.T) {
	g := loadTestGraph(t, nil,
		[]string{"a", "b", "c", "d"},
		[]string{"a>b", "b>c", "c>d"})

	order, err := g.TopoOrder()
	if err != nil {
		t.Fatalf("TopoOrder failed: %v", err)
	}
	if len(order) != 4 {
		t.Fatalf("Expected 4 nodes in order, got %d", len(order))
	}
	assertTopoOrder(t, g, order)

	// In a chain the order is fully determined: d, c, b, a.
	want := []string{"d", "c", "b", "a"}
	for i, ord := range order {
		if g.NodeAt(ord).Hash != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, g.NodeAt(ord).Hash, want[i])
		}
	}
}

func TestTopoOrderDiamond(t *testing.T) {
	g := loadTestGraph(t, nil,
		[]string{"a", "b", "c", "d"},
		[]string{"a>b", "a>c", "b>d", "c>d"})

	order, err := g.TopoOrder()
	if err != nil {
		t.Fatalf("TopoOrder failed: %v", err)
	}
	assertTopoOrder(t, g, order)

	if g.NodeAt(order[0]).Hash != "d" {
		t.Errorf("Expected the sink d first, got %s", g.NodeAt(order[0]).Hash)
	}
	if g.NodeAt(order[3]).Hash != "a" {
		t.Errorf("Expected the root a last, got %s", g.NodeAt(order[3]).Hash)
	}
}

func TestTopoOrderDisconnected(t *testing.T) {
	g := loadTestGraph(t, nil,
		[]string{"a", "b", "c"},
		[]string{"a>b"})

	order, err := g.TopoOrder()
	if err != nil {
		t.Fatalf("TopoOrder failed: %v", err)
	}
	if len(order) != 3 {
		t.Errorf("Isolated nodes must appear in the order, got %d of 3", len(order))
	}
	assertTopoOrder(t, g, order)
}

func TestTopoOrderCycle(t *testing.T) {
	g := loadTestGraph(t, nil,
		[]string{"a", "b", "c", "d"},
		[]string{"a>b", "b>c", "c>b", "c>d"})

	_, err := g.TopoOrder()
	if err == nil {
		t.Fatal("Expected a cycle error")
	}

	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("Expected *CycleError, got %T: %v", err, err)
	}
	if len(cycleErr.Nodes) != 2 {
		t.Fatalf("Expected 2 nodes in the cycle, got %v", cycleErr.Nodes)
	}
	if cycleErr.Nodes[0] != "b" || cycleErr.Nodes[1] != "c" {
		t.Errorf("Expected cycle members [b c], got %v", cycleErr.Nodes)
	}
}

// A cycle aborts the whole run, so no derived fields may be written for the
// import. That is enforced by the runner; here we only check the error shape
// is distinguishable.
func TestCycleErrorMessage(t *testing.T) {
	err := &CycleError{Import: "imp-1", Nodes: []string{"a", "b"}}
	if err.Error() == "" {
		t.Error("Expected a non-empty message")
	}

	long := &CycleError{Import: "imp-1", Nodes: []string{"a", "b", "c", "d", "e", "f", "g"}}
	if long.Error() == "" {
		t.Error("Expected a non-empty truncated message")
	}
}

func TestLoadRejectsDuplicateEdge(t *testing.T) {
	// The store rejects duplicate edges too, so feed Load a snapshot
	// directly through a stub store.
	snap := &store.Snapshot{
		Import: model.Import{ID: "imp-1", Name: "test"},
		Nodes: []model.Node{
			{Hash: "a", Label: "a", Type: model.NodeTypeDerivation},
			{Hash: "b", Label: "b", Type: model.NodeTypeDerivation},
		},
		Edges: []model.Edge{
			{Source: "a", Target: "b", Kind: model.DependencyBuild},
			{Source: "a", Target: "b", Kind: model.DependencyRuntime},
		},
	}

	_, err := Load(context.Background(), stubStore{snap: snap}, "imp-1", 0)
	if err == nil {
		t.Error("Expected duplicate edge to be rejected")
	}
}

// A self dependency is a one-node cycle; the loader must reject it as such
// instead of handing it to the underlying graph.
func TestLoadRejectsSelfEdge(t *testing.T) {
	snap := &store.Snapshot{
		Import: model.Import{ID: "imp-1", Name: "test"},
		Nodes: []model.Node{
			{Hash: "a", Label: "a", Type: model.NodeTypeDerivation},
			{Hash: "b", Label: "b", Type: model.NodeTypeDerivation},
		},
		Edges: []model.Edge{
			{Source: "a", Target: "b", Kind: model.DependencyBuild},
			{Source: "b", Target: "b", Kind: model.DependencyBuild},
		},
	}

	_, err := Load(context.Background(), stubStore{snap: snap}, "imp-1", 0)
	if err == nil {
		t.Fatal("Expected self edge to be rejected")
	}

	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("Expected *CycleError, got %T: %v", err, err)
	}
	if len(cycleErr.Nodes) != 1 || cycleErr.Nodes[0] != "b" {
		t.Errorf("Expected cycle members [b], got %v", cycleErr.Nodes)
	}
}

type stubStore struct {
	snap *store.Snapshot
}

func (s stubStore) Imports(ctx context.Context) ([]model.Import, error) {
	return []model.Import{s.snap.Import}, nil
}

func (s stubStore) LoadImport(ctx context.Context, id model.ImportID) (*store.Snapshot, error) {
	return s.snap, nil
}

func (s stubStore) WriteDerived(ctx context.Context, id model.ImportID, batch *store.DerivedBatch) error {
	return nil
}
