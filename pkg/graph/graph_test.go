package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/depscope/depscope/pkg/model"
	"github.com/depscope/depscope/pkg/store"
)

// loadTestGraph ingests nodes and edges into a fresh store and loads the
// resulting graph. Node hashes are single letters; edges are "a>b" pairs.
func loadTestGraph(t *testing.T, topLevel []string, hashes []string, edges []string) *DepGraph {
	t.Helper()

	top := make(map[string]bool, len(topLevel))
	for _, h := range topLevel {
		top[h] = true
	}

	nodes := make([]model.Node, len(hashes))
	for i, h := range hashes {
		nodes[i] = model.Node{Hash: h, Label: "pkg-" + h, Type: model.NodeTypeDerivation}
		if top[h] {
			nodes[i].TopLevel = true
			nodes[i].Source = model.SourceExplicit
		}
	}

	rows := make([]model.Edge, len(edges))
	for i, e := range edges {
		rows[i] = model.Edge{Source: e[:1], Target: e[2:], Kind: model.DependencyBuild}
	}

	m := store.NewMemory()
	id, err := m.PutImport("test", nodes, rows)
	if err != nil {
		t.Fatalf("PutImport failed: %v", err)
	}
	g, err := Load(context.Background(), m, id, 0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return g
}

func TestLoad(t *testing.T) {
	g := loadTestGraph(t, []string{"a"},
		[]string{"a", "b", "c"},
		[]string{"a>b", "a>c", "b>c"})

	if g.NodeCount() != 3 || g.EdgeCount() != 3 {
		t.Errorf("Expected 3 nodes and 3 edges, got %d and %d", g.NodeCount(), g.EdgeCount())
	}
	if len(g.TopLevel()) != 1 {
		t.Fatalf("Expected 1 top-level node, got %d", len(g.TopLevel()))
	}
	if g.NodeAt(g.TopLevel()[0]).Hash != "a" {
		t.Errorf("Expected top-level node a, got %s", g.NodeAt(g.TopLevel()[0]).Hash)
	}

	aOrd, ok := g.Ordinal("a")
	if !ok {
		t.Fatal("Ordinal lookup for a failed")
	}
	if g.OutDegree(aOrd) != 2 {
		t.Errorf("Expected out-degree 2 for a, got %d", g.OutDegree(aOrd))
	}

	bOrd, _ := g.Ordinal("b")
	if e, ok := g.EdgeBetween(aOrd, bOrd); !ok || e.Source != "a" || e.Target != "b" {
		t.Errorf("EdgeBetween(a, b) = %v, %v", e, ok)
	}
	if _, ok := g.EdgeBetween(bOrd, aOrd); ok {
		t.Error("EdgeBetween(b, a) should not exist")
	}
}

func TestLoadEmptyImport(t *testing.T) {
	m := store.NewMemory()
	id, err := m.PutImport("empty", nil, nil)
	if err != nil {
		t.Fatalf("PutImport failed: %v", err)
	}

	_, err = Load(context.Background(), m, id, 0)
	if !errors.Is(err, ErrEmptyGraph) {
		t.Errorf("Expected ErrEmptyGraph, got %v", err)
	}
}

func TestLoadTooLarge(t *testing.T) {
	m := store.NewMemory()
	nodes := []model.Node{
		{Hash: "a", Label: "a", Type: model.NodeTypeDerivation},
		{Hash: "b", Label: "b", Type: model.NodeTypeDerivation},
		{Hash: "c", Label: "c", Type: model.NodeTypeDerivation},
	}
	id, err := m.PutImport("big", nodes, nil)
	if err != nil {
		t.Fatalf("PutImport failed: %v", err)
	}

	_, err = Load(context.Background(), m, id, 2)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge with limit 2, got %v", err)
	}

	// Limit 0 disables the bound.
	if _, err := Load(context.Background(), m, id, 0); err != nil {
		t.Errorf("Expected load to succeed with no bound, got %v", err)
	}
}

func TestLoadNotFound(t *testing.T) {
	m := store.NewMemory()
	_, err := Load(context.Background(), m, "no-such-import", 0)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected store.ErrNotFound, got %v", err)
	}
}

func TestChildrenAndParents(t *testing.T) {
	g := loadTestGraph(t, nil,
		[]string{"a", "b", "c"},
		[]string{"a>c", "b>c"})

	cOrd, _ := g.Ordinal("c")
	var parents []string
	g.Parents(cOrd, func(parent int64) {
		parents = append(parents, g.NodeAt(parent).Hash)
	})
	if len(parents) != 2 {
		t.Errorf("Expected 2 parents of c, got %v", parents)
	}

	var children []string
	g.Children(cOrd, func(child int64) {
		children = append(children, g.NodeAt(child).Hash)
	})
	if len(children) != 0 {
		t.Errorf("Expected no children of c, got %v", children)
	}
}
