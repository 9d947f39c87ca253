package analysis

import (
	"context"
	"testing"

	"github.com/depscope/depscope/pkg/model"
)

func TestDetectRedundantEdgesDirectShortcut(t *testing.T) {
	// a -> b -> c plus the shortcut a -> c. The shortcut is redundant.
	g, _, _ := buildGraph(t, nil,
		[]string{"a", "b", "c"},
		[]string{"a>b", "b>c", "a>c"})
	cl := computeClosures(t, g)

	redundant, err := DetectRedundantEdges(context.Background(), g, cl)
	if err != nil {
		t.Fatalf("DetectRedundantEdges failed: %v", err)
	}
	if len(redundant) != 1 {
		t.Fatalf("Expected 1 redundant edge, got %v", redundant)
	}
	want := model.EdgeID{Source: "a", Target: "c"}
	if redundant[0] != want {
		t.Errorf("Redundant edge = %v, want %v", redundant[0], want)
	}
}

func TestDetectRedundantEdgesDiamond(t *testing.T) {
	// A pure diamond has no redundant edge: removing any edge changes
	// reachability through that arm.
	g, _, _ := buildGraph(t, nil,
		[]string{"a", "b", "c", "d"},
		[]string{"a>b", "a>c", "b>d", "c>d"})
	cl := computeClosures(t, g)

	redundant, err := DetectRedundantEdges(context.Background(), g, cl)
	if err != nil {
		t.Fatalf("DetectRedundantEdges failed: %v", err)
	}
	if len(redundant) != 0 {
		t.Errorf("Expected no redundant edges in a diamond, got %v", redundant)
	}
}

func TestDetectRedundantEdgesDiamondWithShortcut(t *testing.T) {
	// Diamond plus a -> d: the long way through either arm already reaches
	// d, so only the shortcut is redundant.
	g, _, _ := buildGraph(t, nil,
		[]string{"a", "b", "c", "d"},
		[]string{"a>b", "a>c", "b>d", "c>d", "a>d"})
	cl := computeClosures(t, g)

	redundant, err := DetectRedundantEdges(context.Background(), g, cl)
	if err != nil {
		t.Fatalf("DetectRedundantEdges failed: %v", err)
	}
	if len(redundant) != 1 {
		t.Fatalf("Expected 1 redundant edge, got %v", redundant)
	}
	want := model.EdgeID{Source: "a", Target: "d"}
	if redundant[0] != want {
		t.Errorf("Redundant edge = %v, want %v", redundant[0], want)
	}
}

func TestDetectRedundantEdgesSingleChild(t *testing.T) {
	// A node with one dependency can never have a redundant edge.
	g, _, _ := buildGraph(t, nil,
		[]string{"a", "b", "c"},
		[]string{"a>b", "b>c"})
	cl := computeClosures(t, g)

	redundant, err := DetectRedundantEdges(context.Background(), g, cl)
	if err != nil {
		t.Fatalf("DetectRedundantEdges failed: %v", err)
	}
	if len(redundant) != 0 {
		t.Errorf("Expected no redundant edges in a chain, got %v", redundant)
	}
}

func TestDetectRedundantEdgesDeepBypass(t *testing.T) {
	// a -> d is bypassed by the longer path a -> b -> c -> d.
	g, _, _ := buildGraph(t, nil,
		[]string{"a", "b", "c", "d"},
		[]string{"a>b", "b>c", "c>d", "a>d"})
	cl := computeClosures(t, g)

	redundant, err := DetectRedundantEdges(context.Background(), g, cl)
	if err != nil {
		t.Fatalf("DetectRedundantEdges failed: %v", err)
	}
	if len(redundant) != 1 || redundant[0] != (model.EdgeID{Source: "a", Target: "d"}) {
		t.Errorf("Expected a -> d to be redundant, got %v", redundant)
	}
}
