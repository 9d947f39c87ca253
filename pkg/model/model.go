package model

import (
	"fmt"
	"time"
)

// ImportID identifies one imported dependency graph. Imports are isolation
// boundaries: nodes and edges never cross them.
type ImportID string

// Import is one isolated snapshot of a dependency graph.
type Import struct {
	ID         ImportID  `json:"id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"` // advances whenever the graph changes
}

// NodeType classifies what kind of package a node represents.
type NodeType string

const (
	NodeTypeDerivation NodeType = "derivation"
	NodeTypeSource     NodeType = "source"
	NodeTypeUnknown    NodeType = "unknown"
)

// TopLevelSource annotates why a node is flagged top-level.
type TopLevelSource string

const (
	// SourceExplicit marks a node the user requested directly.
	SourceExplicit TopLevelSource = "explicit"
	// SourceImplied marks a node promoted to top-level by the importer
	// (e.g. a profile default) rather than an explicit request.
	SourceImplied TopLevelSource = "implied"
)

// DependencyKind classifies an edge. These are the only valid values.
type DependencyKind string

const (
	DependencyBuild   DependencyKind = "build"   // needed to build the source node
	DependencyRuntime DependencyKind = "runtime" // needed at run time
	DependencyUnknown DependencyKind = "unknown" // kind not resolved by the importer
)

// Node represents a package within one import. Identity is the content hash,
// unique within the import. Everything except the derived fields
// (ClosureSize, Contribution, ContributionComputedAt) is read-only to the
// analytics core.
type Node struct {
	Hash  string   `json:"hash"`
	Label string   `json:"label"`
	Type  NodeType `json:"type"`

	// Depth is the distance from the nearest root, assigned by ingestion.
	// -1 means not set.
	Depth int `json:"depth,omitempty"`

	TopLevel bool           `json:"topLevel,omitempty"`
	Source   TopLevelSource `json:"source,omitempty"` // only valid when TopLevel

	// Derived fields, computed by the analysis pipeline. ClosureSize is -1
	// until computed.
	ClosureSize            int           `json:"closureSize,omitempty"`
	Contribution           *Contribution `json:"contribution,omitempty"` // only set when TopLevel
	ContributionComputedAt *time.Time    `json:"contributionComputedAt,omitempty"`
}

// Validate checks the structural invariants on a node.
func (n *Node) Validate() error {
	if n.Hash == "" {
		return fmt.Errorf("node %q: empty hash", n.Label)
	}
	switch n.Type {
	case NodeTypeDerivation, NodeTypeSource, NodeTypeUnknown:
	default:
		return fmt.Errorf("node %s: invalid type %q", n.Hash, n.Type)
	}
	if !n.TopLevel && n.Source != "" {
		return fmt.Errorf("node %s: top-level source %q set on non-top-level node", n.Hash, n.Source)
	}
	if !n.TopLevel && n.Contribution != nil {
		return fmt.Errorf("node %s: contribution set on non-top-level node", n.Hash)
	}
	if n.Contribution != nil {
		return n.Contribution.Validate()
	}
	return nil
}

// Contribution partitions a top-level node's closure into dependencies only
// it pulls in (Unique) and dependencies shared with other top-level nodes
// (Shared). The three values are always computed together by the
// contribution engine and can never be set independently of each other.
type Contribution struct {
	Unique int `json:"unique"`
	Shared int `json:"shared"`
	Total  int `json:"total"`
}

// Validate enforces Total == Unique + Shared.
func (c Contribution) Validate() error {
	if c.Total != c.Unique+c.Shared {
		return fmt.Errorf("contribution invariant violated: total %d != unique %d + shared %d",
			c.Total, c.Unique, c.Shared)
	}
	return nil
}

// Edge is a directed dependency: Source depends on Target. Both endpoints
// belong to the same import as the edge.
type Edge struct {
	Source string         `json:"source"` // source node hash
	Target string         `json:"target"` // target node hash
	Kind   DependencyKind `json:"kind"`

	// Redundant is derived: true when an alternate path of length >= 2 from
	// Source to Target exists. Redundant edges are flagged, never removed.
	Redundant bool `json:"redundant,omitempty"`
}

// Validate checks the structural invariants on an edge.
func (e *Edge) Validate() error {
	if e.Source == "" || e.Target == "" {
		return fmt.Errorf("edge %s -> %s: empty endpoint", e.Source, e.Target)
	}
	if e.Source == e.Target {
		return fmt.Errorf("edge %s -> %s: self dependency", e.Source, e.Target)
	}
	switch e.Kind {
	case DependencyBuild, DependencyRuntime, DependencyUnknown:
	default:
		return fmt.Errorf("edge %s -> %s: invalid kind %q", e.Source, e.Target, e.Kind)
	}
	return nil
}

// ID returns the edge identity within its import.
func (e *Edge) ID() EdgeID {
	return EdgeID{Source: e.Source, Target: e.Target}
}

// EdgeID identifies an edge within an import by its endpoint hashes.
type EdgeID struct {
	Source string
	Target string
}

func (e EdgeID) String() string {
	return e.Source + " -> " + e.Target
}

// NodeRef is an import-qualified node reference, used by query entry points
// so that cross-import queries can be rejected before any traversal.
type NodeRef struct {
	Import ImportID
	Hash   string
}
