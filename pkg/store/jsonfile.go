package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/depscope/depscope/pkg/model"
)

// ImportFile is the on-disk JSON representation of one import. It carries
// only source-of-truth fields; derived attributes are never read from disk.
type ImportFile struct {
	Name  string    `json:"name"`
	Nodes []NodeRow `json:"nodes"`
	Edges []EdgeRow `json:"edges"`
}

// NodeRow is one node row in an import file. Depth is optional; absent means
// ingestion did not compute it.
type NodeRow struct {
	Hash     string               `json:"hash"`
	Label    string               `json:"label"`
	Type     model.NodeType       `json:"type,omitempty"`
	Depth    *int                 `json:"depth,omitempty"`
	TopLevel bool                 `json:"topLevel,omitempty"`
	Source   model.TopLevelSource `json:"source,omitempty"`
}

// EdgeRow is one edge row in an import file.
type EdgeRow struct {
	Source string               `json:"source"`
	Target string               `json:"target"`
	Kind   model.DependencyKind `json:"kind,omitempty"`
}

// ReadImportFile parses one import graph file. Nodes with no type default to
// "unknown", as do edges with no kind. The file name (minus extension) is
// used when the file carries no import name.
func ReadImportFile(path string) (*ImportFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}

	var f ImportFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &f, nil
}

// Rows converts the file representation into store rows.
func (f *ImportFile) Rows() ([]model.Node, []model.Edge) {
	nodes := make([]model.Node, len(f.Nodes))
	for i, r := range f.Nodes {
		n := model.Node{
			Hash:        r.Hash,
			Label:       r.Label,
			Type:        r.Type,
			Depth:       -1,
			TopLevel:    r.TopLevel,
			Source:      r.Source,
			ClosureSize: -1,
		}
		if n.Type == "" {
			n.Type = model.NodeTypeUnknown
		}
		if r.Depth != nil {
			n.Depth = *r.Depth
		}
		nodes[i] = n
	}

	edges := make([]model.Edge, len(f.Edges))
	for i, r := range f.Edges {
		e := model.Edge{Source: r.Source, Target: r.Target, Kind: r.Kind}
		if e.Kind == "" {
			e.Kind = model.DependencyUnknown
		}
		edges[i] = e
	}
	return nodes, edges
}

// LoadDir ingests every .json file in dir into the store and returns the
// import IDs in file order. Files that fail to parse abort the load.
func LoadDir(m *Memory, dir string) ([]model.ImportID, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var ids []model.ImportID
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		f, err := ReadImportFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		nodes, edges := f.Rows()
		id, err := m.PutImport(f.Name, nodes, edges)
		if err != nil {
			return nil, fmt.Errorf("ingesting %s: %w", entry.Name(), err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
