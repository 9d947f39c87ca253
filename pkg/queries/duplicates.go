// Package queries answers read-only structural questions over a loaded
// import graph: duplicate package detection and shortest dependency paths.
// Queries never touch the store and may run concurrently with each other.
package queries

import (
	"sort"

	"github.com/depscope/depscope/pkg/graph"
)

// DuplicateGroup reports all nodes in an import sharing one label but
// having distinct content hashes, i.e. the same package present more than
// once.
type DuplicateGroup struct {
	Label string   `json:"label"`
	Nodes []string `json:"nodes"` // member hashes, sorted
	Count int      `json:"count"`
}

// FindDuplicates groups nodes by label and returns the groups with more
// than one distinct hash, ordered by member count descending (label
// ascending on ties).
func FindDuplicates(g *graph.DepGraph) []DuplicateGroup {
	byLabel := make(map[string][]string)
	for ord := int64(0); ord < int64(g.NodeCount()); ord++ {
		n := g.NodeAt(ord)
		byLabel[n.Label] = append(byLabel[n.Label], n.Hash)
	}

	var groups []DuplicateGroup
	for label, hashes := range byLabel {
		if len(hashes) < 2 {
			continue
		}
		sort.Strings(hashes)
		groups = append(groups, DuplicateGroup{
			Label: label,
			Nodes: hashes,
			Count: len(hashes),
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Label < groups[j].Label
	})
	return groups
}
