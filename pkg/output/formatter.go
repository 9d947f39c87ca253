package output

import (
	"fmt"
	"sort"

	"github.com/fatih/color"

	"github.com/depscope/depscope/pkg/analysis"
	"github.com/depscope/depscope/pkg/queries"
)

// PrintRunReport prints a nicely formatted pipeline report with colors
func PrintRunReport(results []*analysis.Result) {
	// Color definitions
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	// Header
	bold.Println("depscope - Analysis Report")
	bold.Println("==========================")

	var failed int
	for _, res := range results {
		if res.Err != nil {
			red.Printf("Import %s: FAILED\n", res.Import)
			fmt.Printf("  %v\n", res.Err)
			failed++
			continue
		}
		if res.Empty {
			yellow.Printf("Import %s: empty, skipped\n", res.Import)
			continue
		}

		cyan.Printf("%s", res.Name)
		fmt.Printf(" (%s)\n", shortID(string(res.Import)))
		fmt.Printf("  Nodes: %d  Edges: %d  Top-level: %d\n", res.Nodes, res.Edges, res.TopLevel)
		if res.Redundant > 0 {
			yellow.Printf("  Redundant edges: %d\n", res.Redundant)
		} else {
			fmt.Printf("  Redundant edges: 0\n")
		}

		// Largest contributors first
		type entry struct {
			hash  string
			total int
		}
		entries := make([]entry, 0, len(res.Contributions))
		for hash, c := range res.Contributions {
			entries = append(entries, entry{hash, c.Total})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].total != entries[j].total {
				return entries[i].total > entries[j].total
			}
			return entries[i].hash < entries[j].hash
		})
		for _, e := range entries {
			c := res.Contributions[e.hash]
			fmt.Printf("  %s: closure %d (unique %d, shared %d)\n",
				shortID(e.hash), c.Total, c.Unique, c.Shared)
		}
		fmt.Println()
	}

	// Summary with color based on failures
	summaryColor := green
	if failed > 0 {
		summaryColor = red
	}
	summaryColor.Printf("Summary: %d import(s) analyzed, %d failed\n", len(results)-failed, failed)
}

// PrintDuplicateGroups prints the duplicate packages found within an import
func PrintDuplicateGroups(name string, groups []queries.DuplicateGroup) {
	bold := color.New(color.Bold)
	yellow := color.New(color.FgYellow)

	if len(groups) == 0 {
		fmt.Printf("%s: no duplicated packages\n", name)
		return
	}

	bold.Printf("%s: %d duplicated package(s)\n", name, len(groups))
	for _, grp := range groups {
		yellow.Printf("  %s", grp.Label)
		fmt.Printf(" x%d\n", grp.Count)
		for _, hash := range grp.Nodes {
			fmt.Printf("    %s\n", shortID(hash))
		}
	}
}

func shortID(s string) string {
	if len(s) > 12 {
		return s[:12]
	}
	return s
}
