package depgraph

import (
	"sort"

	"github.com/codeatlas/codeatlas/internal/types"
)

// Insights derives the top-5 fan-out/fan-in/external-package lists from the
// dependency graph (§12).
func Insights(deps types.Dependencies) types.DependencyInsights {
	fanOut := map[string]int{}
	fanIn := map[string]int{}
	external := map[string]int{}

	for _, e := range deps.Edges {
		switch e.Kind {
		case "local":
			fanOut[e.Source]++
			fanIn[e.Target]++
		case "external":
			external[e.Specifier]++
		}
	}

	return types.DependencyInsights{
		FanOut:           top5(fanOut),
		FanIn:            top5(fanIn),
		ExternalPackages: top5(external),
	}
}

func top5(counts map[string]int) []types.CountEntry {
	entries := make([]types.CountEntry, 0, len(counts))
	for k, c := range counts {
		entries = append(entries, types.CountEntry{Key: k, Count: c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})
	if len(entries) > 5 {
		entries = entries[:5]
	}
	return entries
}
