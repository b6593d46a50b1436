// Package narrative implements spec.md §4.6: deriving the report's
// human-readable overview, key facts, hotspots, actions, and clone summary
// from the rest of the already-computed report.
package narrative

import (
	"fmt"
	"sort"

	"github.com/codeatlas/codeatlas/internal/types"
)

// Build assembles the Narrative section from a report that already has
// every other section populated.
func Build(report *types.Report, walkDuration int64) types.Narrative {
	n := types.Narrative{
		Overview: overview(report, walkDuration),
		KeyFacts: keyFacts(report),
		Hotspots: hotspots(report),
		Actions:  actions(report),
	}
	n.Clones, n.ClonesDetails = cloneSummary(report)
	n.Metrics = metricsNarrative(report)
	return n
}

func overview(report *types.Report, walkDuration int64) string {
	if report.Summary.Totals.Files == 0 {
		return "No notable architectural facts detected."
	}

	dominant := ""
	dominantPct := 0.0
	totalFiles := report.Summary.Totals.Files
	for _, l := range report.Summary.Languages {
		if totalFiles > 0 {
			pct := float64(l.Files) / float64(totalFiles) * 100
			if pct > dominantPct {
				dominantPct = pct
				dominant = l.Language
			}
		}
	}

	s := fmt.Sprintf(
		"Scanned %d files across %d directories in %dms.",
		totalFiles, report.Summary.Totals.Directories, walkDuration,
	)
	if dominant != "" {
		s += fmt.Sprintf(" %s dominates the codebase at %.0f%% of files.", dominant, dominantPct)
	}
	if report.Summary.Totals.Truncated {
		s += " The walk was truncated before every file could be visited."
	}
	return s
}

func keyFacts(report *types.Report) []string {
	var facts []string

	langs := append([]types.LanguageStat(nil), report.Summary.Languages...)
	sort.Slice(langs, func(i, j int) bool { return langs[i].Files > langs[j].Files })
	totalFiles := report.Summary.Totals.Files
	for i := 0; i < len(langs) && i < 3; i++ {
		pct := 0.0
		if totalFiles > 0 {
			pct = float64(langs[i].Files) / float64(totalFiles) * 100
		}
		facts = append(facts, fmt.Sprintf("%s: %d files (%.0f%%)", langs[i].Language, langs[i].Files, pct))
	}

	facts = append(facts, fmt.Sprintf(
		"%d packages, %d files, %d symbols in the structure graph",
		report.StructureGraph.Totals["packages"], report.StructureGraph.Totals["files"], report.StructureGraph.Totals["symbols"],
	))

	largest := append([]types.SizedFile(nil), report.Summary.LargestFiles...)
	for i := 0; i < len(largest) && i < 3; i++ {
		facts = append(facts, fmt.Sprintf("%s is %d bytes", largest[i].Path, largest[i].Size))
	}

	severityCounts := map[types.IssueSeverity]int{}
	for _, iss := range report.Issues {
		severityCounts[iss.Severity]++
	}
	facts = append(facts, fmt.Sprintf(
		"%d errors, %d warnings, %d info issues",
		severityCounts[types.SeverityError], severityCounts[types.SeverityWarning], severityCounts[types.SeverityInfo],
	))

	pkgs := append([]types.CountEntry(nil), report.DependencyInsights.ExternalPackages...)
	for i := 0; i < len(pkgs) && i < 3; i++ {
		facts = append(facts, fmt.Sprintf("%s referenced %d times", pkgs[i].Key, pkgs[i].Count))
	}

	return facts
}

func hotspots(report *types.Report) []string {
	var spots []string

	type fileComplexity struct {
		path  string
		score float64
	}
	var complex []fileComplexity
	for path, m := range report.Metrics.Files {
		if m.ComplexityScore != nil && *m.ComplexityScore >= 35 {
			complex = append(complex, fileComplexity{path, *m.ComplexityScore})
		}
	}
	sort.Slice(complex, func(i, j int) bool { return complex[i].score > complex[j].score })
	for i := 0; i < len(complex) && i < 3; i++ {
		spots = append(spots, fmt.Sprintf("%s has a complexity score of %.0f", complex[i].path, complex[i].score))
	}

	longest := append([]types.SizedFile(nil), report.Summary.LongestFiles...)
	for i := 0; i < len(longest) && i < 3; i++ {
		if longest[i].LineCount >= 400 {
			spots = append(spots, fmt.Sprintf("%s is %d lines long", longest[i].Path, longest[i].LineCount))
		}
	}

	type fileSize struct {
		path string
		size int64
	}
	var heavy []fileSize
	for path, m := range report.Metrics.Files {
		if m.Size >= 200*1024 {
			heavy = append(heavy, fileSize{path, m.Size})
		}
	}
	sort.Slice(heavy, func(i, j int) bool { return heavy[i].size > heavy[j].size })
	for i := 0; i < len(heavy) && i < 3; i++ {
		spots = append(spots, fmt.Sprintf("%s weighs %d KiB", heavy[i].path, heavy[i].size/1024))
	}

	fanOut := report.DependencyInsights.FanOut
	for i := 0; i < len(fanOut) && i < 3; i++ {
		spots = append(spots, fmt.Sprintf("%s imports %d other modules", fanOut[i].Key, fanOut[i].Count))
	}
	fanIn := report.DependencyInsights.FanIn
	for i := 0; i < len(fanIn) && i < 3; i++ {
		spots = append(spots, fmt.Sprintf("%s is imported by %d modules", fanIn[i].Key, fanIn[i].Count))
	}

	if unresolved := len(report.Dependencies.Unresolved); unresolved > 0 {
		spots = append(spots, fmt.Sprintf("%d unresolved imports", unresolved))
	}

	todoTotal := 0
	for _, m := range report.Metrics.Files {
		todoTotal += m.TODOCount
	}
	if todoTotal > 0 {
		spots = append(spots, fmt.Sprintf("%d TODO/FIXME/HACK markers across the codebase", todoTotal))
	}

	return spots
}

func actions(report *types.Report) []string {
	var out []string
	seen := map[string]bool{}
	for _, iss := range report.Issues {
		if iss.Severity != types.SeverityError {
			continue
		}
		key := iss.Type + ":" + iss.Path
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, fmt.Sprintf("Fix %s in %s", iss.Type, iss.Path))
	}
	return out
}

func cloneSummary(report *types.Report) ([]string, []types.ClonesDetail) {
	symbolByID := map[string]types.Symbol{}
	for _, s := range report.StructureGraph.Symbols {
		symbolByID[s.ID] = s
	}

	var summary []string
	var details []types.ClonesDetail
	seenPair := map[string]bool{}

	sourceIDs := make([]string, 0, len(report.Clones))
	for id := range report.Clones {
		sourceIDs = append(sourceIDs, id)
	}
	sort.Strings(sourceIDs)

	for _, sourceID := range sourceIDs {
		source := symbolByID[sourceID]
		for _, entry := range report.Clones[sourceID] {
			pairKey := pairKey(sourceID, entry.TargetID)
			if seenPair[pairKey] {
				continue
			}
			seenPair[pairKey] = true

			target, hasTarget := symbolByID[entry.TargetID]
			targetStart, targetEnd := entry.StartLine, entry.EndLine
			if hasTarget {
				targetStart, targetEnd = target.StartLine, target.EndLine
			}
			pct := entry.Similarity * 100

			summary = append(summary, fmt.Sprintf(
				"%s — %s → %s — %s (%.0f%% similar) [%d-%d]",
				source.Name, source.Path, target.Name, entry.FilePath, pct, targetStart, targetEnd,
			))
			details = append(details, types.ClonesDetail{
				SourceID: sourceID, SourceName: source.Name, SourcePath: source.Path,
				SourceStartLine: source.StartLine, SourceEndLine: source.EndLine,
				TargetID: entry.TargetID, TargetName: target.Name, TargetPath: entry.FilePath,
				TargetStartLine: targetStart, TargetEndLine: targetEnd,
				Similarity: entry.Similarity,
			})
		}
	}
	return summary, details
}

func pairKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}

func metricsNarrative(report *types.Report) []string {
	var out []string
	totalLines := 0
	for _, m := range report.Metrics.Files {
		if m.LineCount != nil {
			totalLines += *m.LineCount
		}
	}
	out = append(out, fmt.Sprintf("%d total lines across %d analyzed files", totalLines, len(report.Metrics.Files)))
	return out
}
