package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas/codeatlas/internal/types"
)

func sampleReport() *types.Report {
	lineCount := 500
	complexity := 40.0
	return &types.Report{
		Summary: types.Summary{
			Totals: types.Totals{Files: 4, Directories: 2},
			Languages: []types.LanguageStat{
				{Language: "javascript", Files: 3},
				{Language: "python", Files: 1},
			},
			LargestFiles: []types.SizedFile{{Path: "big.js", Size: 9000}},
			LongestFiles: []types.SizedFile{{Path: "long.js", LineCount: 500}},
		},
		StructureGraph: types.StructureGraph{
			Totals: map[string]int{"packages": 2, "files": 4, "symbols": 10},
			Symbols: []types.Symbol{
				{ID: "function:a.js#foo", Name: "foo", Path: "a.js", StartLine: 1, EndLine: 10},
				{ID: "function:b.js#bar", Name: "bar", Path: "b.js", StartLine: 1, EndLine: 10},
			},
		},
		Metrics: types.Metrics{
			Files: map[string]types.FileMetrics{
				"long.js": {LineCount: &lineCount, ComplexityScore: &complexity, Size: 250 * 1024, TODOCount: 2},
			},
		},
		DependencyInsights: types.DependencyInsights{
			ExternalPackages: []types.CountEntry{{Key: "react", Count: 5}},
			FanOut:           []types.CountEntry{{Key: "a.js", Count: 7}},
			FanIn:            []types.CountEntry{{Key: "util.js", Count: 9}},
		},
		Dependencies: types.Dependencies{
			Unresolved: []types.UnresolvedImport{{Source: "a.js", Specifier: "./missing"}},
		},
		Issues: []types.Issue{
			{Category: types.IssueCategorySmell, Severity: types.SeverityError, Path: "a.js", Type: "long-function"},
			{Category: types.IssueCategoryMetric, Severity: types.SeverityWarning, Path: "b.js", Type: "large-file"},
		},
		Clones: map[string][]types.CloneEntry{
			"function:a.js#foo": {{TargetID: "function:b.js#bar", FilePath: "b.js", StartLine: 1, EndLine: 10, Similarity: 0.8}},
			"function:b.js#bar": {{TargetID: "function:a.js#foo", FilePath: "a.js", StartLine: 1, EndLine: 10, Similarity: 0.8}},
		},
	}
}

func TestBuild_OverviewMentionsDominantLanguage(t *testing.T) {
	n := Build(sampleReport(), 120)
	assert.Contains(t, n.Overview, "4 files")
	assert.Contains(t, n.Overview, "javascript")
}

func TestBuild_KeyFactsIncludesLanguageMixAndSeverity(t *testing.T) {
	n := Build(sampleReport(), 10)
	joined := ""
	for _, f := range n.KeyFacts {
		joined += f + "\n"
	}
	assert.Contains(t, joined, "javascript")
	assert.Contains(t, joined, "errors")
}

func TestBuild_HotspotsIncludeComplexityAndTODO(t *testing.T) {
	n := Build(sampleReport(), 10)
	joined := ""
	for _, h := range n.Hotspots {
		joined += h + "\n"
	}
	assert.Contains(t, joined, "long.js")
	assert.Contains(t, joined, "unresolved")
	assert.Contains(t, joined, "TODO")
}

func TestBuild_ActionsOnlyFromErrorIssues(t *testing.T) {
	n := Build(sampleReport(), 10)
	require.Len(t, n.Actions, 1)
	assert.Contains(t, n.Actions[0], "long-function")
}

func TestBuild_CloneSummaryDeduplicatesPair(t *testing.T) {
	n := Build(sampleReport(), 10)
	require.Len(t, n.Clones, 1)
	require.Len(t, n.ClonesDetails, 1)
	assert.Equal(t, 0.8, n.ClonesDetails[0].Similarity)
	assert.Contains(t, n.Clones[0], "80% similar")
}

func TestBuild_EmptyReportOverview(t *testing.T) {
	n := Build(&types.Report{}, 0)
	assert.Equal(t, "No notable architectural facts detected.", n.Overview)
}
