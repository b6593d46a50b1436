// Package pipeline wires every analysis stage into the single-request DAG
// from spec.md §2: Walker -> Tree, Metrics -> Dependency Graph -> Structure
// Graph -> {Clones, Smells} -> Narrative.
package pipeline

import (
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codeatlas/codeatlas/internal/clones"
	"github.com/codeatlas/codeatlas/internal/config"
	"github.com/codeatlas/codeatlas/internal/depgraph"
	atlaserrors "github.com/codeatlas/codeatlas/internal/errors"
	"github.com/codeatlas/codeatlas/internal/lang"
	"github.com/codeatlas/codeatlas/internal/metrics"
	"github.com/codeatlas/codeatlas/internal/narrative"
	"github.com/codeatlas/codeatlas/internal/smells"
	"github.com/codeatlas/codeatlas/internal/structuregraph"
	"github.com/codeatlas/codeatlas/internal/astparse"
	"github.com/codeatlas/codeatlas/internal/treebuilder"
	"github.com/codeatlas/codeatlas/internal/types"
	"github.com/codeatlas/codeatlas/internal/walker"
)

// Analyze runs the full pipeline over cfg.Project.Root and returns the
// assembled report. The only error that propagates is root-invalid (§7);
// every other failure is captured as a Warning or Issue inside the report.
func Analyze(cfg *config.Config) (*types.Report, error) {
	root := cfg.Project.Root
	info, err := os.Stat(root)
	if err != nil {
		return nil, atlaserrors.NewRootInvalid(root, err)
	}
	if !info.IsDir() {
		return nil, atlaserrors.NewRootInvalid(root, os.ErrInvalid)
	}

	start := time.Now()
	walkResult, err := walker.Walk(root, cfg.Ignore, cfg.Walk.MaxEntries)
	if err != nil {
		return nil, atlaserrors.NewRootInvalid(root, err)
	}
	walkMs := time.Since(start).Milliseconds()

	tree := treebuilder.Build(walkResult.Directories, walkResult.Files)

	// §4.5a is safe to parallelize per §5: each file's metrics.Compute call
	// only reads that one file, and results are merged back in walk order
	// once every goroutine has finished, so the merge itself stays
	// deterministic regardless of completion order.
	var issues []types.Issue
	metricsByFile := map[string]types.FileMetrics{}
	metricsResults := make([]metrics.Result, len(walkResult.Files))
	{
		var g errgroup.Group
		for i, f := range walkResult.Files {
			i, f := i, f
			g.Go(func() error {
				abs := filepath.Join(root, filepath.FromSlash(f.Path))
				metricsResults[i] = metrics.Compute(abs, f.Path, f.Size, f.Ext, cfg.Metrics.MaxFileSize)
				return nil
			})
		}
		_ = g.Wait()
	}
	for i, f := range walkResult.Files {
		metricsByFile[f.Path] = metricsResults[i].Metrics
		issues = append(issues, metricsResults[i].Issues...)
	}

	fileSet := map[string]bool{}
	depInputs := make([]depgraph.BuildInput, 0, len(walkResult.Files))
	for _, f := range walkResult.Files {
		fileSet[f.Path] = true
		depInputs = append(depInputs, depgraph.BuildInput{
			Path:     f.Path,
			Language: lang.Of(f.Ext),
			Size:     f.Size,
			AbsPath:  filepath.Join(root, filepath.FromSlash(f.Path)),
		})
	}
	deps, resolution, depIssues := depgraph.Build(depInputs, fileSet, cfg.Dependency.MaxFileSize)
	issues = append(issues, depIssues...)
	insights := depgraph.Insights(deps)

	fileSymbols := make([]structuregraph.FileSymbols, 0, len(walkResult.Files))
	for _, f := range walkResult.Files {
		if f.Size > cfg.AST.MaxFileBytes {
			continue
		}
		abs := filepath.Join(root, filepath.FromSlash(f.Path))
		content, err := os.ReadFile(abs)
		if err != nil {
			issues = append(issues, types.Issue{
				Category: types.IssueCategoryFilesystem,
				Severity: types.SeverityWarning,
				Path:     f.Path,
				Type:     "file-read-error",
				Message:  err.Error(),
			})
			continue
		}

		language := lang.Of(f.Ext)
		fs := structuregraph.FileSymbols{Path: f.Path}

		if lang.IsJSFamily(f.Ext) {
			if result, ok := astparse.Parse(f.Path, language, f.Ext, content, cfg.AST.MaxFileBytes, int(cfg.AST.SnippetCap)); ok {
				fs.Symbols = result.Symbols
				fs.Exports = result.Exports
				fs.Imports = result.Imports
				fs.Calls = result.IncomingCalls
			} else {
				fs.Symbols = []types.Symbol{astparse.FallbackSymbol(f.Path, language, content)}
			}
		} else {
			fs.Symbols = []types.Symbol{astparse.FallbackSymbol(f.Path, language, content)}
		}

		fileSymbols = append(fileSymbols, fs)
	}

	graph := structuregraph.Build(walkResult.Files, fileSymbols, deps.Edges, resolution)

	cloneEntries := clones.Detect(graph.Symbols, clones.Limits{
		MaxPairs:          cfg.Clone.MaxPairs,
		MaxMatchesPerPair: cfg.Clone.MaxMatchesPerPair,
	})

	for _, sym := range graph.Symbols {
		issues = append(issues, smells.Detect(sym)...)
	}

	// Symbol text feeds only clones/smells; drop it before emission (§3
	// lifecycle: "Symbol text is dropped from the final report").
	for i := range graph.Symbols {
		graph.Symbols[i].Text = ""
	}

	report := &types.Report{
		RootPath:           root,
		GeneratedAt:        time.Now().UTC(),
		Summary:            buildSummary(walkResult.Files, walkResult.Warnings, len(walkResult.Directories), walkResult.Truncated, walkMs, metricsByFile),
		FileTree:           tree,
		Dependencies:       deps,
		DependencyInsights: insights,
		StructureGraph:     graph,
		Clones:             cloneEntries,
		Metrics:            types.Metrics{Files: metricsByFile},
		Issues:             issues,
	}
	report.Narrative = narrative.Build(report, walkMs)

	return report, nil
}
