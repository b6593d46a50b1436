// Package structuregraph implements §4.3 of the pipeline: the cross-file
// package/file/symbol graph, its contains/defines/import edges, incoming
// call counts, and the §4.3b export-usage computation.
package structuregraph

import (
	"path"
	"sort"
	"strings"

	"github.com/codeatlas/codeatlas/internal/depgraph"
	"github.com/codeatlas/codeatlas/internal/types"
)

// FileSymbols bundles one file's §4.2 AST-pass output for the structure
// graph to consume; non-JS/TS files contribute a single fallback symbol
// and empty exports/imports/calls.
type FileSymbols struct {
	Path    string
	Symbols []types.Symbol
	Exports types.ExportSet
	Imports []types.ImportDescriptor
	Calls   map[string]map[string]bool // calleeID -> callerIDs, intra-file only
}

// Build assembles the structure graph from the walk's file list, the
// per-file AST results, the resolved local dependency edges, and the
// dependency pass's specifier resolution map.
func Build(files []types.File, fileSymbols []FileSymbols, localEdges []types.DependencyEdge, resolution depgraph.ResolutionMap) types.StructureGraph {
	g := types.StructureGraph{
		Totals:        map[string]int{},
		IncomingCalls: map[string]int{},
		Exports:       map[string][]string{},
		ExportUsage:   map[string]int{},
	}

	packages := map[string]bool{}
	for _, f := range files {
		if pkg := packageOf(f.Path); pkg != "" {
			packages[pkg] = true
		}
	}
	pkgNames := sortedKeys(packages)
	for _, pkg := range pkgNames {
		g.Nodes = append(g.Nodes, types.StructureNode{
			Kind: types.NodePackage, ID: "package:" + pkg, Name: pkg,
		})
	}

	for _, f := range files {
		g.Nodes = append(g.Nodes, types.StructureNode{
			Kind: types.NodeFile, ID: "file:" + f.Path, Name: f.Name, Path: f.Path,
		})
		if pkg := packageOf(f.Path); pkg != "" {
			g.Edges = append(g.Edges, types.Edge{
				Source: "package:" + pkg, Target: "file:" + f.Path, Type: types.EdgeContains,
			})
		}
	}

	exportsByFile := map[string]types.ExportSet{}
	for _, fs := range fileSymbols {
		exportsByFile[fs.Path] = fs.Exports
		if len(fs.Exports) > 0 {
			g.Exports[fs.Path] = sortedKeys(fs.Exports)
		}
		for _, sym := range fs.Symbols {
			g.Symbols = append(g.Symbols, sym)
			g.Nodes = append(g.Nodes, types.StructureNode{
				Kind: types.NodeSymbol, ID: sym.ID, Name: sym.Name, Path: sym.Path,
			})
			g.Edges = append(g.Edges, types.Edge{
				Source: "file:" + fs.Path, Target: sym.ID, Type: types.EdgeDefines,
			})
		}
		for calleeID, callers := range fs.Calls {
			g.IncomingCalls[calleeID] += len(callers)
		}
	}

	for _, e := range localEdges {
		if e.Kind != "local" || e.Target == "" {
			continue
		}
		g.Edges = append(g.Edges, types.Edge{
			Source: "file:" + e.Source, Target: "file:" + e.Target, Type: types.EdgeImport,
		})
	}

	g.ExportUsage = computeExportUsage(fileSymbols, resolution, exportsByFile)

	g.Totals["packages"] = len(pkgNames)
	g.Totals["files"] = len(files)
	g.Totals["symbols"] = len(g.Symbols)

	return g
}

// packageOf returns a file's package node name: its first path segment,
// unless the path has no directory component or that segment is "." or
// dot-prefixed.
func packageOf(p string) string {
	clean := strings.TrimPrefix(path.Clean(p), "./")
	idx := strings.Index(clean, "/")
	if idx < 0 {
		return ""
	}
	first := clean[:idx]
	if first == "" || first == "." || strings.HasPrefix(first, ".") {
		return ""
	}
	return first
}

// computeExportUsage implements §4.3b: for every file's import descriptors,
// credit the resolved target's matching export names, once per importing
// file regardless of how many times that file imports the same name.
func computeExportUsage(fileSymbols []FileSymbols, resolution depgraph.ResolutionMap, exportsByFile map[string]types.ExportSet) map[string]int {
	credited := map[string]map[string]bool{} // "target#name" -> importer file set

	for _, fs := range fileSymbols {
		bySpecifier := resolution[fs.Path]
		for _, imp := range fs.Imports {
			target, ok := bySpecifier[imp.Specifier]
			if !ok {
				continue
			}
			targetExports := exportsByFile[target]
			if len(targetExports) == 0 {
				continue
			}
			if imp.HasNamespace {
				for name := range targetExports {
					credit(credited, target, name, fs.Path)
				}
				continue
			}
			for name := range imp.Names {
				if targetExports[name] {
					credit(credited, target, name, fs.Path)
				}
			}
		}
	}

	usage := make(map[string]int, len(credited))
	for key, importers := range credited {
		usage[key] = len(importers)
	}
	return usage
}

func credit(credited map[string]map[string]bool, target, name, importer string) {
	key := target + "#" + name
	if credited[key] == nil {
		credited[key] = map[string]bool{}
	}
	credited[key][importer] = true
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
