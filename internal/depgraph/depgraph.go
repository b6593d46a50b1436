// Package depgraph implements the §4.3a dependency-resolution pass: regex
// extraction of import specifiers per language, followed by resolution of
// relative specifiers against the file set.
package depgraph

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/codeatlas/codeatlas/internal/types"
)

// jsImportRegexes covers static imports, dynamic imports, and require().
var jsImportRegexes = []*regexp.Regexp{
	regexp.MustCompile(`import\s+(?:[\w*{}\s,]+\s+from\s+)?['"]([^'"]+)['"]`),
	regexp.MustCompile(`import\(\s*['"]([^'"]+)['"]\s*\)`),
	regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`),
}

var pyImportRegexes = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*import\s+([\w.]+)`),
	regexp.MustCompile(`(?m)^\s*from\s+([\w.]+)\s+import\s+`),
}

var (
	goSingleImportRegex = regexp.MustCompile(`import\s+"([^"]+)"`)
	goBlockImportRegex  = regexp.MustCompile(`import\s*\(([^)]*)\)`)
	goQuotedLineRegex   = regexp.MustCompile(`"([^"]+)"`)
)

// Specifiers extracts the raw import specifiers referenced by one file's
// content, using the regex set for its language (§4.3a). Unknown languages
// yield no specifiers.
func Specifiers(language string, content []byte) []string {
	text := string(content)
	switch language {
	case "javascript", "typescript":
		var out []string
		for _, re := range jsImportRegexes {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				out = append(out, m[1])
			}
		}
		return out
	case "python":
		var out []string
		for _, re := range pyImportRegexes {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				out = append(out, m[1])
			}
		}
		return out
	case "go":
		var out []string
		for _, m := range goSingleImportRegex.FindAllStringSubmatch(text, -1) {
			out = append(out, m[1])
		}
		// Open question (spec.md §9): the parenthesized-import regex only
		// scans quoted lines inside the block; a commented-out import line
		// like "// \"fmt\"" is not filtered and is intentionally captured
		// too, preserving the reference behavior.
		for _, block := range goBlockImportRegex.FindAllStringSubmatch(text, -1) {
			for _, m := range goQuotedLineRegex.FindAllStringSubmatch(block[1], -1) {
				out = append(out, m[1])
			}
		}
		return out
	default:
		return nil
	}
}

// resolutionProbeExts is tried, in order, against a relative specifier that
// doesn't resolve exactly (§4.3a).
var resolutionProbeExts = []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".json"}

// IsRelative reports whether a specifier is a relative/absolute path
// reference rather than an external package name.
func IsRelative(specifier string) bool {
	return strings.HasPrefix(specifier, ".") || strings.HasPrefix(specifier, "/")
}

// Resolve attempts to match a relative specifier against fileSet (a set of
// all known file paths, forward-slash normalized, relative to root) by
// joining it against sourceDir and probing: exact path, path+each probe
// extension, then path/index.{ext}. The first hit wins.
func Resolve(sourceDir, specifier string, fileSet map[string]bool) (target string, ok bool) {
	joined := filepath.ToSlash(filepath.Join(sourceDir, specifier))

	if fileSet[joined] {
		return joined, true
	}
	for _, ext := range resolutionProbeExts {
		if fileSet[joined+ext] {
			return joined + ext, true
		}
	}
	for _, ext := range resolutionProbeExts {
		candidate := joined + "/index" + ext
		if fileSet[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// BuildInput is one file's raw material for dependency extraction.
type BuildInput struct {
	Path     string
	Language string
	Size     int64
	AbsPath  string
}

// ResolutionMap is (sourceFile, specifier) -> resolved local target file,
// the input the §4.3b export-usage pass needs.
type ResolutionMap map[string]map[string]string

// Build runs §4.3a over every file in files, producing the report's
// Dependencies plus a resolution map for the structure graph's import
// edges and the export-usage computation (§4.3b).
func Build(files []BuildInput, fileSet map[string]bool, maxFileSize int64) (types.Dependencies, ResolutionMap, []types.Issue) {
	deps := types.Dependencies{}
	resolution := ResolutionMap{}
	var issues []types.Issue

	nodeSet := map[string]bool{}
	for _, f := range files {
		nodeSet[f.Path] = true
	}
	deps.Nodes = sortedKeys(nodeSet)

	for _, f := range files {
		if f.Language != "javascript" && f.Language != "typescript" && f.Language != "python" && f.Language != "go" {
			continue
		}

		if f.Size > maxFileSize {
			deps.Unresolved = append(deps.Unresolved, types.UnresolvedImport{
				Source: f.Path,
				Reason: "File too large for dependency extraction",
			})
			continue
		}

		content, err := os.ReadFile(f.AbsPath)
		if err != nil {
			deps.Unresolved = append(deps.Unresolved, types.UnresolvedImport{
				Source: f.Path,
				Reason: "File read error: " + err.Error(),
			})
			continue
		}

		sourceDir := filepath.ToSlash(filepath.Dir(f.Path))
		specifiers := Specifiers(f.Language, content)

		for _, spec := range specifiers {
			if !IsRelative(spec) {
				deps.Edges = append(deps.Edges, types.DependencyEdge{
					Source: f.Path, Specifier: spec, Kind: "external",
				})
				continue
			}

			target, ok := Resolve(sourceDir, spec, fileSet)
			if !ok {
				deps.Unresolved = append(deps.Unresolved, types.UnresolvedImport{
					Source: f.Path, Specifier: spec,
					Reason: "Could not resolve relative specifier",
				})
				issues = append(issues, types.Issue{
					Category: types.IssueCategoryDependency,
					Severity: types.SeverityInfo,
					Path:     f.Path,
					Type:     "unresolved-import",
					Message:  "unresolved relative import " + spec,
				})
				continue
			}

			deps.Edges = append(deps.Edges, types.DependencyEdge{
				Source: f.Path, Target: target, Specifier: spec, Kind: "local",
			})
			if resolution[f.Path] == nil {
				resolution[f.Path] = map[string]string{}
			}
			resolution[f.Path][spec] = target
		}
	}

	return deps, resolution, issues
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
