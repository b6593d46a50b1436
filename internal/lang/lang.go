// Package lang maps file extensions to the language identifiers used
// throughout the pipeline (metrics, dependency extraction, the AST pass,
// and the clone detector's language-compatibility check in spec.md §4.4).
package lang

import "strings"

// byExt maps a lowercase extension (including the leading dot) to a
// canonical language name.
var byExt = map[string]string{
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".py":    "python",
	".go":    "go",
	".rb":    "ruby",
	".java":  "java",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".rs":    "rust",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
	".json":  "json",
	".yml":   "yaml",
	".yaml":  "yaml",
	".md":    "markdown",
	".html":  "html",
	".css":   "css",
	".sh":    "shell",
}

// JSFamilyExts are the extensions the §4.2 AST pass covers with a real
// tree-sitter parser.
var JSFamilyExts = map[string]bool{
	".js": true, ".jsx": true, ".mjs": true, ".cjs": true, ".ts": true, ".tsx": true,
}

// Of returns the language for a given lowercase extension, or "" if unknown.
func Of(ext string) string {
	return byExt[strings.ToLower(ext)]
}

// IsJSFamily reports whether ext belongs to the JS/TypeScript family.
func IsJSFamily(ext string) bool {
	return JSFamilyExts[strings.ToLower(ext)]
}

// Normalize implements the §4.4 language-compatibility rule: every member
// of the JS/TS family collapses to "js-family"; everything else is
// lowercased as-is.
func Normalize(language string) string {
	switch strings.ToLower(language) {
	case "javascript", "typescript", "js", "ts", "jsx", "tsx":
		return "js-family"
	default:
		return strings.ToLower(language)
	}
}
