// Package config defines the pipeline's configuration surface (spec.md §6)
// and loads it from a ".codeatlas.kdl" file using the kdl-go document
// model.
package config

// Project identifies the root being analyzed.
type Project struct {
	Root string
	Name string
}

// Walk controls the §4.1 traversal.
type Walk struct {
	MaxEntries int // default 2000
}

// Metrics controls the §4.5a metrics pass.
type Metrics struct {
	MaxFileSize int64 // bytes; default 512 KiB
}

// Dependency controls the §4.3a dependency-extraction pass.
type Dependency struct {
	MaxFileSize int64 // bytes; default 256 KiB
}

// AST controls the §4.2 parsing/symbol-extraction pass.
type AST struct {
	MaxFileBytes int64 // default 256 KiB
	SnippetCap   int64 // per-symbol text cap; default 128 KiB
}

// Clone holds the §4.4 near-duplicate detector settings. Only MaxPairs and
// MaxMatchesPerPair are passed to the detector (clones.Limits); Threshold,
// ShingleSize, WindowSize, MaxTokens and MaxFingerprintIdx are parsed and
// validated but have no effect, since the detector uses its own fixed
// values (0.55, 3, 4, 5000 and 64).
type Clone struct {
	Threshold         float64 // default 0.55
	ShingleSize       int     // k; default 3
	WindowSize        int     // w; default 4
	MaxPairs          int     // default 250000
	MaxMatchesPerPair int     // default 200
	MaxTokens         int     // default 5000
	MaxFingerprintIdx int     // indices kept per hash; default 64
}

// Ignore holds the directory/file name sets the walker skips (§4.1).
type Ignore struct {
	Dirs  []string
	Files []string
}

// Snippet bounds the §6 source-snippet interface.
type Snippet struct {
	MinBytes int64 // default 1 KiB
	MaxBytes int64 // default 512 KiB
}

// Config is the full configuration surface recognized by the pipeline.
type Config struct {
	Project    Project
	Walk       Walk
	Metrics    Metrics
	Dependency Dependency
	AST        AST
	Clone      Clone
	Ignore     Ignore
	Snippet    Snippet
}

const (
	kib = int64(1024)
)

// DefaultIgnoredDirs is the ignored-directory name set from spec.md §4.1.
var DefaultIgnoredDirs = []string{
	".git", ".hg", ".svn", "node_modules", "vendor", "dist", "build",
	".cache", ".next", ".nuxt", ".idea", ".vscode", "coverage",
	"__pycache__", "ios/Pods",
}

// DefaultIgnoredFiles is the ignored-file name set from spec.md §4.1.
var DefaultIgnoredFiles = []string{".DS_Store", "Thumbs.db"}

// Default returns the configuration spec.md §6 specifies when no config
// file overrides a value.
func Default(root string) *Config {
	return &Config{
		Project: Project{Root: root},
		Walk:    Walk{MaxEntries: 2000},
		Metrics: Metrics{MaxFileSize: 512 * kib},
		Dependency: Dependency{
			MaxFileSize: 256 * kib,
		},
		AST: AST{
			MaxFileBytes: 256 * kib,
			SnippetCap:   128 * kib,
		},
		Clone: Clone{
			Threshold:         0.55,
			ShingleSize:       3,
			WindowSize:        4,
			MaxPairs:          250000,
			MaxMatchesPerPair: 200,
			MaxTokens:         5000,
			MaxFingerprintIdx: 64,
		},
		Ignore: Ignore{
			Dirs:  append([]string(nil), DefaultIgnoredDirs...),
			Files: append([]string(nil), DefaultIgnoredFiles...),
		},
		Snippet: Snippet{
			MinBytes: 1 * kib,
			MaxBytes: 512 * kib,
		},
	}
}
