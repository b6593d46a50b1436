// Package walker implements the bounded depth-first traversal specified in
// spec.md §4.1: an explicit-stack DFS from rootPath that records files and
// directories, skips ignored names, and stops once the configured entry
// cap is reached.
package walker

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/codeatlas/codeatlas/internal/config"
	"github.com/codeatlas/codeatlas/internal/types"
)

// Result is the walker's output: the flat file/directory lists plus any
// warnings collected along the way, in walk order (§5 ordering guarantee).
type Result struct {
	Files       []types.File
	Directories []types.Directory
	Warnings    []types.Warning
	Truncated   bool
}

// frame is one explicit-stack entry: a directory still to be visited, at a
// known depth relative to the root.
type frame struct {
	absPath string
	relPath string
	depth   int
}

// Walk traverses rootPath depth-first using an explicit stack (never
// recursion, per §4.1) and returns the files/directories/warnings it found.
func Walk(rootPath string, cfg config.Ignore, maxEntries int) (*Result, error) {
	res := &Result{}

	rootInfo, err := os.Stat(rootPath)
	if err != nil {
		return nil, err
	}
	if !rootInfo.IsDir() {
		return nil, &os.PathError{Op: "walk", Path: rootPath, Err: os.ErrInvalid}
	}

	ignoredDirNames, ignoredDirPaths := splitIgnorePatterns(cfg.Dirs)
	ignoredFiles := toSet(cfg.Files)

	res.Directories = append(res.Directories, types.Directory{
		Path:    ".",
		Name:    filepath.Base(rootPath),
		Depth:   0,
		ModTime: rootInfo.ModTime(),
	})

	stack := []frame{{absPath: rootPath, relPath: ".", depth: 0}}

	count := func() int { return len(res.Files) + len(res.Directories) }

	for len(stack) > 0 {
		if maxEntries > 0 && count() >= maxEntries {
			res.Truncated = true
			res.Warnings = append(res.Warnings, types.Warning{
				Type: types.WarningLimitReached,
				Path: stack[len(stack)-1].relPath,
			})
			break
		}

		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(top.absPath)
		if err != nil {
			res.Warnings = append(res.Warnings, types.Warning{
				Type:  types.WarningReadError,
				Path:  top.relPath,
				Error: err.Error(),
			})
			continue
		}

		for _, entry := range entries {
			name := entry.Name()
			absChild := filepath.Join(top.absPath, name)
			relChild := filepath.ToSlash(filepath.Join(top.relPath, name))

			if entry.IsDir() {
				if ignoredDirNames[name] || matchesIgnoredPath(relChild, ignoredDirPaths) {
					continue
				}
				info, err := entry.Info()
				if err != nil {
					res.Warnings = append(res.Warnings, types.Warning{
						Type:  types.WarningStatError,
						Path:  relChild,
						Error: err.Error(),
					})
					continue
				}
				if maxEntries > 0 && count() >= maxEntries {
					res.Truncated = true
					res.Warnings = append(res.Warnings, types.Warning{
						Type: types.WarningLimitReached,
						Path: relChild,
					})
					return finish(res)
				}
				res.Directories = append(res.Directories, types.Directory{
					Path:    relChild,
					Name:    name,
					Depth:   top.depth + 1,
					ModTime: info.ModTime(),
				})
				stack = append(stack, frame{absPath: absChild, relPath: relChild, depth: top.depth + 1})
				continue
			}

			if ignoredFiles[name] {
				continue
			}

			info, err := entry.Info()
			if err != nil {
				res.Warnings = append(res.Warnings, types.Warning{
					Type:  types.WarningStatError,
					Path:  relChild,
					Error: err.Error(),
				})
				continue
			}
			if maxEntries > 0 && count() >= maxEntries {
				res.Truncated = true
				res.Warnings = append(res.Warnings, types.Warning{
					Type: types.WarningLimitReached,
					Path: relChild,
				})
				return finish(res)
			}

			res.Files = append(res.Files, fileFromInfo(relChild, name, top.depth+1, info))
		}
	}

	return finish(res)
}

func finish(res *Result) (*Result, error) {
	return res, nil
}

func fileFromInfo(relPath, name string, depth int, info os.FileInfo) types.File {
	return types.File{
		Path:           relPath,
		Name:           name,
		Ext:            lowerExt(name),
		Size:           info.Size(),
		ModTime:        info.ModTime(),
		Depth:          depth,
		IsSymbolicLink: info.Mode()&os.ModeSymlink != 0,
	}
}

func lowerExt(name string) string {
	ext := filepath.Ext(name)
	out := make([]byte, len(ext))
	for i := 0; i < len(ext); i++ {
		c := ext[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// splitIgnorePatterns separates plain directory names ("node_modules"),
// matched via a set lookup, from multi-segment or glob path patterns
// ("ios/Pods", "**/build"), matched via doublestar, matching spec.md
// §4.1's mixed ignored-directory set verbatim.
func splitIgnorePatterns(names []string) (plain map[string]bool, paths []string) {
	plain = make(map[string]bool, len(names))
	for _, n := range names {
		if filepath.Base(n) != n {
			paths = append(paths, filepath.ToSlash(n))
			continue
		}
		plain[n] = true
	}
	return plain, paths
}

// matchesIgnoredPath reports whether relChild matches one of the
// multi-segment ignore patterns, either literally as a path suffix
// ("ios/Pods" matches ".../ios/Pods") or as a doublestar glob
// ("**/generated/*.go").
func matchesIgnoredPath(relChild string, patterns []string) bool {
	for _, p := range patterns {
		if relChild == p || (len(relChild) > len(p) && relChild[len(relChild)-len(p)-1] == '/' && relChild[len(relChild)-len(p):] == p) {
			return true
		}
		if ok, err := doublestar.Match(p, relChild); err == nil && ok {
			return true
		}
	}
	return false
}

// WalkTimed runs Walk and also reports elapsed wall-clock duration. The
// pipeline does not call it; it times its own Walk call for
// summary.totals.walkDurationMs (§4.1).
func WalkTimed(rootPath string, cfg config.Ignore, maxEntries int) (*Result, time.Duration, error) {
	start := time.Now()
	res, err := Walk(rootPath, cfg, maxEntries)
	return res, time.Since(start), err
}
