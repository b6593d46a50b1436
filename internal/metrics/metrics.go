// Package metrics implements the per-file quality pass from spec.md §4.5a:
// line counts, a regex-based complexity score, TODO counts, and the
// size/complexity/TODO issues derived from them.
package metrics

import (
	"os"
	"regexp"

	"github.com/codeatlas/codeatlas/internal/lang"
	"github.com/codeatlas/codeatlas/internal/types"
)

var (
	lineSplitRe    = regexp.MustCompile(`\r?\n`)
	decisionPtRe   = regexp.MustCompile(`\b(if|else if|for|while|case|catch|throw|function|class|=>|switch)\b`)
	todoRe         = regexp.MustCompile(`\b(TODO|FIXME|HACK|XXX)\b`)
)

// Result bundles one file's metrics with the issues it produced.
type Result struct {
	Metrics types.FileMetrics
	Issues  []types.Issue
}

// Compute implements §4.5a for a single file. maxFileSize is the
// metrics-pass size ceiling (default 512 KiB); files larger than it are
// skipped and reported via a file-too-large info issue.
func Compute(absPath, relPath string, size int64, ext string, maxFileSize int64) Result {
	language := lang.Of(ext)

	if size > maxFileSize {
		return Result{
			Metrics: types.FileMetrics{Language: language, Size: size, Skipped: true},
			Issues: []types.Issue{{
				Category: types.IssueCategoryMetric,
				Severity: types.SeverityInfo,
				Path:     relPath,
				Type:     "file-too-large",
				Message:  "file exceeds the metrics size limit and was skipped",
			}},
		}
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return Result{
			Metrics: types.FileMetrics{Language: language, Size: size, Skipped: true},
			Issues: []types.Issue{{
				Category: types.IssueCategoryMetric,
				Severity: types.SeverityWarning,
				Path:     relPath,
				Type:     "file-read-error",
				Message:  err.Error(),
			}},
		}
	}

	return ComputeFromContent(relPath, language, size, content)
}

// ComputeFromContent runs the metrics computation over content already in
// memory; Compute calls it after reading the file, and tests call it
// directly without touching the filesystem.
func ComputeFromContent(relPath, language string, size int64, content []byte) Result {
	text := string(content)
	lines := lineSplitRe.Split(text, -1)
	lineCount := len(lines)
	if lineCount > 0 && lines[lineCount-1] == "" {
		lineCount--
	}

	decisionPoints := len(decisionPtRe.FindAllStringIndex(text, -1))
	todoCount := len(todoRe.FindAllStringIndex(text, -1))

	var complexity *float64
	if lineCount > 0 {
		score := round2(float64(decisionPoints) / float64(lineCount) * 100)
		complexity = &score
	}

	lc := lineCount
	metrics := types.FileMetrics{
		Language:        language,
		Size:            size,
		LineCount:       &lc,
		ComplexityScore: complexity,
		TODOCount:       todoCount,
	}

	var issues []types.Issue
	if lineCount > 300 {
		issues = append(issues, types.Issue{
			Category: types.IssueCategoryMetric,
			Severity: types.SeverityWarning,
			Path:     relPath,
			Type:     "large-file",
			Message:  "file exceeds 300 lines",
		})
	}
	if complexity != nil && *complexity > 35 {
		issues = append(issues, types.Issue{
			Category: types.IssueCategoryMetric,
			Severity: types.SeverityWarning,
			Path:     relPath,
			Type:     "high-complexity",
			Message:  "file's decision-point density exceeds 35%",
		})
	}
	if todoCount > 0 {
		issues = append(issues, types.Issue{
			Category: types.IssueCategoryMetric,
			Severity: types.SeverityInfo,
			Path:     relPath,
			Type:     "todo-comments",
			Message:  "file contains TODO/FIXME/HACK/XXX markers",
		})
	}

	return Result{Metrics: metrics, Issues: issues}
}

func round2(v float64) float64 {
	const p = 100
	if v < 0 {
		return -round2(-v)
	}
	return float64(int64(v*p+0.5)) / p
}
