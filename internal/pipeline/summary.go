package pipeline

import (
	"sort"

	"github.com/codeatlas/codeatlas/internal/types"
)

// topFiles is the length of summary.largestFiles/longestFiles — spec.md §6
// names the fields without pinning a count; we take the same top-5 convention
// the dependency-insights lists use (SPEC_FULL.md §12).
const topFiles = 5

func buildSummary(files []types.File, warnings []types.Warning, dirCount int, truncated bool, walkMs int64, metricsByFile map[string]types.FileMetrics) types.Summary {
	langStats := map[string]*types.LanguageStat{}
	var largest, longest []types.SizedFile

	for _, f := range files {
		m := metricsByFile[f.Path]
		lang := m.Language
		if lang == "" {
			lang = "unknown"
		}

		stat := langStats[lang]
		if stat == nil {
			stat = &types.LanguageStat{Language: lang}
			langStats[lang] = stat
		}
		stat.Files++
		stat.Bytes += f.Size
		if m.LineCount != nil {
			stat.Lines += *m.LineCount
		}

		largest = append(largest, types.SizedFile{Path: f.Path, Size: f.Size, Language: lang})
		if m.LineCount != nil {
			longest = append(longest, types.SizedFile{Path: f.Path, LineCount: *m.LineCount})
		}
	}

	languages := make([]types.LanguageStat, 0, len(langStats))
	for _, s := range langStats {
		languages = append(languages, *s)
	}
	sort.Slice(languages, func(i, j int) bool {
		if languages[i].Files != languages[j].Files {
			return languages[i].Files > languages[j].Files
		}
		return languages[i].Language < languages[j].Language
	})

	sort.Slice(largest, func(i, j int) bool {
		if largest[i].Size != largest[j].Size {
			return largest[i].Size > largest[j].Size
		}
		return largest[i].Path < largest[j].Path
	})
	if len(largest) > topFiles {
		largest = largest[:topFiles]
	}

	sort.Slice(longest, func(i, j int) bool {
		if longest[i].LineCount != longest[j].LineCount {
			return longest[i].LineCount > longest[j].LineCount
		}
		return longest[i].Path < longest[j].Path
	})
	if len(longest) > topFiles {
		longest = longest[:topFiles]
	}

	return types.Summary{
		Totals: types.Totals{
			Directories:    dirCount,
			Files:          len(files),
			Truncated:      truncated,
			WalkDurationMs: walkMs,
		},
		Languages:     languages,
		LargestFiles:  largest,
		LongestFiles:  longest,
		WarningsCount: len(warnings),
	}
}
