package clones

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas/codeatlas/internal/types"
)

func fnSymbol(id, path, language, text string, startLine int) types.Symbol {
	lines := 1
	for _, c := range text {
		if c == '\n' {
			lines++
		}
	}
	return types.Symbol{
		ID: id, FileID: "file:" + path, Name: id, Kind: types.SymbolFunction,
		Path: path, Language: language, StartLine: startLine, EndLine: startLine + lines - 1,
		Text: text,
	}
}

const sampleBody = `function add(a, b) {
  let total = a + b;
  if (total > 100) {
    total = 100;
  }
  return total;
}`

func TestDetect_IdenticalFunctionsAreExactClones(t *testing.T) {
	a := fnSymbol("function:a.js#add", "a.js", "javascript", sampleBody, 1)
	b := fnSymbol("function:b.js#add2", "b.js", "javascript", sampleBody, 10)

	entries := Detect([]types.Symbol{a, b}, Limits{})

	require.Contains(t, entries, a.ID)
	require.Len(t, entries[a.ID], 1)
	assert.Equal(t, b.ID, entries[a.ID][0].TargetID)
	assert.Equal(t, 1.0, entries[a.ID][0].Similarity)

	require.Contains(t, entries, b.ID)
	assert.Equal(t, a.ID, entries[b.ID][0].TargetID)
}

func TestDetect_RenamedIdentifiersStillMatch(t *testing.T) {
	renamed := `function sum(x, y) {
  let result = x + y;
  if (result > 100) {
    result = 100;
  }
  return result;
}`
	a := fnSymbol("function:a.js#add", "a.js", "javascript", sampleBody, 1)
	b := fnSymbol("function:b.js#sum", "b.js", "javascript", renamed, 1)

	entries := Detect([]types.Symbol{a, b}, Limits{})
	require.Contains(t, entries, a.ID)
	assert.GreaterOrEqual(t, entries[a.ID][0].Similarity, similarityThreshold)
}

func TestDetect_UnrelatedFunctionsNotClones(t *testing.T) {
	a := fnSymbol("function:a.js#add", "a.js", "javascript", sampleBody, 1)
	other := `function greet(name) {
  console.log("hello " + name);
  return name.toUpperCase();
}`
	b := fnSymbol("function:b.js#greet", "b.js", "javascript", other, 1)

	entries := Detect([]types.Symbol{a, b}, Limits{})
	assert.Empty(t, entries[a.ID])
	assert.Empty(t, entries[b.ID])
}

func TestDetect_DifferentLanguagesSkipped(t *testing.T) {
	a := fnSymbol("function:a.js#add", "a.js", "javascript", sampleBody, 1)
	b := fnSymbol("function:b.py#add", "b.py", "python", sampleBody, 1)

	entries := Detect([]types.Symbol{a, b}, Limits{})
	assert.Empty(t, entries[a.ID])
}

func TestDetect_TooFewTokensSkipped(t *testing.T) {
	a := fnSymbol("function:a.js#f", "a.js", "javascript", "function f(x) { x }", 1)
	entries := Detect([]types.Symbol{a}, Limits{})
	assert.Empty(t, entries)
}

func TestPrepare_RejectsBelowMinTokens(t *testing.T) {
	_, ok := prepare(fnSymbol("function:a.js#f", "a.js", "javascript", "a b", 1))
	assert.False(t, ok)
}

func TestFingerprint_WinnowsWithinWindow(t *testing.T) {
	tokens := []string{"a", "b", "c", "d", "e", "f", "g"}
	fp := fingerprint(tokens)
	assert.NotEmpty(t, fp)
	for _, idxs := range fp {
		assert.LessOrEqual(t, len(idxs), maxFingerprintIdx)
	}
}

func TestMergeIntervals_CombinesOverlapping(t *testing.T) {
	merged := mergeIntervals([]interval{{0, 3}, {2, 5}, {10, 12}})
	require.Len(t, merged, 2)
	assert.Equal(t, interval{0, 5}, merged[0])
	assert.Equal(t, interval{10, 12}, merged[1])
}

func TestDiceSimilarity_IdenticalCountsIsOne(t *testing.T) {
	counts := map[string]int{"a": 2, "b": 1}
	assert.Equal(t, 1.0, diceSimilarity(counts, counts, 3, 3))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.56, round2(0.5551))
	assert.Equal(t, 1.0, round2(1.0))
}
