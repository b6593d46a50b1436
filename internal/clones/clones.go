// Package clones implements §4.4's near-duplicate detector: comment-stripped
// tokenization, k-gram rolling-hash winnowing for candidate matching, and a
// segment-overlap/Dice similarity score over every pair of function-like
// symbols in the project.
package clones

import (
	"regexp"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/codeatlas/codeatlas/internal/lang"
	"github.com/codeatlas/codeatlas/internal/types"
)

const (
	kgram               = 3
	window              = 4
	hashPrime           = 1_000_003
	tokenMultiplier     = 31
	separatorMix        = 131
	minTokens           = 5
	maxTokens           = 5000
	maxFingerprintIdx   = 64
	similarityThreshold = 0.55
)

// Limits carries the pairwise-comparison bounds (spec.md §4.4's MAX_PAIRS and
// MAX_MATCHES_PER_PAIR) so callers can source them from config.
type Limits struct {
	MaxPairs          int
	MaxMatchesPerPair int
}

var (
	tokenRe         = regexp.MustCompile(`[A-Za-z0-9_]+`)
	blockCommentRe  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRe   = regexp.MustCompile(`//[^\n]*`)
)

// interval is an inclusive token-index range used for both the winnowed
// k-gram match extension and the merged-segment overlap accounting.
type interval struct{ start, end int }

// prepared holds one function-like symbol's tokenized, fingerprinted form.
type prepared struct {
	symbol      types.Symbol
	language    string
	tokens      []string
	offsets     []int // stripped-text byte offset of each token
	lengths     []int
	lineStarts  []int // cumulative '\n' offsets, for offset->line lookups
	fingerprint map[uint64][]int
	counts      map[string]int
	contentHash uint64
}

// Detect runs the near-duplicate pass over every function-like symbol,
// returning directed clone entries keyed by the source symbol's ID. Both
// directions of a matching pair get an entry, each pointing at the other.
func Detect(symbols []types.Symbol, limits Limits) map[string][]types.CloneEntry {
	prep := make([]prepared, 0, len(symbols))
	for _, s := range symbols {
		if !s.IsFunctionLike() {
			continue
		}
		if p, ok := prepare(s); ok {
			prep = append(prep, p)
		}
	}

	maxPairs := limits.MaxPairs
	if maxPairs <= 0 {
		maxPairs = 250000
	}
	maxMatches := limits.MaxMatchesPerPair
	if maxMatches <= 0 {
		maxMatches = 200
	}

	result := map[string][]types.CloneEntry{}
	pairs := 0
	for i := 0; i < len(prep); i++ {
		for j := i + 1; j < len(prep); j++ {
			if pairs >= maxPairs {
				return result
			}
			pairs++

			a, b := prep[i], prep[j]
			if lang.Normalize(a.language) != lang.Normalize(b.language) {
				continue
			}

			similarity, aRange, bRange := compare(a, b, maxMatches)
			if similarity < similarityThreshold {
				continue
			}
			similarity = round2(similarity)

			result[a.symbol.ID] = append(result[a.symbol.ID], types.CloneEntry{
				TargetID: b.symbol.ID, FilePath: b.symbol.Path,
				StartLine: bRange[0], EndLine: bRange[1], Similarity: similarity,
			})
			result[b.symbol.ID] = append(result[b.symbol.ID], types.CloneEntry{
				TargetID: a.symbol.ID, FilePath: a.symbol.Path,
				StartLine: aRange[0], EndLine: aRange[1], Similarity: similarity,
			})
		}
	}
	return result
}

// prepare strips comments, tokenizes (capped at maxTokens, rejecting a
// symbol below minTokens), and builds the winnowed k-gram fingerprint plus
// the token multiset used for the Dice fallback.
func prepare(s types.Symbol) (prepared, bool) {
	stripped := stripComments(s.Text)
	matches := tokenRe.FindAllStringIndex(stripped, -1)

	tokens := make([]string, 0, len(matches))
	offsets := make([]int, 0, len(matches))
	lengths := make([]int, 0, len(matches))
	for _, m := range matches {
		raw := stripped[m[0]:m[1]]
		if raw == "_" {
			continue
		}
		tokens = append(tokens, strings.ToLower(raw))
		offsets = append(offsets, m[0])
		lengths = append(lengths, m[1]-m[0])
		if len(tokens) >= maxTokens {
			break
		}
	}
	if len(tokens) < minTokens {
		return prepared{}, false
	}

	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}

	return prepared{
		symbol:      s,
		language:    s.Language,
		tokens:      tokens,
		offsets:     offsets,
		lengths:     lengths,
		lineStarts:  lineStarts(s.Text),
		fingerprint: fingerprint(tokens),
		counts:      counts,
		contentHash: xxhash.Sum64String(strings.Join(tokens, " ")),
	}, true
}

// stripComments blanks out // and /* */ comment bodies while preserving
// newlines, so later byte offsets still map onto the symbol's original
// line numbers.
func stripComments(text string) string {
	text = blockCommentRe.ReplaceAllStringFunc(text, blankPreservingNewlines)
	text = lineCommentRe.ReplaceAllStringFunc(text, blankPreservingNewlines)
	return text
}

func blankPreservingNewlines(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c != '\n' {
			b[i] = ' '
		}
	}
	return string(b)
}

func lineStarts(text string) []int {
	starts := make([]int, 1, 16)
	starts[0] = 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineForOffset returns the 1-based line, within the text lineStarts was
// built from, that contains the given byte offset.
func lineForOffset(starts []int, offset int) int {
	lo, hi := 0, len(starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if starts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

// kgramHash folds a window of kgram consecutive tokens into one hash:
// character-wise multiply-accumulate (multiplier 31) within each token,
// mixed across token boundaries with separatorMix (131), all mod hashPrime.
func kgramHash(tokens []string, start int) uint64 {
	var h uint64
	for i := start; i < start+kgram; i++ {
		for _, c := range tokens[i] {
			h = (h*tokenMultiplier + uint64(c)) % hashPrime
		}
		if i < start+kgram-1 {
			h = (h*separatorMix + 1) % hashPrime
		}
	}
	return h
}

// fingerprint winnows the k-gram hash sequence with a window of `window`,
// keeping the minimum-hash k-gram per window (latest index wins ties) and
// suppressing a selection repeated from the previous window. Sequences no
// longer than the window collapse to a single global minimum.
func fingerprint(tokens []string) map[uint64][]int {
	fp := map[uint64][]int{}
	if len(tokens) < kgram {
		return fp
	}
	numGrams := len(tokens) - kgram + 1
	hashes := make([]uint64, numGrams)
	for i := 0; i < numGrams; i++ {
		hashes[i] = kgramHash(tokens, i)
	}

	add := func(h uint64, idx int) {
		if len(fp[h]) >= maxFingerprintIdx {
			return
		}
		fp[h] = append(fp[h], idx)
	}

	if len(hashes) <= window {
		minIdx := 0
		for i := 1; i < len(hashes); i++ {
			if hashes[i] <= hashes[minIdx] {
				minIdx = i
			}
		}
		add(hashes[minIdx], minIdx)
		return fp
	}

	lastSelected := -1
	for start := 0; start+window <= len(hashes); start++ {
		minIdx := start
		for i := start + 1; i < start+window; i++ {
			if hashes[i] <= hashes[minIdx] {
				minIdx = i
			}
		}
		if minIdx != lastSelected {
			add(hashes[minIdx], minIdx)
			lastSelected = minIdx
		}
	}
	return fp
}

// compare scores one symbol pair. An exact token-sequence match short-
// circuits to similarity 1.0 via an xxhash content digest fast-equality
// check; otherwise every shared
// fingerprint hash seeds a greedy token-match extension, whose merged
// segments give the overlap ratio, and the higher of that ratio and the
// token-multiset Dice coefficient wins.
func compare(a, b prepared, maxMatches int) (float64, [2]int, [2]int) {
	if a.contentHash == b.contentHash {
		return 1.0, symbolLineRange(a), symbolLineRange(b)
	}

	var sharedHashes []uint64
	for hash := range a.fingerprint {
		if _, ok := b.fingerprint[hash]; ok {
			sharedHashes = append(sharedHashes, hash)
		}
	}
	sort.Slice(sharedHashes, func(i, j int) bool { return sharedHashes[i] < sharedHashes[j] })

	var aIvs, bIvs []interval
	matches := 0
outer:
	for _, hash := range sharedHashes {
		for _, ia := range a.fingerprint[hash] {
			for _, ib := range b.fingerprint[hash] {
				if matches >= maxMatches {
					break outer
				}
				matches++
				sa, ea, sb, eb := extend(a, b, ia, ib)
				aIvs = append(aIvs, interval{sa, ea})
				bIvs = append(bIvs, interval{sb, eb})
			}
		}
	}

	dice := diceSimilarity(a.counts, b.counts, len(a.tokens), len(b.tokens))

	if len(aIvs) == 0 {
		return dice, symbolLineRange(a), symbolLineRange(b)
	}

	mergedA := mergeIntervals(aIvs)
	mergedB := mergeIntervals(bIvs)
	overlapTokens := intervalTokens(mergedA)
	if bTokens := intervalTokens(mergedB); bTokens > overlapTokens {
		overlapTokens = bTokens
	}

	maxLen := len(a.tokens)
	if len(b.tokens) > maxLen {
		maxLen = len(b.tokens)
	}
	segmentOverlap := 0.0
	if maxLen > 0 {
		segmentOverlap = float64(overlapTokens) / float64(maxLen)
	}

	similarity := segmentOverlap
	if dice > similarity {
		similarity = dice
	}

	return similarity, rangeFromIntervals(a, mergedA), rangeFromIntervals(b, mergedB)
}

// extend grows a seed k-gram match (ia, ib) token-by-token in both
// directions while the two token streams keep agreeing.
func extend(a, b prepared, ia, ib int) (startA, endA, startB, endB int) {
	startA, startB = ia, ib
	endA, endB = ia+kgram-1, ib+kgram-1
	for endA+1 < len(a.tokens) && endB+1 < len(b.tokens) && a.tokens[endA+1] == b.tokens[endB+1] {
		endA++
		endB++
	}
	for startA > 0 && startB > 0 && a.tokens[startA-1] == b.tokens[startB-1] {
		startA--
		startB--
	}
	return
}

func diceSimilarity(countsA, countsB map[string]int, lenA, lenB int) float64 {
	if lenA == 0 || lenB == 0 {
		return 0
	}
	shared := 0
	for tok, ca := range countsA {
		if cb, ok := countsB[tok]; ok {
			if ca < cb {
				shared += ca
			} else {
				shared += cb
			}
		}
	}
	return 2 * float64(shared) / float64(lenA+lenB)
}

func mergeIntervals(ivs []interval) []interval {
	if len(ivs) == 0 {
		return nil
	}
	sorted := make([]interval, len(ivs))
	copy(sorted, ivs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	merged := []interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if iv.start <= last.end+1 {
			if iv.end > last.end {
				last.end = iv.end
			}
		} else {
			merged = append(merged, iv)
		}
	}
	return merged
}

func intervalTokens(ivs []interval) int {
	total := 0
	for _, iv := range ivs {
		total += iv.end - iv.start + 1
	}
	return total
}

// rangeFromIntervals maps a symbol's merged token-index segments back to
// absolute file line numbers, spanning from the first segment's start to
// the last segment's end.
func rangeFromIntervals(p prepared, ivs []interval) [2]int {
	if len(ivs) == 0 {
		return symbolLineRange(p)
	}
	first := ivs[0]
	last := ivs[len(ivs)-1]
	startOffset := p.offsets[first.start]
	endOffset := p.offsets[last.end] + p.lengths[last.end]
	startLine := p.symbol.StartLine + lineForOffset(p.lineStarts, startOffset) - 1
	endLine := p.symbol.StartLine + lineForOffset(p.lineStarts, endOffset) - 1
	return [2]int{startLine, endLine}
}

func symbolLineRange(p prepared) [2]int {
	return [2]int{p.symbol.StartLine, p.symbol.EndLine}
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
