package index

import (
	"math"
	"sort"
	"strings"
)

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

type posting struct {
	chunkIdx int
	termFreq int
}

// LexicalIndex is an in-memory BM25 inverted index over the corpus
// chunk list. It is built once per corpus snapshot and never patched;
// a corpus change produces a whole new index.
type LexicalIndex struct {
	postings     map[string][]posting
	chunkLengths []int
	avgLength    float64
	total        int
}

// ScoredChunk pairs a chunk ordinal in the snapshot with its score.
type ScoredChunk struct {
	ChunkIdx int
	Score    float64
}

// WeightedTerm lets query expansion feed extra terms at reduced
// weight next to the literal query terms.
type WeightedTerm struct {
	Term   string
	Weight float64
}

func NewLexicalIndex(texts []string) *LexicalIndex {
	idx := &LexicalIndex{
		postings:     make(map[string][]posting),
		chunkLengths: make([]int, len(texts)),
		total:        len(texts),
	}
	totalLength := 0
	for i, text := range texts {
		tokens := Tokenize(text)
		idx.chunkLengths[i] = len(tokens)
		totalLength += len(tokens)

		counts := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			counts[tok]++
		}
		// Deterministic posting order: sort the terms of this chunk so
		// rebuild output does not depend on map iteration.
		terms := make([]string, 0, len(counts))
		for term := range counts {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		for _, term := range terms {
			idx.postings[term] = append(idx.postings[term], posting{chunkIdx: i, termFreq: counts[term]})
		}
	}
	if idx.total > 0 {
		idx.avgLength = float64(totalLength) / float64(idx.total)
	}
	return idx
}

func (idx *LexicalIndex) Size() int {
	return idx.total
}

// Score computes BM25 over the query terms. Chunks sharing no term
// with the query are absent from the result. Ties keep chunk
// insertion order.
func (idx *LexicalIndex) Score(query string) []ScoredChunk {
	terms := make([]WeightedTerm, 0, 8)
	for _, tok := range Tokenize(query) {
		terms = append(terms, WeightedTerm{Term: tok, Weight: 1.0})
	}
	return idx.ScoreTerms(terms)
}

func (idx *LexicalIndex) ScoreTerms(terms []WeightedTerm) []ScoredChunk {
	if idx.total == 0 || len(terms) == 0 {
		return nil
	}
	scores := make(map[int]float64)
	n := float64(idx.total)
	for _, wt := range terms {
		postings, ok := idx.postings[wt.Term]
		if !ok {
			continue
		}
		df := float64(len(postings))
		idf := math.Log((n-df+0.5)/(df+0.5) + 1)
		for _, p := range postings {
			docLen := float64(idx.chunkLengths[p.chunkIdx])
			tf := float64(p.termFreq)
			numerator := tf * (bm25K1 + 1)
			denominator := tf + bm25K1*(1-bm25B+bm25B*(docLen/idx.avgLength))
			scores[p.chunkIdx] += wt.Weight * idf * (numerator / denominator)
		}
	}
	out := make([]ScoredChunk, 0, len(scores))
	for chunkIdx, score := range scores {
		out = append(out, ScoredChunk{ChunkIdx: chunkIdx, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ChunkIdx < out[j].ChunkIdx
	})
	return out
}

// Tokenize lower-cases and strips punctuation, keeping dots and
// hyphens so tokens like "3.5", "b.tech" or "co-op" survive.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '.', r == '-':
			b.WriteRune(r)
		case r >= 0x80:
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	fields := strings.Fields(b.String())
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".-")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
