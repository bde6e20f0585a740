package retrieval

import (
	"context"
	"sort"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/campusdesk/campusdesk/internal/index"
	"github.com/campusdesk/campusdesk/internal/model"
	"github.com/campusdesk/campusdesk/internal/query"
)

const (
	DefaultLexicalWeight  = 0.6
	DefaultSemanticWeight = 0.4
	DefaultMaxPerSource   = 2
)

// HybridRetriever fuses BM25 and vector similarity into one ordering.
// The semantic signal only covers the top-2k nearest chunks; anything
// outside that candidate window scores 0 semantically.
type HybridRetriever struct {
	LexicalWeight  float64
	SemanticWeight float64
	MaxPerSource   int
}

func NewHybridRetriever(lexicalWeight, semanticWeight float64, maxPerSource int) *HybridRetriever {
	if lexicalWeight <= 0 && semanticWeight <= 0 {
		lexicalWeight = DefaultLexicalWeight
		semanticWeight = DefaultSemanticWeight
	}
	if maxPerSource <= 0 {
		maxPerSource = DefaultMaxPerSource
	}
	return &HybridRetriever{
		LexicalWeight:  lexicalWeight,
		SemanticWeight: semanticWeight,
		MaxPerSource:   maxPerSource,
	}
}

// Retrieve returns up to k diversity-ranked results for q against the
// snapshot. An empty snapshot yields an empty result, not an error.
// A failing vector search degrades to lexical-only scoring instead of
// failing the query.
func (r *HybridRetriever) Retrieve(ctx context.Context, snap *Snapshot, q string, k int) []model.RetrievalResult {
	if snap.Empty() || k <= 0 {
		return nil
	}

	terms := make([]index.WeightedTerm, 0, 16)
	for _, tok := range index.Tokenize(q) {
		terms = append(terms, index.WeightedTerm{Term: tok, Weight: 1.0})
	}
	for _, syn := range query.Synonyms(q) {
		terms = append(terms, index.WeightedTerm{Term: syn, Weight: 0.25})
	}

	lexical := make(map[int]float64)
	for _, sc := range snap.Lexical.ScoreTerms(terms) {
		lexical[sc.ChunkIdx] = sc.Score
	}

	semantic := make(map[int]float64)
	hits, err := snap.Vector.Search(ctx, q, 2*k)
	if err != nil {
		logutil.GetLogger(ctx).Warn("semantic search unavailable, falling back to lexical only", zap.Error(err))
	}
	for _, hit := range hits {
		if idx, ok := snap.ChunkIndex(hit.ChunkID); ok {
			semantic[idx] = hit.Similarity
		}
	}

	candidates := make([]int, 0, len(lexical)+len(semantic))
	seen := make(map[int]bool, len(lexical)+len(semantic))
	for idx := range lexical {
		if !seen[idx] {
			seen[idx] = true
			candidates = append(candidates, idx)
		}
	}
	for idx := range semantic {
		if !seen[idx] {
			seen[idx] = true
			candidates = append(candidates, idx)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	normLex := normalize(lexical, candidates)
	normSem := normalize(semantic, candidates)

	results := make([]model.RetrievalResult, 0, len(candidates))
	for _, idx := range candidates {
		results = append(results, model.RetrievalResult{
			Chunk:         snap.Chunks[idx],
			LexicalScore:  lexical[idx],
			SemanticScore: semantic[idx],
			FusedScore:    r.LexicalWeight*normLex[idx] + r.SemanticWeight*normSem[idx],
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].FusedScore != results[j].FusedScore {
			return results[i].FusedScore > results[j].FusedScore
		}
		return lessChunk(results[i].Chunk, results[j].Chunk)
	})

	return r.diversify(results, k)
}

// diversify admits results in fused order while no source exceeds
// MaxPerSource admitted chunks, stopping at k.
func (r *HybridRetriever) diversify(ranked []model.RetrievalResult, k int) []model.RetrievalResult {
	perSource := make(map[string]int)
	out := make([]model.RetrievalResult, 0, k)
	for _, res := range ranked {
		if perSource[res.Chunk.Source] >= r.MaxPerSource {
			continue
		}
		perSource[res.Chunk.Source]++
		res.Rank = len(out) + 1
		out = append(out, res)
		if len(out) == k {
			break
		}
	}
	return out
}

// normalize min-max scales the scores of the candidate set into
// [0,1]. Missing entries count as 0. When every candidate carries the
// same value the whole vector collapses to 0.5 so the signal neither
// dominates nor vanishes.
func normalize(scores map[int]float64, candidates []int) map[int]float64 {
	minV, maxV := scores[candidates[0]], scores[candidates[0]]
	for _, idx := range candidates[1:] {
		v := scores[idx]
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	out := make(map[int]float64, len(candidates))
	if maxV == minV {
		for _, idx := range candidates {
			out[idx] = 0.5
		}
		return out
	}
	span := maxV - minV
	for _, idx := range candidates {
		out[idx] = (scores[idx] - minV) / span
	}
	return out
}

func lessChunk(a, b model.Chunk) bool {
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	return a.Position < b.Position
}
