package retrieval

import (
	"context"

	"github.com/campusdesk/campusdesk/internal/index"
	"github.com/campusdesk/campusdesk/internal/model"
)

// VectorSearcher is the read side of the vector index.
type VectorSearcher interface {
	Search(ctx context.Context, q string, k int) ([]index.VectorHit, error)
}

// Snapshot is one immutable view of the corpus: the chunk list and
// both indexes built from it. The orchestrator swaps whole snapshots
// on rebuild; a snapshot is never mutated after construction.
type Snapshot struct {
	Chunks  []model.Chunk
	Lexical *index.LexicalIndex
	Vector  VectorSearcher

	byID map[string]int
}

func NewSnapshot(chunks []model.Chunk, lexical *index.LexicalIndex, vector VectorSearcher) *Snapshot {
	byID := make(map[string]int, len(chunks))
	for i, c := range chunks {
		byID[c.ID()] = i
	}
	return &Snapshot{
		Chunks:  chunks,
		Lexical: lexical,
		Vector:  vector,
		byID:    byID,
	}
}

func (s *Snapshot) ChunkIndex(id string) (int, bool) {
	i, ok := s.byID[id]
	return i, ok
}

func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Chunks) == 0
}
