package model

import "fmt"

// Chunk is a single searchable passage extracted from an uploaded
// document. Identity is (Source, Position); a chunk never changes
// after ingestion, it is only dropped when its source is deleted or
// the corpus is rebuilt.
type Chunk struct {
	Text     string            `json:"text"`
	Source   string            `json:"source"`
	Position int               `json:"position"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ID returns the stable identifier used by the vector store.
func (c Chunk) ID() string {
	return fmt.Sprintf("%s#%d", c.Source, c.Position)
}

// RetrievalResult is one ranked chunk produced for a single query.
type RetrievalResult struct {
	Chunk         Chunk
	LexicalScore  float64
	SemanticScore float64
	FusedScore    float64
	Rank          int
}
