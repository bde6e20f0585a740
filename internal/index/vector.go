package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/campusdesk/campusdesk/internal/ai"
	"github.com/campusdesk/campusdesk/internal/model"
)

const collectionBase = "corpus"

// VectorIndex stores one embedding per chunk in a chromem-go
// collection. Scores are cosine similarity in [-1,1]; chromem
// normalizes vectors internally and the retriever relies on that
// single convention, with no distance inversion anywhere.
//
// Build embeds into a fresh collection and swaps it in only once it
// is complete, so concurrent searches always hit a fully built
// collection. A meta file beside the store records the embedding
// model, dimension, active collection and a corpus hash; any mismatch
// on open discards the whole collection rather than patching it.
type VectorIndex struct {
	db         *chromem.DB
	embedder   ai.IEmbedder
	persistDir string

	mu         sync.RWMutex
	collection *chromem.Collection
	active     string
	meta       vectorMeta
}

type vectorMeta struct {
	Model      string `json:"model"`
	Dimension  int    `json:"dimension"`
	Collection string `json:"collection"`
	Corpus     string `json:"corpus"`
}

type VectorHit struct {
	ChunkID    string
	Similarity float64
}

// NewVectorIndex opens (or creates) the store under persistDir; an
// empty persistDir keeps everything in memory, which the tests use.
func NewVectorIndex(persistDir string, embedder ai.IEmbedder) (*VectorIndex, error) {
	var db *chromem.DB
	var err error
	if persistDir == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(persistDir, false)
		if err != nil {
			return nil, fmt.Errorf("open vector store: %w", err)
		}
	}
	v := &VectorIndex{
		db:         db,
		embedder:   embedder,
		persistDir: persistDir,
	}
	if meta, ok := v.readMetaFile(); ok {
		if meta.Model == embedder.ModelName() && meta.Collection != "" {
			if c := db.GetCollection(meta.Collection, v.documentEmbedding()); c != nil {
				v.collection = c
				v.active = meta.Collection
				v.meta = meta
			}
		} else if meta.Model != embedder.ModelName() {
			logutil.GetLogger(context.Background()).Warn("embedding model changed, resetting vector store",
				zap.String("stored", meta.Model),
				zap.String("active", embedder.ModelName()),
			)
		}
	}
	if v.collection == nil {
		if err := v.Reset(); err != nil {
			return nil, err
		}
	}
	v.pruneStale()
	return v, nil
}

func newCollectionName() string {
	return fmt.Sprintf("%s_%d", collectionBase, time.Now().UnixNano())
}

func (v *VectorIndex) documentEmbedding() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return v.embedder.Embed(ctx, text, "RETRIEVAL_DOCUMENT")
	}
}

func (v *VectorIndex) current() *chromem.Collection {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.collection
}

func (v *VectorIndex) Count() int {
	c := v.current()
	if c == nil {
		return 0
	}
	return c.Count()
}

// corpusHash identifies a chunk set by ID and text, so a re-upload
// that keeps IDs but changes content still forces a re-embed.
func corpusHash(chunks []model.Chunk) string {
	h := sha256.New()
	for _, c := range chunks {
		fmt.Fprintf(h, "%s\x00%d\x00%s\x00", c.Source, c.Position, c.Text)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Matches reports whether the stored collection was built from
// exactly this chunk set with the active embedding model.
func (v *VectorIndex) Matches(chunks []model.Chunk) bool {
	v.mu.RLock()
	meta := v.meta
	v.mu.RUnlock()
	return meta.Model == v.embedder.ModelName() &&
		meta.Corpus == corpusHash(chunks) &&
		v.Count() == len(chunks)
}

// Build embeds the chunks into a brand-new collection and swaps it in
// once fully populated. Searches running during the build keep
// hitting the previous complete collection; the old one is dropped
// only after the swap.
func (v *VectorIndex) Build(ctx context.Context, chunks []model.Chunk) error {
	name := newCollectionName()
	col, err := v.db.CreateCollection(name, nil, v.documentEmbedding())
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	dim := 0
	if len(chunks) > 0 {
		docs := make([]chromem.Document, 0, len(chunks))
		for _, c := range chunks {
			docs = append(docs, chromem.Document{
				ID:      c.ID(),
				Content: c.Text,
				Metadata: map[string]string{
					"source": c.Source,
				},
			})
		}
		if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			_ = v.db.DeleteCollection(name)
			return fmt.Errorf("embed chunks: %w", err)
		}
		if probe, err := v.embedder.Embed(ctx, chunks[0].Text, "RETRIEVAL_DOCUMENT"); err == nil {
			dim = len(probe)
		}
	}
	meta := vectorMeta{
		Model:      v.embedder.ModelName(),
		Dimension:  dim,
		Collection: name,
		Corpus:     corpusHash(chunks),
	}

	v.mu.Lock()
	old := v.active
	v.collection = col
	v.active = name
	v.meta = meta
	v.mu.Unlock()

	v.writeMetaFile(meta)
	if old != "" && old != name {
		_ = v.db.DeleteCollection(old)
	}
	return nil
}

// Search embeds the query and returns the k nearest chunks by cosine
// similarity. A stored dimension that disagrees with the query
// embedding resets the collection and reports the inconsistency so
// the caller can trigger a full rebuild.
func (v *VectorIndex) Search(ctx context.Context, query string, k int) ([]VectorHit, error) {
	col := v.current()
	if col == nil || k <= 0 {
		return nil, nil
	}
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	queryEmb, err := v.embedder.Embed(ctx, query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	v.mu.RLock()
	dim := v.meta.Dimension
	v.mu.RUnlock()
	if dim != 0 && dim != len(queryEmb) {
		logutil.GetLogger(ctx).Warn("embedding dimension mismatch, resetting vector store",
			zap.Int("stored", dim),
			zap.Int("active", len(queryEmb)),
		)
		if resetErr := v.Reset(); resetErr != nil {
			return nil, resetErr
		}
		return nil, fmt.Errorf("embedding dimension changed from %d to %d: rebuild required", dim, len(queryEmb))
	}
	if k > count {
		k = count
	}
	results, err := col.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: queryEmb,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	hits := make([]VectorHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, VectorHit{ChunkID: r.ID, Similarity: float64(r.Similarity)})
	}
	return hits, nil
}

// Reset swaps in a fresh empty collection and clears the meta file.
func (v *VectorIndex) Reset() error {
	name := newCollectionName()
	col, err := v.db.CreateCollection(name, nil, v.documentEmbedding())
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	v.mu.Lock()
	v.collection = col
	v.active = name
	v.meta = vectorMeta{}
	v.mu.Unlock()

	if v.persistDir != "" {
		_ = os.Remove(v.metaPath())
	}
	v.pruneStale()
	return nil
}

// pruneStale drops every collection except the active one, clearing
// leftovers from crashed builds.
func (v *VectorIndex) pruneStale() {
	v.mu.RLock()
	active := v.active
	v.mu.RUnlock()
	for name := range v.db.ListCollections() {
		if name != active {
			_ = v.db.DeleteCollection(name)
		}
	}
}

func (v *VectorIndex) metaPath() string {
	return filepath.Join(v.persistDir, "vector_meta.json")
}

func (v *VectorIndex) readMetaFile() (vectorMeta, bool) {
	if v.persistDir == "" {
		return vectorMeta{}, false
	}
	data, err := os.ReadFile(v.metaPath())
	if err != nil {
		return vectorMeta{}, false
	}
	var meta vectorMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return vectorMeta{}, false
	}
	return meta, true
}

func (v *VectorIndex) writeMetaFile(meta vectorMeta) {
	if v.persistDir == "" {
		return
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return
	}
	if err := os.WriteFile(v.metaPath(), data, 0o644); err != nil {
		logutil.GetLogger(context.Background()).Warn("write vector meta failed", zap.Error(err))
	}
}
