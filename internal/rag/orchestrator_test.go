package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campusdesk/campusdesk/internal/cache"
	"github.com/campusdesk/campusdesk/internal/conversation"
	"github.com/campusdesk/campusdesk/internal/index"
	"github.com/campusdesk/campusdesk/internal/ingest"
	"github.com/campusdesk/campusdesk/internal/knowledge"
	"github.com/campusdesk/campusdesk/internal/model"
	"github.com/campusdesk/campusdesk/internal/query"
	"github.com/campusdesk/campusdesk/internal/repo"
	"github.com/campusdesk/campusdesk/internal/retrieval"
)

type countingGenerator struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (g *countingGenerator) Generate(ctx context.Context, systemPrompt string, userMessage string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func (g *countingGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeVectorStore struct {
	mu     sync.Mutex
	chunks []model.Chunk
	hits   []index.VectorHit
}

func (f *fakeVectorStore) Build(ctx context.Context, chunks []model.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = chunks
	return nil
}

func (f *fakeVectorStore) Matches(chunks []model.Chunk) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.chunks) != len(chunks) {
		return false
	}
	for i := range chunks {
		if f.chunks[i].ID() != chunks[i].ID() || f.chunks[i].Text != chunks[i].Text {
			return false
		}
	}
	return true
}

func (f *fakeVectorStore) Search(ctx context.Context, q string, k int) ([]index.VectorHit, error) {
	if len(f.hits) > k {
		return f.hits[:k], nil
	}
	return f.hits, nil
}

type testEnv struct {
	orch *Orchestrator
	gen  *countingGenerator
}

func newTestOrchestrator(t *testing.T, corpus []model.Chunk, gen *countingGenerator, table *knowledge.Table) *testEnv {
	t.Helper()
	db, err := repo.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, repo.ApplyMigrations(db))
	t.Cleanup(func() { db.Close() })

	chunkRepo := repo.NewChunkRepo(db)
	if len(corpus) > 0 {
		require.NoError(t, chunkRepo.Append(context.Background(), corpus))
	}

	orch := NewOrchestrator(
		chunkRepo,
		conversation.NewStore(repo.NewSessionRepo(db)),
		knowledge.NewLookup(table),
		query.NewExpander(nil, 0),
		retrieval.NewHybridRetriever(0.6, 0.4, 2),
		cache.NewResponseCache(10, 0),
		gen,
		&fakeVectorStore{},
		ingest.NewProcessor(200, 40),
		Options{},
	)
	require.NoError(t, orch.Start(context.Background()))
	t.Cleanup(orch.Stop)
	return &testEnv{orch: orch, gen: gen}
}

func collect(t *testing.T, events <-chan model.QueryEvent) []model.QueryEvent {
	t.Helper()
	var out []model.QueryEvent
	for ev := range events {
		out = append(out, ev)
	}
	require.NotEmpty(t, out)
	last := out[len(out)-1]
	require.Contains(t, []model.EventType{model.EventAnswer, model.EventError}, last.Type)
	return out
}

func libraryCorpus() []model.Chunk {
	return []model.Chunk{
		{Text: "the library opens at 8am and closes at 10pm on weekdays", Source: "handbook.pdf", Position: 0},
		{Text: "the canteen serves lunch between noon and 2pm", Source: "handbook.pdf", Position: 1},
	}
}

func TestQueryGreetingSkipsPipeline(t *testing.T) {
	env := newTestOrchestrator(t, libraryCorpus(), &countingGenerator{response: "unused"}, nil)
	events := collect(t, env.orch.QueryStream(context.Background(), "hello", ""))
	require.Len(t, events, 1)
	require.Equal(t, model.EventAnswer, events[0].Type)
	require.Contains(t, events[0].Text, "Sarah")
	require.Zero(t, env.gen.callCount())
}

func TestQueryEmptyCorpus(t *testing.T) {
	env := newTestOrchestrator(t, nil, &countingGenerator{response: "unused"}, nil)
	events := collect(t, env.orch.QueryStream(context.Background(), "when does the library open", ""))
	require.Len(t, events, 1)
	require.Equal(t, model.EventAnswer, events[0].Type)
	require.Contains(t, events[0].Text, "upload")
	require.Zero(t, env.gen.callCount())
}

func TestQueryKnowledgeIntercept(t *testing.T) {
	table := &knowledge.Table{FeesRaw: "BTech: ₹120000 per year"}
	env := newTestOrchestrator(t, libraryCorpus(), &countingGenerator{response: "unused"}, table)
	answer, sources, err := env.orch.Query(context.Background(), "what is the fee structure", "")
	require.NoError(t, err)
	require.Contains(t, answer, "₹120000")
	require.Equal(t, []string{"knowledge table"}, sources)
	require.Zero(t, env.gen.callCount())
}

func TestQueryGeneratesAndCaches(t *testing.T) {
	gen := &countingGenerator{response: "The library opens at 8am."}
	env := newTestOrchestrator(t, libraryCorpus(), gen, nil)

	answer, sources, err := env.orch.Query(context.Background(), "when does the library open", "")
	require.NoError(t, err)
	require.Equal(t, "The library opens at 8am.", answer)
	require.Equal(t, []string{"handbook.pdf"}, sources)
	require.Equal(t, 1, gen.callCount())

	// Second identical query is served from cache without another
	// provider call.
	answer, _, err = env.orch.Query(context.Background(), "when does the library open", "")
	require.NoError(t, err)
	require.Equal(t, "The library opens at 8am.", answer)
	require.Equal(t, 1, gen.callCount())
}

func TestQueryGenerationFailureFallsBack(t *testing.T) {
	gen := &countingGenerator{err: errors.New("provider down")}
	env := newTestOrchestrator(t, libraryCorpus(), gen, nil)

	answer, _, err := env.orch.Query(context.Background(), "when does the library open", "")
	require.NoError(t, err)
	require.Contains(t, answer, "Here's what I found in our documents:")
	require.Contains(t, answer, "library opens at 8am")
}

func TestQueryGenerationFailureNoRetrievalIsError(t *testing.T) {
	gen := &countingGenerator{err: errors.New("provider down")}
	env := newTestOrchestrator(t, libraryCorpus(), gen, nil)

	events := collect(t, env.orch.QueryStream(context.Background(), "zzzz qqqq vvvv wwww", ""))
	last := events[len(events)-1]
	require.Equal(t, model.EventError, last.Type)
	require.Contains(t, last.Message, "trouble connecting")
}

func TestQueryRecordsConversation(t *testing.T) {
	gen := &countingGenerator{response: "The canteen serves lunch from noon."}
	env := newTestOrchestrator(t, libraryCorpus(), gen, nil)

	require.NoError(t, env.orch.CreateSession(context.Background(), "visitor-1"))
	_, _, err := env.orch.Query(context.Background(), "when is lunch served in the canteen", "visitor-1")
	require.NoError(t, err)

	history, err := env.orch.conversations.History(context.Background(), "visitor-1", 5)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "when is lunch served in the canteen", history[0].UserMessage)
	require.Equal(t, "The canteen serves lunch from noon.", history[0].BotResponse)
}

func TestCorpusManagement(t *testing.T) {
	env := newTestOrchestrator(t, libraryCorpus(), &countingGenerator{response: "ok"}, nil)
	ctx := context.Background()

	sources, total, err := env.orch.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, map[string]int{"handbook.pdf": 2}, sources)

	deleted, err := env.orch.DeleteSource(ctx, "handbook.pdf")
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	_, total, err = env.orch.Stats(ctx)
	require.NoError(t, err)
	require.Zero(t, total)

	// The snapshot follows the corpus: queries now see no documents.
	events := collect(t, env.orch.QueryStream(ctx, "when does the library open", ""))
	require.Contains(t, events[0].Text, "upload")
}

func TestRebuildClearsResponseCache(t *testing.T) {
	gen := &countingGenerator{response: "cached answer"}
	env := newTestOrchestrator(t, libraryCorpus(), gen, nil)
	ctx := context.Background()

	_, _, err := env.orch.Query(ctx, "when does the library open", "")
	require.NoError(t, err)
	require.Equal(t, 1, gen.callCount())

	require.NoError(t, env.orch.Rebuild(ctx))

	_, _, err = env.orch.Query(ctx, "when does the library open", "")
	require.NoError(t, err)
	require.Equal(t, 2, gen.callCount())
}

func TestAddDocument(t *testing.T) {
	env := newTestOrchestrator(t, nil, &countingGenerator{response: "ok"}, nil)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "rules.txt")
	require.NoError(t, writeTestFile(path, "Silence must be maintained inside the library at all times."))

	count, err := env.orch.AddDocument(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	_, total, err := env.orch.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, total)
}

func TestAddDocumentReplacesSameSource(t *testing.T) {
	env := newTestOrchestrator(t, nil, &countingGenerator{response: "ok"}, nil)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "fees.txt")
	require.NoError(t, writeTestFile(path, "The annual tuition fee is 100000 rupees."))
	count, err := env.orch.AddDocument(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, writeTestFile(path, "The annual tuition fee is 120000 rupees."))
	count, err = env.orch.AddDocument(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	sources, total, err := env.orch.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, map[string]int{"fees.txt": 1}, sources)

	// The stale text is gone from the snapshot, not just outranked.
	snap := env.orch.snapshot()
	require.Len(t, snap.Chunks, 1)
	require.Contains(t, snap.Chunks[0].Text, "120000")
	seen := map[string]bool{}
	for _, c := range snap.Chunks {
		require.False(t, seen[c.ID()])
		seen[c.ID()] = true
	}
}

func writeTestFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestIsGreeting(t *testing.T) {
	require.True(t, isGreeting("hello"))
	require.True(t, isGreeting("Good Morning!"))
	require.True(t, isGreeting("hey sarah"))
	require.False(t, isGreeting("hello can you tell me the fee structure for btech"))
	require.False(t, isGreeting("what is the fee"))
}

func TestFallbackAnswerFeeAmount(t *testing.T) {
	results := []model.RetrievalResult{{
		Chunk: model.Chunk{Text: "The annual tuition fee is ₹1,20,000 for all branches.", Source: "fees.pdf"},
	}}
	answer := fallbackAnswer("what is the fee", results)
	require.Equal(t, "Here's what I found in our documents: ₹1,20,000", answer)

	require.Empty(t, fallbackAnswer("anything", nil))
}
