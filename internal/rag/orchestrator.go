package rag

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/campusdesk/campusdesk/internal/ai"
	"github.com/campusdesk/campusdesk/internal/cache"
	"github.com/campusdesk/campusdesk/internal/conversation"
	"github.com/campusdesk/campusdesk/internal/index"
	"github.com/campusdesk/campusdesk/internal/ingest"
	"github.com/campusdesk/campusdesk/internal/knowledge"
	"github.com/campusdesk/campusdesk/internal/metrics"
	"github.com/campusdesk/campusdesk/internal/model"
	"github.com/campusdesk/campusdesk/internal/query"
	"github.com/campusdesk/campusdesk/internal/repo"
	"github.com/campusdesk/campusdesk/internal/retrieval"
)

const (
	DefaultTopK            = 5
	DefaultGenerateTimeout = 30 * time.Second

	noDocumentsMessage = "I don't have any documents uploaded yet. Please upload college documents through the Admin panel to get started!"
	degradedMessage    = "I'm having trouble connecting to my brain right now."
)

// Options tunes the per-query pipeline.
type Options struct {
	TopK            int
	GenerateTimeout time.Duration
	HistoryLimit    int
}

func (o *Options) fill() {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.GenerateTimeout <= 0 {
		o.GenerateTimeout = DefaultGenerateTimeout
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = conversation.DefaultHistoryLimit
	}
}

// VectorStore is the vector index surface the orchestrator manages:
// build on rebuild, match for reuse detection, search for retrieval.
type VectorStore interface {
	retrieval.VectorSearcher
	Build(ctx context.Context, chunks []model.Chunk) error
	Matches(chunks []model.Chunk) bool
}

// Orchestrator sequences a query through greeting detection, query
// expansion, the deterministic fact table, hybrid retrieval, the
// response cache and finally generation, emitting events as it goes.
// Every query stream terminates with exactly one answer or error
// event.
type Orchestrator struct {
	chunks        *repo.ChunkRepo
	conversations *conversation.Store
	lookup        *knowledge.Lookup
	expander      *query.Expander
	retriever     *retrieval.HybridRetriever
	responses     *cache.ResponseCache
	generator     ai.IGenerator
	vector        VectorStore
	processor     *ingest.Processor
	opts          Options

	mu   sync.RWMutex
	snap *retrieval.Snapshot

	prefetcher *prefetcher
}

func NewOrchestrator(
	chunks *repo.ChunkRepo,
	conversations *conversation.Store,
	lookup *knowledge.Lookup,
	expander *query.Expander,
	retriever *retrieval.HybridRetriever,
	responses *cache.ResponseCache,
	generator ai.IGenerator,
	vector VectorStore,
	processor *ingest.Processor,
	opts Options,
) *Orchestrator {
	opts.fill()
	o := &Orchestrator{
		chunks:        chunks,
		conversations: conversations,
		lookup:        lookup,
		expander:      expander,
		retriever:     retriever,
		responses:     responses,
		generator:     generator,
		vector:        vector,
		processor:     processor,
		opts:          opts,
	}
	o.prefetcher = newPrefetcher(o)
	return o
}

// Start loads the corpus-of-record and builds the first snapshot. A
// persisted vector collection that was built from exactly this chunk
// set is reused; anything else forces a full re-embed.
func (o *Orchestrator) Start(ctx context.Context) error {
	chunks, err := o.chunks.List(ctx)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	if err := o.installSnapshot(ctx, chunks, !o.vector.Matches(chunks)); err != nil {
		return err
	}
	o.prefetcher.start()
	return nil
}

func (o *Orchestrator) Stop() {
	o.prefetcher.stop()
}

func (o *Orchestrator) snapshot() *retrieval.Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.snap
}

// installSnapshot builds the indexes for chunks and swaps them in.
// Readers hold the old snapshot until the swap, so mid-rebuild
// queries see a complete (if stale) corpus, never a partial one.
func (o *Orchestrator) installSnapshot(ctx context.Context, chunks []model.Chunk, rebuildVectors bool) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	lexical := index.NewLexicalIndex(texts)
	if rebuildVectors {
		if err := o.vector.Build(ctx, chunks); err != nil {
			return fmt.Errorf("build vector index: %w", err)
		}
	}
	snap := retrieval.NewSnapshot(chunks, lexical, o.vector)

	o.mu.Lock()
	o.snap = snap
	o.mu.Unlock()

	o.responses.Clear()
	metrics.CorpusChunks.Set(float64(len(chunks)))
	logutil.GetLogger(ctx).Info("corpus snapshot installed",
		zap.Int("chunks", len(chunks)),
		zap.Bool("vectors_rebuilt", rebuildVectors),
	)
	return nil
}

// AddDocument ingests one uploaded file, replaces any chunks already
// stored for that source and rebuilds the whole snapshot. Ingestion
// errors leave the corpus untouched.
func (o *Orchestrator) AddDocument(ctx context.Context, path string) (int, error) {
	chunks, err := o.processor.ProcessFile(path)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	if _, err := o.chunks.DeleteBySource(ctx, chunks[0].Source); err != nil {
		return 0, fmt.Errorf("replace chunks: %w", err)
	}
	if err := o.chunks.Append(ctx, chunks); err != nil {
		return 0, fmt.Errorf("persist chunks: %w", err)
	}
	if err := o.Rebuild(ctx); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// DeleteSource drops every chunk of one source document and rebuilds.
func (o *Orchestrator) DeleteSource(ctx context.Context, source string) (int64, error) {
	deleted, err := o.chunks.DeleteBySource(ctx, source)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		if err := o.Rebuild(ctx); err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

// DeleteAll clears the corpus entirely.
func (o *Orchestrator) DeleteAll(ctx context.Context) error {
	if err := o.chunks.DeleteAll(ctx); err != nil {
		return err
	}
	return o.Rebuild(ctx)
}

// Rebuild re-reads the corpus-of-record and replaces the snapshot,
// re-embedding everything. The response cache is cleared on every
// rebuild so answers never outlive their documents.
func (o *Orchestrator) Rebuild(ctx context.Context) error {
	chunks, err := o.chunks.List(ctx)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	return o.installSnapshot(ctx, chunks, true)
}

// Stats reports corpus composition for the admin surface.
func (o *Orchestrator) Stats(ctx context.Context) (map[string]int, int, error) {
	sources, err := o.chunks.Sources(ctx)
	if err != nil {
		return nil, 0, err
	}
	snap := o.snapshot()
	total := 0
	if snap != nil {
		total = len(snap.Chunks)
	}
	return sources, total, nil
}

func (o *Orchestrator) CreateSession(ctx context.Context, sessionID string) error {
	return o.conversations.Create(ctx, sessionID)
}

func (o *Orchestrator) DeleteSession(ctx context.Context, sessionID string) error {
	return o.conversations.Delete(ctx, sessionID)
}

// QueryStream runs the full pipeline for one message and streams
// events. The channel closes after the terminal event; a cancelled
// ctx stops emission (the consumer is gone) without aborting work
// already in flight.
func (o *Orchestrator) QueryStream(ctx context.Context, message, sessionID string) <-chan model.QueryEvent {
	events := make(chan model.QueryEvent, 8)
	go func() {
		defer close(events)
		start := time.Now()
		outcome := o.run(ctx, message, sessionID, events)
		metrics.QueriesTotal.WithLabelValues(outcome).Inc()
		metrics.QueryDuration.Observe(time.Since(start).Seconds())
	}()
	return events
}

// Query aggregates the stream into a single answer, for the plain
// HTTP endpoint and the voice loop.
func (o *Orchestrator) Query(ctx context.Context, message, sessionID string) (answer string, sources []string, err error) {
	for ev := range o.QueryStream(ctx, message, sessionID) {
		switch ev.Type {
		case model.EventMeta:
			sources = ev.Sources
		case model.EventChunk, model.EventAnswer:
			answer += ev.Text
		case model.EventError:
			return "", nil, errors.New(ev.Message)
		}
	}
	return answer, sources, nil
}

func (o *Orchestrator) run(ctx context.Context, message, sessionID string, events chan<- model.QueryEvent) string {
	logger := logutil.GetLogger(ctx).With(zap.String("session_id", sessionID))

	// GREETING_CHECK: small talk never touches retrieval.
	if isGreeting(message) {
		o.emit(ctx, events, model.AnswerEvent(greetingResponse))
		o.record(ctx, sessionID, message, greetingResponse)
		return metrics.OutcomeGreeting
	}

	// EXPAND: normalize transcription artifacts, then let the model
	// rewrite short follow-ups using session history.
	normalized := query.Normalize(message)
	history, err := o.conversations.History(ctx, sessionID, o.opts.HistoryLimit)
	if err != nil {
		logger.Warn("history unavailable", zap.Error(err))
	}
	expanded, wasExpanded := o.expander.Expand(ctx, normalized, history)
	if wasExpanded {
		logger.Info("query expanded", zap.String("original", normalized), zap.String("expanded", expanded))
	}

	// DETERMINISTIC_LOOKUP: structured facts beat retrieval.
	if answer, ok := o.lookup.Answer(expanded); ok {
		o.emit(ctx, events, model.MetaEvent([]string{"knowledge table"}, nil))
		o.emit(ctx, events, model.AnswerEvent(answer))
		o.record(ctx, sessionID, message, answer)
		return metrics.OutcomeKnowledge
	}

	// RETRIEVE.
	snap := o.snapshot()
	if snap.Empty() {
		o.emit(ctx, events, model.AnswerEvent(noDocumentsMessage))
		o.record(ctx, sessionID, message, noDocumentsMessage)
		return metrics.OutcomeNoDocs
	}
	results := o.retriever.Retrieve(ctx, snap, expanded, o.opts.TopK)

	// PROMPT_BUILD.
	profile, err := o.conversations.Profile(ctx, sessionID)
	if err != nil {
		logger.Warn("profile unavailable", zap.Error(err))
	}
	systemPrompt, userMessage := buildPrompt(results, profile, message)

	// CACHE_CHECK.
	if cached, ok := o.responses.Get(expanded); ok {
		metrics.CacheHits.Inc()
		o.emit(ctx, events, model.MetaEvent(resultSources(results), resultContext(results)))
		o.emit(ctx, events, model.AnswerEvent(cached))
		o.record(ctx, sessionID, message, cached)
		return metrics.OutcomeCached
	}
	metrics.CacheMisses.Inc()

	// GENERATE, with the fallback path on provider failure.
	outcome := metrics.OutcomeGenerated
	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.GenerateTimeout)
	defer cancel()
	answer, err := o.generator.Generate(genCtx, systemPrompt, userMessage)
	if err != nil {
		metrics.ProviderFailures.WithLabelValues("generate").Inc()
		logger.Warn("generation failed, using retrieval fallback", zap.Error(err))
		answer = fallbackAnswer(expanded, results)
		if answer == "" {
			o.emit(ctx, events, model.ErrorEvent(degradedMessage))
			o.record(ctx, sessionID, message, degradedMessage)
			return metrics.OutcomeError
		}
		outcome = metrics.OutcomeFallback
	}

	// RESPOND.
	o.emit(ctx, events, model.MetaEvent(resultSources(results), resultContext(results)))
	o.emit(ctx, events, model.AnswerEvent(answer))
	o.responses.Set(expanded, answer)
	o.record(ctx, sessionID, message, answer)
	o.prefetcher.schedule(expanded)
	return outcome
}

// emit delivers an event unless the consumer has gone away.
func (o *Orchestrator) emit(ctx context.Context, events chan<- model.QueryEvent, ev model.QueryEvent) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

// record appends the interaction off the emission path. Failures are
// logged, not surfaced: losing one history entry must not fail an
// already-answered query.
func (o *Orchestrator) record(ctx context.Context, sessionID, userMessage, botResponse string) {
	if sessionID == "" {
		return
	}
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.conversations.Append(recordCtx, sessionID, userMessage, botResponse); err != nil {
		logutil.GetLogger(ctx).Warn("record interaction failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

var feePattern = regexp.MustCompile(`₹\s?[\d,]+(?:\s*/\s*\w+)?`)

// fallbackAnswer degrades to the best retrieved chunk when the model
// is unreachable. Fee questions get the matched amount pulled out of
// the chunk so the caller still hears a number.
func fallbackAnswer(q string, results []model.RetrievalResult) string {
	if len(results) == 0 {
		return ""
	}
	top := results[0].Chunk.Text
	for _, topic := range query.Topics(q) {
		if topic == "fee" {
			if m := feePattern.FindString(top); m != "" {
				return "Here's what I found in our documents: " + m
			}
		}
	}
	return "Here's what I found in our documents: " + top
}
