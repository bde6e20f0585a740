package rag

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/campusdesk/campusdesk/internal/query"
)

// followUps maps a detected topic to the questions a visitor usually
// asks next. Prefetching warms the response cache for these so the
// follow-up answers instantly.
var followUps = map[string][]string{
	"fee":         {"what scholarships are available", "what is the hostel fee"},
	"course":      {"what is the fee structure", "what is the admission process"},
	"admission":   {"what courses are offered", "what is the fee structure"},
	"hostel":      {"what is the hostel fee", "what facilities does the hostel have"},
	"placement":   {"which companies visit for placements", "what is the average package"},
	"scholarship": {"what is the fee structure", "what are the scholarship eligibility criteria"},
}

// prefetcher warms the cache in the background after each answered
// query. One worker, a small bounded queue, and non-blocking sends:
// under load prefetch work is shed, never queued against live
// traffic.
type prefetcher struct {
	orch   *Orchestrator
	queue  chan string
	done   chan struct{}
	closed chan struct{}
}

func newPrefetcher(o *Orchestrator) *prefetcher {
	return &prefetcher{
		orch:   o,
		queue:  make(chan string, 16),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
}

func (p *prefetcher) start() {
	go p.loop()
}

func (p *prefetcher) stop() {
	close(p.done)
	<-p.closed
}

// schedule queues follow-up candidates for q. Drops silently when the
// queue is full.
func (p *prefetcher) schedule(q string) {
	for _, topic := range query.Topics(q) {
		for _, candidate := range followUps[topic] {
			select {
			case p.queue <- candidate:
			default:
				return
			}
		}
	}
}

func (p *prefetcher) loop() {
	defer close(p.closed)
	for {
		select {
		case <-p.done:
			return
		case candidate := <-p.queue:
			p.warm(candidate)
		}
	}
}

func (p *prefetcher) warm(candidate string) {
	if _, ok := p.orch.responses.Get(candidate); ok {
		return
	}
	snap := p.orch.snapshot()
	if snap.Empty() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.orch.opts.GenerateTimeout)
	defer cancel()

	results := p.orch.retriever.Retrieve(ctx, snap, candidate, p.orch.opts.TopK)
	if len(results) == 0 {
		return
	}
	systemPrompt, userMessage := buildPrompt(results, nil, candidate)
	answer, err := p.orch.generator.Generate(ctx, systemPrompt, userMessage)
	if err != nil {
		logutil.GetLogger(ctx).Debug("prefetch generation failed", zap.String("query", candidate), zap.Error(err))
		return
	}
	p.orch.responses.Set(candidate, answer)
	logutil.GetLogger(ctx).Debug("prefetched follow-up", zap.String("query", candidate), zap.Duration("budget", p.orch.opts.GenerateTimeout))
}
