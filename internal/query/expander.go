package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/campusdesk/campusdesk/internal/ai"
	"github.com/campusdesk/campusdesk/internal/model"
)

const (
	// Queries with this many tokens or more are assumed to be
	// self-contained; rewriting them would waste a provider call.
	expandTokenThreshold = 4

	defaultExpandTimeout = 8 * time.Second
)

// Expander rewrites short follow-up queries ("how much?", "and for
// hostel?") into standalone questions using the session history.
type Expander struct {
	generator ai.IGenerator
	timeout   time.Duration
}

func NewExpander(generator ai.IGenerator, timeout time.Duration) *Expander {
	if timeout <= 0 {
		timeout = defaultExpandTimeout
	}
	return &Expander{generator: generator, timeout: timeout}
}

// Expand returns the possibly-rewritten query and whether a rewrite
// happened. Provider failure is not an error here: the original
// query goes through unexpanded rather than blocking the pipeline.
func (e *Expander) Expand(ctx context.Context, q string, history []model.Interaction) (string, bool) {
	if e == nil || e.generator == nil {
		return q, false
	}
	if len(strings.Fields(q)) >= expandTokenThreshold || len(history) == 0 {
		return q, false
	}

	var b strings.Builder
	for _, turn := range history {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", turn.UserMessage, turn.BotResponse)
	}
	prompt := fmt.Sprintf(`Rewrite the follow-up question below into a single standalone question, using the conversation for missing context.
Output ONLY the rewritten question, nothing else.

CONVERSATION:
%s
FOLLOW-UP QUESTION: %s`, b.String(), q)

	expandCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	rewritten, err := e.generator.Generate(expandCtx, "", prompt)
	if err != nil {
		logutil.GetLogger(ctx).Warn("query expansion failed, using original query", zap.Error(err))
		return q, false
	}
	rewritten = strings.TrimSpace(strings.Trim(strings.TrimSpace(rewritten), `"`))
	if rewritten == "" {
		return q, false
	}
	return rewritten, true
}
