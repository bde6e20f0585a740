package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/campusdesk/campusdesk/internal/conversation"
)

// SessionCleanupJob drops sessions idle past the TTL so abandoned
// kiosk conversations don't accumulate forever.
type SessionCleanupJob struct {
	store *conversation.Store
	ttl   time.Duration
}

func NewSessionCleanupJob(store *conversation.Store, ttl time.Duration) *SessionCleanupJob {
	return &SessionCleanupJob{store: store, ttl: ttl}
}

func (j *SessionCleanupJob) Name() string {
	return "session_cleanup"
}

func (j *SessionCleanupJob) Run(ctx context.Context) error {
	if j.store == nil || j.ttl <= 0 {
		return nil
	}
	idle, err := j.store.IdleSessions(ctx, time.Now().Add(-j.ttl))
	if err != nil {
		return err
	}
	for _, sessionID := range idle {
		if err := j.store.Delete(ctx, sessionID); err != nil {
			logutil.GetLogger(ctx).Warn("delete idle session failed", zap.String("session_id", sessionID), zap.Error(err))
			continue
		}
	}
	if len(idle) > 0 {
		logutil.GetLogger(ctx).Info("idle sessions removed", zap.Int("count", len(idle)))
	}
	return nil
}
