package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/campusdesk/campusdesk/internal/model"
	"github.com/campusdesk/campusdesk/internal/repo"
)

const DefaultHistoryLimit = 5

// Store tracks per-session interaction logs and the profile facts
// derived from them. Within one session appends happen in receipt
// order; across sessions no ordering is promised.
type Store struct {
	sessions *repo.SessionRepo

	mu  sync.Mutex
	now func() time.Time
}

func NewStore(sessions *repo.SessionRepo) *Store {
	return &Store{
		sessions: sessions,
		now:      time.Now,
	}
}

func (s *Store) Create(ctx context.Context, sessionID string) error {
	return s.sessions.Create(ctx, sessionID, s.now().Unix())
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// Append records one turn and updates any profile facts found in the
// user message. Profile extraction is best-effort; its failure never
// loses the interaction itself.
func (s *Store) Append(ctx context.Context, sessionID, userMessage, botResponse string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sessions.Create(ctx, sessionID, s.now().Unix()); err != nil {
		return err
	}
	err := s.sessions.AppendInteraction(ctx, sessionID, model.Interaction{
		Timestamp:   s.now().Unix(),
		UserMessage: userMessage,
		BotResponse: botResponse,
	})
	if err != nil {
		return err
	}
	for key, value := range DetectProfile(userMessage) {
		if err := s.sessions.SetProfile(ctx, sessionID, key, value); err != nil {
			logutil.GetLogger(ctx).Warn("profile update failed",
				zap.String("session_id", sessionID),
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]model.Interaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.sessions.History(ctx, sessionID, limit)
}

func (s *Store) Profile(ctx context.Context, sessionID string) (map[string]string, error) {
	return s.sessions.Profile(ctx, sessionID)
}

func (s *Store) IdleSessions(ctx context.Context, cutoff time.Time) ([]string, error) {
	return s.sessions.IdleSessions(ctx, cutoff.Unix())
}
