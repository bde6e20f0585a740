package repo

import (
	"context"
	"database/sql"
	"strings"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/campusdesk/campusdesk/internal/model"
)

// SessionRepo persists conversation sessions, their interaction log
// and the derived profile key/value pairs.
type SessionRepo struct {
	db *sqlx.DB
}

func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Create(ctx context.Context, sessionID string, now int64) error {
	data := map[string]interface{}{
		"session_id":  sessionID,
		"created_at":  now,
		"last_active": now,
	}
	sqlStr, args, err := builder.BuildInsert("sessions", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr = strings.Replace(sqlStr, "INSERT INTO", "INSERT OR IGNORE INTO", 1)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *SessionRepo) Exists(ctx context.Context, sessionID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM sessions WHERE session_id = ?", sessionID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *SessionRepo) AppendInteraction(ctx context.Context, sessionID string, in model.Interaction) error {
	data := map[string]interface{}{
		"session_id":   sessionID,
		"timestamp":    in.Timestamp,
		"user_message": in.UserMessage,
		"bot_response": in.BotResponse,
	}
	sqlStr, args, err := builder.BuildInsert("interactions", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, "UPDATE sessions SET last_active = ? WHERE session_id = ?", in.Timestamp, sessionID)
	return err
}

// History returns the last `limit` interactions in append order.
func (r *SessionRepo) History(ctx context.Context, sessionID string, limit int) ([]model.Interaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT timestamp, user_message, bot_response FROM (
			SELECT id, timestamp, user_message, bot_response
			FROM interactions WHERE session_id = ?
			ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Interaction
	for rows.Next() {
		var in model.Interaction
		if err := rows.Scan(&in.Timestamp, &in.UserMessage, &in.BotResponse); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *SessionRepo) SetProfile(ctx context.Context, sessionID, key, value string) error {
	data := map[string]interface{}{
		"session_id": sessionID,
		"key":        key,
		"value":      value,
	}
	sqlStr, args, err := builder.BuildInsert("profiles", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr = strings.Replace(sqlStr, "INSERT INTO", "INSERT OR REPLACE INTO", 1)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *SessionRepo) Profile(ctx context.Context, sessionID string) (map[string]string, error) {
	sqlStr, args, err := builder.BuildSelect("profiles", map[string]interface{}{"session_id": sessionID}, []string{"key", "value"})
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	for _, table := range []string{"interactions", "profiles", "sessions"} {
		sqlStr, args, err := builder.BuildDelete(table, map[string]interface{}{"session_id": sessionID})
		if err != nil {
			return err
		}
		if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
	}
	return nil
}

// IdleSessions lists sessions whose last activity predates cutoff;
// the cleanup job deletes them.
func (r *SessionRepo) IdleSessions(ctx context.Context, cutoff int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT session_id FROM sessions WHERE last_active < ?", cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
