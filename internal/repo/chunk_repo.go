package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/campusdesk/campusdesk/internal/model"
)

// ChunkRepo is the corpus-of-record: every ingested chunk lands here
// in insertion order, and index rebuilds read the full list back.
type ChunkRepo struct {
	db *sqlx.DB
}

func NewChunkRepo(db *sqlx.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

func (r *ChunkRepo) Append(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(chunks))
	for _, c := range chunks {
		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("encode chunk metadata: %w", err)
		}
		rows = append(rows, map[string]interface{}{
			"source":   c.Source,
			"position": c.Position,
			"text":     c.Text,
			"metadata": string(meta),
		})
	}
	sqlStr, args, err := builder.BuildInsert("chunks", rows)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// List returns every chunk ordered by insertion. The ordinal position
// of a chunk in this slice is the chunk index both indexes use.
func (r *ChunkRepo) List(ctx context.Context) ([]model.Chunk, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT source, position, text, metadata FROM chunks ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var chunks []model.Chunk
	for rows.Next() {
		var c model.Chunk
		var meta string
		if err := rows.Scan(&c.Source, &c.Position, &c.Text, &meta); err != nil {
			return nil, err
		}
		if meta != "" && meta != "{}" {
			if err := json.Unmarshal([]byte(meta), &c.Metadata); err != nil {
				return nil, fmt.Errorf("decode chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (r *ChunkRepo) DeleteBySource(ctx context.Context, source string) (int64, error) {
	sqlStr, args, err := builder.BuildDelete("chunks", map[string]interface{}{"source": source})
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *ChunkRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM chunks")
	return err
}

// Sources returns chunk counts per source document, for the admin
// stats endpoint.
func (r *ChunkRepo) Sources(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT source, COUNT(*) FROM chunks GROUP BY source")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, err
		}
		out[source] = count
	}
	return out, rows.Err()
}
