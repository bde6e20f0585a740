package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `{
	"db_path": "/tmp/campusdesk.db",
	"vector_dir": "/tmp/vectors",
	"upload_dir": "/tmp/uploads",
	"port": 8080,
	"ai": {
		"generators": [{"provider": "gemini", "model": "gemini-2.0-flash", "data": {"api_key": "k"}}],
		"embedders": [{"provider": "gemini", "model": "text-embedding-004", "data": {"api_key": "k"}}]
	}
}`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, 5, cfg.Retrieval.TopK)
	require.Equal(t, 0.6, cfg.Retrieval.LexicalWeight)
	require.Equal(t, 0.4, cfg.Retrieval.SemanticWeight)
	require.Equal(t, 2, cfg.Retrieval.MaxPerSource)
	require.Equal(t, 1000, cfg.Chunking.TargetSize)
	require.Equal(t, 200, cfg.Chunking.Overlap)
	require.Equal(t, 500, cfg.Cache.Capacity)
	require.Equal(t, 60, cfg.Cache.TTLMinutes)
	require.Equal(t, 5, cfg.Session.HistoryLimit)
	require.Equal(t, 24, cfg.Session.IdleTTLHours)
	require.Equal(t, "0 * * * *", cfg.Session.CleanupExpr)
	require.Equal(t, 30, cfg.GenerateSecs)
	require.Equal(t, 8, cfg.ExpandSecs)
	require.Equal(t, 4096, cfg.AI.EmbedCache.Size)
	require.Equal(t, 24, cfg.AI.EmbedCache.TTLHours)
}

func TestLoadMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing db_path", body: `{"vector_dir":"v","upload_dir":"u","port":8080,"ai":{"generators":[{"provider":"x","model":"m"}],"embedders":[{"provider":"x","model":"m"}]}}`},
		{name: "missing port", body: `{"db_path":"d","vector_dir":"v","upload_dir":"u","ai":{"generators":[{"provider":"x","model":"m"}],"embedders":[{"provider":"x","model":"m"}]}}`},
		{name: "no generators", body: `{"db_path":"d","vector_dir":"v","upload_dir":"u","port":8080,"ai":{"embedders":[{"provider":"x","model":"m"}]}}`},
		{name: "generator without model", body: `{"db_path":"d","vector_dir":"v","upload_dir":"u","port":8080,"ai":{"generators":[{"provider":"x"}],"embedders":[{"provider":"x","model":"m"}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}
}

func TestLoadRejectsOversizedOverlap(t *testing.T) {
	body := `{
		"db_path": "d", "vector_dir": "v", "upload_dir": "u", "port": 8080,
		"chunking": {"target_size": 100, "overlap": 100},
		"ai": {
			"generators": [{"provider": "x", "model": "m"}],
			"embedders": [{"provider": "x", "model": "m"}]
		}
	}`
	_, err := Load(writeConfig(t, body))
	require.Error(t, err)
	require.Contains(t, err.Error(), "overlap")
}

func TestLoadUnreadableFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "{not json"))
	require.Error(t, err)
}
