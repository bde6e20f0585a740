package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	DBPath        string           `json:"db_path"`
	VectorDir     string           `json:"vector_dir"`
	UploadDir     string           `json:"upload_dir"`
	KnowledgePath string           `json:"knowledge_path"`
	Port          int              `json:"port"`
	LogConfig     logger.LogConfig `json:"log_config"`
	AI            AIConfig         `json:"ai"`
	Retrieval     RetrievalConfig  `json:"retrieval"`
	Chunking      ChunkingConfig   `json:"chunking"`
	Cache         CacheConfig      `json:"cache"`
	Session       SessionConfig    `json:"session"`
	Speech        SpeechConfig     `json:"speech"`
	GenerateSecs  int              `json:"generate_timeout_secs"`
	ExpandSecs    int              `json:"expand_timeout_secs"`
	EnableMetrics bool             `json:"enable_metrics"`
}

// AIConfig describes the provider chains. Each entry names a
// registered provider and carries its raw options; entries are tried
// in order until one answers.
type AIConfig struct {
	Generators []ProviderConfig `json:"generators"`
	Embedders  []ProviderConfig `json:"embedders"`
	EmbedCache EmbedCacheConfig `json:"embed_cache"`
}

type ProviderConfig struct {
	Provider string                 `json:"provider"`
	Model    string                 `json:"model"`
	Data     map[string]interface{} `json:"data"`
}

type EmbedCacheConfig struct {
	Size     int `json:"size"`
	TTLHours int `json:"ttl_hours"`
}

type RetrievalConfig struct {
	TopK           int     `json:"top_k"`
	LexicalWeight  float64 `json:"lexical_weight"`
	SemanticWeight float64 `json:"semantic_weight"`
	MaxPerSource   int     `json:"max_per_source"`
}

type ChunkingConfig struct {
	TargetSize int `json:"target_size"`
	Overlap    int `json:"overlap"`
}

type CacheConfig struct {
	Capacity   int `json:"capacity"`
	TTLMinutes int `json:"ttl_minutes"`
}

type SessionConfig struct {
	HistoryLimit int    `json:"history_limit"`
	IdleTTLHours int    `json:"idle_ttl_hours"`
	CleanupExpr  string `json:"cleanup_expr"`
}

type SpeechConfig struct {
	TTS GoogleTTSConfig    `json:"tts"`
	STT SpeechmaticsConfig `json:"stt"`
}

type GoogleTTSConfig struct {
	Lang string `json:"lang"`
	TLD  string `json:"tld"`
}

type SpeechmaticsConfig struct {
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url"`
	Language string `json:"language"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db_path is required")
	}
	if cfg.VectorDir == "" {
		return nil, fmt.Errorf("vector_dir is required")
	}
	if cfg.UploadDir == "" {
		return nil, fmt.Errorf("upload_dir is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if len(cfg.AI.Generators) == 0 {
		return nil, fmt.Errorf("ai.generators is required")
	}
	if len(cfg.AI.Embedders) == 0 {
		return nil, fmt.Errorf("ai.embedders is required")
	}
	for i, p := range cfg.AI.Generators {
		if p.Provider == "" || p.Model == "" {
			return nil, fmt.Errorf("ai.generators[%d] needs provider and model", i)
		}
	}
	for i, p := range cfg.AI.Embedders {
		if p.Provider == "" || p.Model == "" {
			return nil, fmt.Errorf("ai.embedders[%d] needs provider and model", i)
		}
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.EmbedCache.Size == 0 {
		cfg.AI.EmbedCache.Size = 4096
	}
	if cfg.AI.EmbedCache.TTLHours == 0 {
		cfg.AI.EmbedCache.TTLHours = 24
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.LexicalWeight == 0 && cfg.Retrieval.SemanticWeight == 0 {
		cfg.Retrieval.LexicalWeight = 0.6
		cfg.Retrieval.SemanticWeight = 0.4
	}
	if cfg.Retrieval.MaxPerSource == 0 {
		cfg.Retrieval.MaxPerSource = 2
	}
	if cfg.Chunking.TargetSize == 0 {
		cfg.Chunking.TargetSize = 1000
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 200
	}
	if cfg.Chunking.Overlap >= cfg.Chunking.TargetSize {
		return nil, fmt.Errorf("chunking.overlap must be smaller than chunking.target_size")
	}
	if cfg.Cache.Capacity == 0 {
		cfg.Cache.Capacity = 500
	}
	if cfg.Cache.TTLMinutes == 0 {
		cfg.Cache.TTLMinutes = 60
	}
	if cfg.Session.HistoryLimit == 0 {
		cfg.Session.HistoryLimit = 5
	}
	if cfg.Session.IdleTTLHours == 0 {
		cfg.Session.IdleTTLHours = 24
	}
	if cfg.Session.CleanupExpr == "" {
		cfg.Session.CleanupExpr = "0 * * * *"
	}
	if cfg.GenerateSecs == 0 {
		cfg.GenerateSecs = 30
	}
	if cfg.ExpandSecs == 0 {
		cfg.ExpandSecs = 8
	}
	return &cfg, nil
}
