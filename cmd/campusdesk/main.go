package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/campusdesk/campusdesk/internal/ai"
	"github.com/campusdesk/campusdesk/internal/cache"
	"github.com/campusdesk/campusdesk/internal/config"
	"github.com/campusdesk/campusdesk/internal/conversation"
	"github.com/campusdesk/campusdesk/internal/embedcache"
	"github.com/campusdesk/campusdesk/internal/handler"
	"github.com/campusdesk/campusdesk/internal/index"
	"github.com/campusdesk/campusdesk/internal/ingest"
	"github.com/campusdesk/campusdesk/internal/job"
	"github.com/campusdesk/campusdesk/internal/knowledge"
	"github.com/campusdesk/campusdesk/internal/middleware"
	"github.com/campusdesk/campusdesk/internal/query"
	"github.com/campusdesk/campusdesk/internal/rag"
	"github.com/campusdesk/campusdesk/internal/repo"
	"github.com/campusdesk/campusdesk/internal/retrieval"
	"github.com/campusdesk/campusdesk/internal/schedule"
	"github.com/campusdesk/campusdesk/internal/speech"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "campusdesk",
		Short: "campusdesk college q&a backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run campusdesk server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func buildGenerator(cfg config.AIConfig) (ai.IGenerator, error) {
	entries := make([]ai.GeneratorEntry, 0, len(cfg.Generators))
	for _, pc := range cfg.Generators {
		provider, err := ai.NewProvider(pc.Provider, pc.Data)
		if err != nil {
			return nil, fmt.Errorf("init generator %s: %w", pc.Provider, err)
		}
		entries = append(entries, ai.GeneratorEntry{
			Name:      pc.Provider + "/" + pc.Model,
			Generator: ai.NewGenerator(provider, pc.Model),
		})
	}
	return ai.NewGroupGenerator(entries), nil
}

func buildEmbedder(cfg config.AIConfig) (ai.IEmbedder, error) {
	entries := make([]ai.EmbedderEntry, 0, len(cfg.Embedders))
	for _, pc := range cfg.Embedders {
		provider, err := ai.NewEmbedProvider(pc.Provider, pc.Data)
		if err != nil {
			return nil, fmt.Errorf("init embedder %s: %w", pc.Provider, err)
		}
		entries = append(entries, ai.EmbedderEntry{
			Name:     pc.Model,
			Embedder: ai.NewEmbedder(provider, pc.Model),
		})
	}
	embedder := ai.NewGroupEmbedder(entries)
	return embedcache.WrapLruCacheToEmbedder(
		embedder,
		cfg.EmbedCache.Size,
		time.Duration(cfg.EmbedCache.TTLHours)*time.Hour,
	), nil
}

func runServer(cfg *config.Config) error {
	db, err := repo.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if err := repo.ApplyMigrations(db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	generator, err := buildGenerator(cfg.AI)
	if err != nil {
		return err
	}
	embedder, err := buildEmbedder(cfg.AI)
	if err != nil {
		return err
	}

	vector, err := index.NewVectorIndex(cfg.VectorDir, embedder)
	if err != nil {
		return fmt.Errorf("init vector index: %w", err)
	}

	chunkRepo := repo.NewChunkRepo(db)
	sessionRepo := repo.NewSessionRepo(db)
	conversations := conversation.NewStore(sessionRepo)
	lookup := knowledge.Load(cfg.KnowledgePath)
	expander := query.NewExpander(generator, time.Duration(cfg.ExpandSecs)*time.Second)
	retriever := retrieval.NewHybridRetriever(cfg.Retrieval.LexicalWeight, cfg.Retrieval.SemanticWeight, cfg.Retrieval.MaxPerSource)
	responses := cache.NewResponseCache(cfg.Cache.Capacity, time.Duration(cfg.Cache.TTLMinutes)*time.Minute)
	processor := ingest.NewProcessor(cfg.Chunking.TargetSize, cfg.Chunking.Overlap)

	orch := rag.NewOrchestrator(
		chunkRepo,
		conversations,
		lookup,
		expander,
		retriever,
		responses,
		generator,
		vector,
		processor,
		rag.Options{
			TopK:            cfg.Retrieval.TopK,
			GenerateTimeout: time.Duration(cfg.GenerateSecs) * time.Second,
			HistoryLimit:    cfg.Session.HistoryLimit,
		},
	)
	if err := orch.Start(context.Background()); err != nil {
		return fmt.Errorf("start orchestrator: %w", err)
	}
	defer orch.Stop()

	synthesizer := speech.NewGoogleTTS(speech.GoogleTTSConfig{
		Lang: cfg.Speech.TTS.Lang,
		TLD:  cfg.Speech.TTS.TLD,
	})
	transcriber := speech.NewSpeechmatics(speech.SpeechmaticsConfig{
		APIKey:   cfg.Speech.STT.APIKey,
		BaseURL:  cfg.Speech.STT.BaseURL,
		Language: cfg.Speech.STT.Language,
	})

	deps := handler.RouterDeps{
		QA:     handler.NewQAHandler(orch),
		Voice:  handler.NewVoiceHandler(orch, synthesizer, transcriber),
		Admin:  handler.NewAdminHandler(orch, cfg.UploadDir),
		Health: handler.NewHealthHandler(orch),
	}

	scheduler := schedule.NewCronScheduler()
	cleanup := job.NewSessionCleanupJob(conversations, time.Duration(cfg.Session.IdleTTLHours)*time.Hour)
	if err := scheduler.AddJob(cleanup, cfg.Session.CleanupExpr); err != nil {
		return fmt.Errorf("schedule session cleanup: %w", err)
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
			if cfg.EnableMetrics {
				group.GET("/metrics", gin.WrapH(promhttp.Handler()))
			}
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(nil),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
