package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
	"github.com/tbxark/loanagent/agent"
	"github.com/tbxark/loanagent/catalog"
	"github.com/tbxark/loanagent/config"
	"github.com/tbxark/loanagent/dialogue"
	"github.com/tbxark/loanagent/extract"
	"github.com/tbxark/loanagent/sink"
)

type app struct {
	flow   *agent.Flow
	logger *slog.Logger
	db     *sql.DB
	rdb    *redis.Client
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	a := &app{logger: logger}

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		cat, err = catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
	}

	extractor, err := newExtractor(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sinks := []sink.Sink{sink.NewCSVSink(cfg.CSVPath)}
	if cfg.DatabaseURL != "" {
		a.db, err = sink.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		sqlSink := sink.NewSQLSink(a.db, cat.Name())
		if err := sqlSink.Migrate(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		sinks = append(sinks, sqlSink)
	}

	snapshots := agent.NewMemorySnapshotStore()
	transcripts := agent.NewMemoryTranscriptStore(agent.KeepLastNTrimmer{N: 100})
	if cfg.RedisAddr != "" {
		ttl, err := cfg.TTL()
		if err != nil {
			a.Close()
			return nil, err
		}
		a.rdb, err = agent.DialRedis(ctx, cfg.RedisAddr)
		if err != nil {
			a.Close()
			return nil, err
		}
		snapshots = agent.NewSnapshotStore(agent.NewRedisCache[*dialogue.Snapshot](a.rdb, ttl))
		transcripts = agent.NewTranscriptStore(agent.NewRedisCache[[]*schema.Message](a.rdb, ttl), agent.KeepLastNTrimmer{N: 100})
	}

	a.flow, err = agent.NewFlow(
		cat,
		extractor,
		sink.Multi(sinks...),
		snapshots,
		agent.WithTranscripts(transcripts),
		agent.WithEngineOptions(dialogue.WithLogger(logger)),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	logger.Info("Loan agent ready",
		"catalog", cat.Name(),
		"csv", cfg.CSVPath,
		"postgres", a.db != nil,
		"redis", a.rdb != nil,
		"llm", cfg.HasModel(),
	)
	return a, nil
}

// newExtractor uses the LLM when a model is configured. Model failures are
// reported to the engine, which asks the question again.
func newExtractor(ctx context.Context, cfg *config.Config) (extract.Extractor, error) {
	if !cfg.HasModel() {
		slog.Warn("No api_key configured, answers are stored verbatim")
		return extract.New(nil), nil
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	tool, err := extract.NewToolBasedExtractor(cm)
	if err != nil {
		return nil, err
	}
	return extract.New(tool), nil
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
}
