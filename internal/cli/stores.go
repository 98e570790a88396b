package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"quiz-widget/internal/app"
	"quiz-widget/internal/config"
	"quiz-widget/internal/domain"
	"quiz-widget/internal/infra/file"
	"quiz-widget/internal/infra/memory"
	pgstore "quiz-widget/internal/infra/postgres"
	redisstore "quiz-widget/internal/infra/redis"
)

const defaultStateDir = ".quiz"

// openSnapshotStore connects the configured backend. The returned func releases its connections.
func openSnapshotStore(ctx context.Context, cfg config.Config, fallback string, log zerolog.Logger) (app.SnapshotStore, func(), error) {
	backend := cfg.StorageBackend(fallback)
	log.Info().Str("backend", backend).Msg("snapshot storage")

	switch backend {
	case config.BackendMemory:
		return memory.NewSnapshotStore(), func() {}, nil
	case config.BackendFile:
		dir := cfg.Storage.Dir
		if dir == "" {
			dir = defaultStateDir
		}
		store, err := file.NewSnapshotStore(dir)
		return store, func() {}, err
	case config.BackendRedis:
		if cfg.Redis.Addr == "" {
			return nil, nil, fmt.Errorf("redis addr not configured")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		ttl := config.Duration(cfg.Redis.TTL, 7*24*time.Hour)
		return redisstore.NewSnapshotStore(client, ttl), func() { client.Close() }, nil
	case config.BackendPostgres:
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return pgstore.NewSnapshotStore(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// newQuestionRepository serves question sets from quiz.questionsDir, or the built-in set when unset.
func newQuestionRepository(cfg config.Config) app.QuestionRepository {
	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(map[string][]domain.Question{
		cfg.Quiz.Set: sampleQuestions(),
	})
	if cfg.Quiz.QuestionsDir != "" {
		loader = file.NewQuestionLoader(cfg.Quiz.QuestionsDir)
	}
	return memory.NewQuestionRepository(loader, config.Duration(cfg.Quiz.CacheTTL, 0))
}

func newSessionFactory(cfg config.Config, store app.SnapshotStore, log zerolog.Logger) *app.SessionFactory {
	return &app.SessionFactory{
		Questions: newQuestionRepository(cfg),
		Set:       cfg.Quiz.Set,
		Store:     store,
		Scheduler: app.TickerScheduler{},
		Duration:  config.Duration(cfg.Quiz.Duration, app.DefaultDuration),
		Tick:      config.Duration(cfg.Quiz.Tick, app.DefaultTick),
		Logger:    log,
	}
}

// sampleQuestions is the built-in question set used when no questions directory is configured.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			Text:          "Which keyword starts a goroutine in Go?",
			Options:       []string{"async", "go", "spawn", "thread"},
			CorrectAnswer: 1,
		},
		{
			Text:          "What does a nil map return when you read a missing key?",
			Options:       []string{"It panics", "The zero value", "An error", "nil always"},
			CorrectAnswer: 1,
		},
		{
			Text:          "Which statement runs a call when the surrounding function returns?",
			Options:       []string{"finally", "ensure", "defer", "after"},
			CorrectAnswer: 2,
		},
	}
}
