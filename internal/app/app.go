// Package app wires configuration, storage, caches, external providers,
// services and the HTTP transport into a running process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/openagora/agora/internal/adapter/kv"
	"github.com/openagora/agora/internal/adapter/postgres"
	"github.com/openagora/agora/internal/adapter/postgres/agenda"
	"github.com/openagora/agora/internal/adapter/postgres/comment"
	"github.com/openagora/agora/internal/adapter/postgres/conversation"
	"github.com/openagora/agora/internal/adapter/postgres/participant"
	"github.com/openagora/agora/internal/adapter/postgres/subject"
	"github.com/openagora/agora/internal/adapter/postgres/vote"
	"github.com/openagora/agora/internal/adapter/postgres/xid"
	"github.com/openagora/agora/internal/adapter/provider/mathengine"
	"github.com/openagora/agora/internal/adapter/provider/moderation"
	"github.com/openagora/agora/internal/adapter/provider/translate"
	"github.com/openagora/agora/internal/adapter/queue"
	"github.com/openagora/agora/internal/auth"
	"github.com/openagora/agora/internal/config"
	accountsvc "github.com/openagora/agora/internal/service/account"
	conversationsvc "github.com/openagora/agora/internal/service/conversation"
	"github.com/openagora/agora/internal/service/identity"
	"github.com/openagora/agora/internal/service/ingest"
	"github.com/openagora/agora/internal/service/scheduler"
	"github.com/openagora/agora/internal/transport/middleware"
	"github.com/openagora/agora/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, connects to
// PostgreSQL and Redis, assembles the services and serves HTTP until ctx is
// cancelled, then shuts down gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	redisClient, err := kv.NewClient(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	taskClient, err := queue.NewAsynqClient(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create task client: %w", err)
	}
	defer taskClient.Close()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)

	// Repositories.
	subjects := subject.New(pool)
	participants := participant.New(pool)
	conversations := conversation.New(pool)
	comments := comment.New(pool)
	votes := vote.New(pool)
	xids := xid.New(pool)
	agendas := agenda.New(pool)

	// Caches.
	snapshots := kv.NewSnapshotCache(redisClient, cfg.Redis.SnapshotTTL)
	translations := kv.NewTranslationCache(redisClient, cfg.Redis.TranslateTTL)

	// External providers. Moderation and translation fall back to in-process
	// stubs when no endpoint is configured so local development does not
	// require the full deployment.
	var classifier interface {
		Classify(ctx context.Context, text, context_ string) (moderation.Verdict, error)
	}
	if cfg.Moderation.BaseURL != "" {
		classifier = moderation.NewClient(cfg.Moderation.BaseURL, cfg.Moderation.Timeout, logger)
	} else {
		logger.Warn("moderation endpoint not configured, approving all content")
		classifier = moderation.NewStub()
	}

	var translator interface {
		Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
	}
	if cfg.Translation.BaseURL != "" {
		translator = translate.NewClient(cfg.Translation.BaseURL, cfg.Translation.Timeout, logger)
	} else {
		logger.Warn("translation endpoint not configured, serving originals")
		translator = translate.NewStub()
	}

	engine := mathengine.NewClient(cfg.MathEngine.BaseURL, cfg.MathEngine.Timeout, logger)

	// Services.
	txManager := postgres.NewTxManager(pool)

	identitySvc := identity.New(subjects, participants, conversations, xids, tokens, logger)
	ingestSvc := ingest.New(conversations, votes, comments, xids, identitySvc, classifier,
		txManager, taskClient, cfg.Queue.BookkeepingDelay, logger)
	schedulerSvc := scheduler.New(comments, votes, agendas, snapshots, engine, engine,
		translations, translator, cfg.Scheduler.TopicPoolRatio, nil, logger)
	conversationSvc := conversationsvc.New(conversations, comments, xids, agendas, logger)
	accountSvc := accountsvc.New(subjects, tokens, logger)

	// HTTP transport.
	limiter := middleware.NewRateLimiter(time.Minute)
	defer limiter.Stop()

	base := middleware.Chain(
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
		limiter.Limit(cfg.Server.RateLimitPerMin),
		middleware.Account(tokens),
	)

	router := rest.NewRouter(rest.RouterDeps{
		Participation:  rest.NewParticipationHandler(identitySvc, ingestSvc, schedulerSvc, conversationSvc, conversationSvc, logger),
		Conversations:  rest.NewConversationHandler(conversationSvc, logger),
		Auth:           rest.NewAuthHandler(accountSvc, logger),
		Health:         rest.NewHealthHandler(pool, kv.Pinger{Client: redisClient}, BuildVersion()),
		Base:           base,
		RequireAccount: middleware.RequireAccount(),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
