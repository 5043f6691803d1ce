// Command server runs the FAZ PRA MIM marketplace API.
//
// @title                       FAZ PRA MIM Marketplace API
// @version                     1.0
// @description                 Sessions, validated forms, provider search, service requests and chat.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/fazpramim/marketplace/internal/api"
	"github.com/fazpramim/marketplace/internal/api/handler"
	"github.com/fazpramim/marketplace/internal/api/metrics"
	"github.com/fazpramim/marketplace/internal/core/domain"
	"github.com/fazpramim/marketplace/internal/core/ports"
	"github.com/fazpramim/marketplace/internal/core/service"
	"github.com/fazpramim/marketplace/internal/infrastructure/catalog"
	"github.com/fazpramim/marketplace/internal/infrastructure/db/memory"
	"github.com/fazpramim/marketplace/internal/infrastructure/db/mongo"
	"github.com/fazpramim/marketplace/internal/infrastructure/db/redis"
	"github.com/fazpramim/marketplace/internal/infrastructure/queue"
	"github.com/fazpramim/marketplace/internal/pkg/config"
	"github.com/fazpramim/marketplace/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	sessionPrefix   = "fpm:"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Env: cfg.Env})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	readiness := map[string]handler.Check{}

	var (
		db       *mongodriver.Database
		accounts ports.AccountRepository = memory.NewAccountRepository()
		requests ports.RequestRepository = memory.NewRequestRepository()
	)
	if cfg.UsesMongo() {
		client, database, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		db = database
		readiness["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb connected")
	}
	if cfg.Backend == config.BackendMongo {
		accountRepo := mongo.NewAccountRepository(db)
		requestRepo := mongo.NewRequestRepository(db)
		if err := mongo.EnsureIndexes(ctx, accountRepo, requestRepo); err != nil {
			return err
		}
		accounts, requests = accountRepo, requestRepo
	}

	var (
		kv    ports.KeyValueStore = memory.NewKVStore()
		dedup ports.DedupChecker
	)
	if cfg.SessionStore == config.BackendRedis {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		kv = redis.NewKVStore(rdb, sessionPrefix, cfg.Redis.SessionTTL)
		dedup = redis.NewDedupChecker(rdb)
		readiness["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}

	source, err := catalogSource(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	search, err := service.NewSearchService(ctx, source, logger.Component("search"))
	if err != nil {
		return err
	}

	secret := cfg.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn().Msg("JWT_SECRET not set, using an ephemeral secret")
	}

	runner := service.NewFormRunner(
		service.NewFormRegistry(cfg.Forms.IdleTTL),
		service.NewNavigationLog(),
		cfg.Forms.SubmitTimeout,
		logger.Component("forms"),
	)
	directory := service.NewAccountService(accounts)
	sessions := service.NewSessionRegistry(kv, directory, logger.Component("sessions"))
	sessions.SetIdleTTL(cfg.TokenTTL)
	authService := service.NewAuthService(
		sessions,
		directory,
		service.NewTokenIssuer(secret, cfg.TokenTTL),
		runner,
		cfg.Forms.RegisterRedirectDelay,
		logger.Component("auth"),
	)

	chat := service.NewChatService(nil, cfg.Chat.ReplyDelay, logger.Component("chat"))
	dispatcher := queue.NewDispatcher(cfg.Chat.Workers, chat, logger.Component("replies"))
	chat.SetScheduler(dispatcher)
	chat.OnMessage(func(msg domain.ChatMessage) { metrics.ObserveChatMessage(string(msg.Sender)) })
	dispatcher.Start(ctx)
	metrics.RegisterReplyQueue(dispatcher.Pending)

	sessions.OnLogout(runner.CloseOwner)
	sessions.OnLogout(chat.CloseSession)

	e := api.NewRouter(api.Dependencies{
		Log:           logger.Component("http"),
		JWTSecret:     secret,
		AuthRateLimit: cfg.AuthRateLimit,
		Auth:          authService,
		Sessions:      sessions,
		Runner:        runner,
		Search:        search,
		Requests:      service.NewRequestService(requests, dedup, runner, logger.Component("requests")),
		Chat:          chat,
		Profiles:      service.NewProfileService(runner),
		Readiness:     readiness,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.Backend).Str("session_store", cfg.SessionStore).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// catalogSource returns the embedded catalog, or the Mongo providers
// collection seeded from it on first start.
func catalogSource(ctx context.Context, cfg *config.Config, db *mongodriver.Database, log zerolog.Logger) (ports.CatalogSource, error) {
	static, err := catalog.NewStaticSource()
	if err != nil {
		return nil, err
	}
	if cfg.CatalogSource != config.BackendMongo {
		return static, nil
	}

	repo := mongo.NewCatalogRepository(db)
	if err := mongo.EnsureIndexes(ctx, repo); err != nil {
		return nil, err
	}
	records, _ := static.LoadProviders(ctx)
	details, _ := static.LoadDetails(ctx)
	seeded, err := repo.SeedIfEmpty(ctx, records, details)
	if err != nil {
		return nil, err
	}
	if seeded {
		log.Info().Int("providers", len(records)).Msg("provider catalog seeded")
	}
	return repo, nil
}
