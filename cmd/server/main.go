package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"anoa.com/userservice/internal/bootstrap"
	"anoa.com/userservice/internal/config"
	"anoa.com/userservice/internal/identity"
	searchService "anoa.com/userservice/internal/modules/search/service"
	"anoa.com/userservice/internal/server"
	"anoa.com/userservice/pkg/database"
	"anoa.com/userservice/pkg/logger"
	"anoa.com/userservice/pkg/storage"
	"anoa.com/userservice/pkg/threading"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", false)
		logger.Fatal("invalid configuration", err)
	}

	logger.Init(cfg.LogLevel, !cfg.IsProduction())
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("database connection failed", err)
	}
	defer database.Close(db)

	if err := bootstrap.Migrate(db); err != nil {
		logger.Fatal("migration failed", err)
	}
	if err := bootstrap.SeedInterests(db); err != nil {
		logger.Fatal("failed to seed interests", err)
	}

	runner := threading.New(logger.L())

	deps := server.Dependencies{
		Config:       cfg,
		Repositories: server.NewRepositories(db),
		Redis:        connectRedis(ctx, cfg),
		Indexer:      connectMeili(cfg),
		Runner:       runner,
	}

	if cfg.CloudinaryConfigured() {
		images, err := storage.NewCloudinaryStorage(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			logger.Fatal("failed to initialize cloudinary storage", err)
		}
		deps.Images = images
	} else {
		logger.Warn("cloudinary not configured, avatar uploads disabled")
	}

	deps.Verifier, deps.Claims = setupIdentity(ctx, cfg)

	srv := server.NewServer(deps)

	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv, "auth_mode", cfg.AuthMode)
		if err := srv.Run(); err != nil {
			logger.Fatal("server exited with error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	runner.Stop(cfg.ShutdownTimeout)

	if deps.Redis != nil {
		if err := deps.Redis.Close(); err != nil {
			logger.Warn("failed to close redis", "error", err)
		}
	}
}

func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, friend events and throttling disabled")
		return nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("invalid REDIS_URL", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, continuing without it", "error", err)
		client.Close()
		return nil
	}

	logger.Info("redis connected", "addr", opts.Addr)
	return client
}

func connectMeili(cfg *config.Config) searchService.UserSearchIndex {
	host := cfg.MeiliSearchHost
	if host == "" {
		logger.Warn("MEILISEARCH_HOST not set, search index mirroring disabled")
		return nil
	}
	if !strings.HasPrefix(host, "http") {
		host = "http://" + host + ":7700"
	}

	client := meilisearch.New(host, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	return searchService.NewMeiliSearchService(client, cfg.MeiliUsersIndex)
}

// setupIdentity builds the bearer verifier chain and the claim store. Firebase
// serves both when configured; the HS256 secret adds a second verifier.
func setupIdentity(ctx context.Context, cfg *config.Config) (identity.Verifier, identity.ClaimStore) {
	var (
		verifiers identity.ChainVerifier
		claims    identity.ClaimStore = identity.NoopClaimStore{}
	)

	if cfg.UseFirebase() {
		provider, err := identity.NewFirebaseProvider(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
		if err != nil {
			logger.Fatal("failed to initialize firebase", err)
		}
		verifiers = append(verifiers, provider)
		claims = provider
	}
	if cfg.JWTSecret != "" {
		verifiers = append(verifiers, identity.NewHMACVerifier(cfg.JWTSecret))
	}

	if len(verifiers) == 0 {
		return nil, claims
	}
	return verifiers, claims
}
