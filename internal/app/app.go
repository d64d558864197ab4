// Package app wires the API process together with fx.
package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/logging"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/server"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/storage"
	"github.com/foodgram/backend/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Module provides the API process. Supply a *config.Config or add
// fx.Provide(config.LoadConfig) alongside it.
var Module = fx.Options(
	fx.Provide(
		NewDatabase,
		NewRedis,
		store.New,
		NewMedia,
		NewTokenRevoker,
		NewAuthService,
		NewUserService,
		NewRecipeService,
		service.NewCatalogService,
		NewRouter,
		NewServer,
	),
	fx.Invoke(InitLogging, func(*server.Server) {}),
)

// InitLogging configures the global logger from cfg.
func InitLogging(cfg *config.Config) {
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
}

// NewDatabase opens the database and closes it when the application stops.
func NewDatabase(lc fx.Lifecycle, cfg *config.Config) (*gorm.DB, error) {
	db, err := database.New(cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !cfg.AutoMigrate && db.Dialector.Name() != "sqlite" {
				return nil
			}
			return database.RunMigrations(ctx, db)
		},
		OnStop: func(ctx context.Context) error {
			return database.Close(db)
		},
	})
	return db, nil
}

// NewRedis connects to Redis. The API runs without it, minus rate limiting
// and shared token revocation, so a failed connection yields a nil client.
func NewRedis(lc fx.Lifecycle, cfg *config.Config) *redis.Client {
	client, err := database.NewRedisClient(cfg)
	if err != nil {
		logging.Warn().Err(err).Msg("redis unavailable, continuing without rate limiting")
		return nil
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}

// Media is the image store and, for local storage, the directory to serve.
type Media struct {
	Store storage.ImageStore
	Root  string
}

// NewMedia stores images in S3 when a bucket is configured and on the local
// filesystem otherwise.
func NewMedia(cfg *config.Config) (*Media, error) {
	if cfg.S3BucketName == "" {
		logging.Info().Str("root", cfg.MediaRoot).Msg("storing media on the local filesystem")
		return &Media{Store: storage.NewLocalStore(cfg.MediaRoot, cfg.MediaBaseURL), Root: cfg.MediaRoot}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s3cfg, err := config.NewS3Config(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logging.Info().Str("bucket", s3cfg.BucketName).Msg("storing media in S3")
	return &Media{Store: storage.NewS3Store(s3cfg)}, nil
}

func NewTokenRevoker(client *redis.Client) service.TokenRevoker {
	if client == nil {
		return service.NewMemoryTokenRevoker()
	}
	return service.NewRedisTokenRevoker(client)
}

func NewAuthService(cfg *config.Config, stores *store.Stores, revoker service.TokenRevoker) *service.AuthService {
	return service.NewAuthService(stores.Users, cfg.JWTSecret, cfg.JWTTTL, revoker)
}

func NewUserService(stores *store.Stores, media *Media) *service.UserService {
	return service.NewUserService(stores, media.Store)
}

func NewRecipeService(stores *store.Stores, media *Media) *service.RecipeService {
	return service.NewRecipeService(stores, media.Store)
}

type routerParams struct {
	fx.In

	Config  *config.Config
	DB      *gorm.DB
	Redis   *redis.Client
	Media   *Media
	Auth    *service.AuthService
	Users   *service.UserService
	Recipes *service.RecipeService
	Catalog *service.CatalogService
}

func NewRouter(p routerParams) *gin.Engine {
	var limiter *middleware.RateLimiter
	if p.Redis != nil && p.Config.RecipeRateLimit > 0 {
		limiter = middleware.NewRecipeCreationRateLimiter(p.Redis, p.Config.RecipeRateLimit)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return router.SetupRouter(router.Options{
		DB: p.DB,
		Services: api.Services{
			Auth:    p.Auth,
			Users:   p.Users,
			Recipes: p.Recipes,
			Catalog: p.Catalog,
		},
		Pagination: api.Pagination{
			BaseURL:     p.Config.BaseURL,
			PageSize:    p.Config.PageSize,
			MaxPageSize: p.Config.MaxPageSize,
		},
		CORSOrigins:     p.Config.CORSAllowedOrigins,
		CreationLimiter: limiter,
		Registry:        registry,
		MediaRoot:       p.Media.Root,
	})
}

// NewServer starts the HTTP server with the application and shuts it down
// gracefully when the application stops.
func NewServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine) *server.Server {
	srv := server.New(cfg.Addr(), engine)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return srv.Start()
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	})
	return srv
}
