// Package wire 提供依赖装配
package wire

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"novel-kb-api/internal/application/kb"
	"novel-kb-api/internal/config"
	"novel-kb-api/internal/domain/entity"
	"novel-kb-api/internal/infrastructure/docsource"
	"novel-kb-api/internal/infrastructure/persistence/postgres"
	"novel-kb-api/internal/infrastructure/persistence/redis"
	"novel-kb-api/internal/interfaces/http/handler"
	"novel-kb-api/internal/interfaces/http/middleware"
	"novel-kb-api/internal/interfaces/http/router"
	"novel-kb-api/pkg/logger"
)

// App 装配完成的应用依赖
type App struct {
	Config   *config.Config
	Registry *entity.Registry

	PgClient    *postgres.Client
	RedisClient *redis.Client
	Cache       *redis.Cache

	Indexer *kb.Indexer
	Service *kb.Service
	Router  *router.Router
}

// Close 释放外部连接
func (a *App) Close() {
	ctx := context.Background()
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			logger.Warn(ctx, "关闭 Redis 连接失败", "error", err.Error())
		}
	}
	if a.PgClient != nil {
		if err := a.PgClient.Close(); err != nil {
			logger.Warn(ctx, "关闭数据库连接失败", "error", err.Error())
		}
	}
}

// BuildRegistry 由配置构造文档注册表
func BuildRegistry(cfg *config.Config) *entity.Registry {
	docs := make([]entity.Document, 0, len(cfg.KnowledgeBase.Documents))
	for _, d := range cfg.KnowledgeBase.Documents {
		docs = append(docs, entity.Document{
			Key:             d.Key,
			Title:           d.Title,
			Path:            d.Path,
			DefaultPriority: d.DefaultPriority,
		})
	}
	return entity.NewRegistry(docs, cfg.KnowledgeBase.AlwaysOn, cfg.KnowledgeBase.AlwaysCritical)
}

// BuildCore 装配应用核心（索引器与检索服务）。
// cache 可为 nil，此时检索结果不缓存。
func BuildCore(cfg *config.Config, registry *entity.Registry, store kb.SectionStore, cache kb.ResultCache) (*kb.Indexer, *kb.Service) {
	source := docsource.NewFilesystem(cfg.KnowledgeBase.DocsRoot)
	classifier := kb.NewClassifier(registry)
	sectionizer := kb.NewSectionizer(classifier)

	indexer := kb.NewIndexer(source, store, sectionizer, registry)

	engine := kb.NewEngine(store, registry)
	scanner := kb.NewLocalScanner(source, registry)
	service := kb.NewService(engine, scanner, cache,
		cfg.KnowledgeBase.PrimaryTimeout, cfg.KnowledgeBase.CacheTTL)

	return indexer, service
}

// BuildApp 装配 HTTP 服务的全部依赖。
// Redis 不可用时降级运行：无缓存、无限流，日志给出警告。
func BuildApp(ctx context.Context, cfg *config.Config) (*App, error) {
	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}
	if err := pgClient.Migrate(); err != nil {
		pgClient.Close()
		return nil, err
	}

	var (
		redisClient *redis.Client
		cache       *redis.Cache
		resultCache kb.ResultCache
		rateLimit   gin.HandlerFunc
	)
	redisClient, err = redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "Redis 不可用，缓存与限流降级关闭", "error", err.Error())
		redisClient = nil
	} else {
		cache = redis.NewCache(redisClient)
		resultCache = cache
		if cfg.Security.RateLimit.Enabled {
			limiter := redis.NewRateLimiter(redisClient)
			rateLimit = middleware.RateLimit(middleware.RateLimitConfig{
				Enabled:           true,
				RequestsPerSecond: perSecond(cfg.Security.RateLimit.RequestsPerMinute),
				KeyPrefix:         "ratelimit:kb",
			}, limiter)
		}
	}

	registry := BuildRegistry(cfg)
	store := postgres.NewSectionRepository(pgClient, cfg.KnowledgeBase.InsertBatchSize)
	indexer, service := BuildCore(cfg, registry, store, resultCache)

	invalidate := func(c *gin.Context) {
		if cache == nil {
			return
		}
		if err := cache.InvalidateSearch(c.Request.Context()); err != nil {
			logger.Warn(c.Request.Context(), "清理检索缓存失败", "error", err.Error())
		}
	}

	handlers := router.Handlers{
		Health: handler.NewHealthHandler(pgClient, redisClient),
		KB:     handler.NewKBHandler(indexer, service, invalidate),
	}

	return &App{
		Config:      cfg,
		Registry:    registry,
		PgClient:    pgClient,
		RedisClient: redisClient,
		Cache:       cache,
		Indexer:     indexer,
		Service:     service,
		Router:      router.New(cfg, handlers, rateLimit),
	}, nil
}

// perSecond 把每分钟配额换算为限流中间件的每秒窗口
func perSecond(perMinute int) int {
	if perMinute <= 0 {
		return 0
	}
	n := perMinute / int(time.Minute/time.Second)
	if n < 1 {
		n = 1
	}
	return n
}
