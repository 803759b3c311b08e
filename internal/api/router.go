package api

import (
	"time"

	favoritesHandler "recipe-hub/internal/api/handlers/favorites"
	"recipe-hub/internal/api/handlers/health"
	nutritionHandler "recipe-hub/internal/api/handlers/nutrition"
	recipeHandler "recipe-hub/internal/api/handlers/recipe"
	"recipe-hub/internal/api/middleware"
	"recipe-hub/internal/infrastructure/config"
	"recipe-hub/internal/infrastructure/metrics"
	"recipe-hub/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 預設請求超時
	defaultTimeout = 45 * time.Second
	// 預設請求體大小限制 (2MB)
	defaultMaxBodySize = 2 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc *Services) *gin.Engine {
	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBodySize := cfg.Server.MaxBodyBytes
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(requestid.New())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	if cfg.Metrics.Enabled {
		router.Use(metrics.Middleware())
	}

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(maxBodySize))
	router.Use(middleware.InjectConfig(cfg, timeout))

	// 健康檢查路由
	deps := map[string]health.Pinger{"database": svc.Store}
	if svc.Cache != nil {
		deps["redis"] = svc.Cache
	}
	sources := make([]string, 0)
	for _, src := range svc.Registry.Sources() {
		sources = append(sources, src.String())
	}
	healthHandler := health.NewHandler(deps, sources, svc.Resolver.Providers())
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, metrics.Handler())
	}

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	api.Use(middleware.Authenticate(cfg.Auth.JWTSecret))
	api.Use(middleware.Deduplication(cfg.DedupWindow))

	requireAdmin := middleware.RequireAdmin(cfg.Auth.AdminEmail)
	{
		recipes := recipeHandler.NewHandler(svc.Search, svc.Import)
		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.GET("/search", recipes.HandleSearch)
			recipeGroup.GET("/:id", recipes.HandleGet)
			recipeGroup.POST("", middleware.RequireActor(), recipes.HandleCreate)
			recipeGroup.POST("/import", requireAdmin, recipes.HandleImport)
			recipeGroup.POST("/:id/status", requireAdmin, recipes.HandleUpdateStatus)
			recipeGroup.GET("/:id/status-history", requireAdmin, recipes.HandleStatusHistory)
		}

		nutritionHandlers := nutritionHandler.NewHandler(svc.Resolver)
		nutritionGroup := api.Group("/nutrition")
		{
			nutritionGroup.GET("/search", nutritionHandlers.HandleSearch)
			nutritionGroup.GET("/resolve", nutritionHandlers.HandleResolve)
			nutritionGroup.GET("/barcode/:code", nutritionHandlers.HandleBarcode)
		}

		favs := favoritesHandler.NewHandler(svc.Favorites)
		favoritesGroup := api.Group("/favorites", middleware.RequireActor())
		{
			favoritesGroup.GET("", favs.HandleList)
			favoritesGroup.POST("", favs.HandleAdd)
			favoritesGroup.POST("/toggle", favs.HandleToggle)
			favoritesGroup.DELETE("/:key", favs.HandleRemove)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.String("version", cfg.App.Version),
		zap.Duration("timeout", timeout),
		zap.Int64("max_body_size", maxBodySize),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Bool("metrics", cfg.Metrics.Enabled),
	)

	return router
}
