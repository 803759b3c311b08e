package api

import (
	"recipe-hub/internal/core/favorites"
	"recipe-hub/internal/core/nutrition"
	"recipe-hub/internal/core/provider"
	"recipe-hub/internal/core/provider/community"
	"recipe-hub/internal/core/provider/edamam"
	"recipe-hub/internal/core/provider/mealdb"
	"recipe-hub/internal/core/provider/ninjas"
	"recipe-hub/internal/core/provider/openfoodfacts"
	"recipe-hub/internal/core/provider/usda"
	"recipe-hub/internal/core/recipe"
	"recipe-hub/internal/infrastructure/cache"
	"recipe-hub/internal/infrastructure/config"
	"recipe-hub/internal/infrastructure/persistence"
	"recipe-hub/internal/pkg/common"

	"go.uber.org/zap"
)

// Services 路由使用的服務
type Services struct {
	Store     *persistence.Store
	Favorites *favorites.Service
	Registry  *provider.Registry
	Resolver  *nutrition.Resolver
	Search    *recipe.SearchService
	Import    *recipe.ImportService
	Cache     *cache.FavoritesCache
	Lookup    *cache.Memory[nutrition.Record]
}

// NewServices 依設定組裝服務；favCache 可為 nil
func NewServices(cfg *config.Config, store *persistence.Store, favCache *cache.FavoritesCache) *Services {
	// 食譜來源，註冊順序即查詢順序
	registry := provider.NewRegistry(community.NewClient(store))
	if cfg.Providers.MealDB.Enabled {
		registry.Register(mealdb.NewClient(cfg.Providers.MealDB))
	}

	// 營養供應商固定優先順序
	var nutritionProviders []nutrition.Provider
	if edamam.Enabled(cfg.Providers.Edamam) {
		nutritionProviders = append(nutritionProviders, edamam.NewClient(cfg.Providers.Edamam))
	}
	if usda.Enabled(cfg.Providers.USDA) {
		nutritionProviders = append(nutritionProviders, usda.NewClient(cfg.Providers.USDA))
	}
	if ninjas.Enabled(cfg.Providers.Ninjas) {
		nutritionProviders = append(nutritionProviders, ninjas.NewClient(cfg.Providers.Ninjas))
	}
	var barcode nutrition.BarcodeProvider
	if cfg.Providers.OpenFoodFacts.Enabled {
		barcode = openfoodfacts.NewClient(cfg.Providers.OpenFoodFacts)
	}
	resolver := nutrition.NewResolver(barcode, nutritionProviders...)
	lookup := cache.NewMemory[nutrition.Record](cfg.LookupCache)
	if lookup != nil {
		resolver.WithCache(lookup)
	}

	normalizer := recipe.NewNormalizer(resolver, recipe.StopAtFirstEmpty)
	search := recipe.NewSearchService(registry, normalizer, cfg.Search.DefaultNumber, cfg.Search.MaxNumber)

	var favRepo favorites.Repository
	if favCache != nil {
		favRepo = favorites.NewCacheRepository(favCache)
	}

	sources := make([]string, 0)
	for _, src := range registry.Sources() {
		sources = append(sources, src.String())
	}
	common.LogInfo("Services initialized",
		zap.Strings("recipe_sources", sources),
		zap.Strings("nutrition_providers", resolver.Providers()),
		zap.Bool("barcode_enabled", barcode != nil),
		zap.Bool("favorites_cache", favCache != nil),
		zap.Bool("lookup_cache", lookup != nil),
	)

	return &Services{
		Store:     store,
		Favorites: favorites.NewService(favorites.NewServerRepository(store), favRepo),
		Registry:  registry,
		Resolver:  resolver,
		Search:    search,
		Import:    recipe.NewImportService(store, normalizer, search, nil),
		Cache:     favCache,
		Lookup:    lookup,
	}
}

// Close 釋放行程內資源
func (s *Services) Close() {
	if s.Lookup != nil {
		s.Lookup.Close()
	}
}
