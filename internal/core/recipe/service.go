package recipe

import (
	"context"
	"strings"
	"sync"

	"recipe-hub/internal/core/nutrition"
	"recipe-hub/internal/core/provider"
	"recipe-hub/internal/infrastructure/metrics"
	"recipe-hub/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultNumber = 20
	maxNumber     = 100

	// 營養資料查詢併發上限
	nutritionConcurrency = 5

	seedID         = "id"
	seedQuery      = "query"
	seedIngredient = "ingredient"
	seedCategory   = "category"
	seedCuisine    = "cuisine"
	seedRandom     = "random"

	sourceAll = "all"
)

// SearchService 聚合多個來源的搜尋
type SearchService struct {
	registry      *provider.Registry
	normalizer    *Normalizer
	defaultNumber int
	maxNumber     int
}

// NewSearchService 創建搜尋服務；number 小於等於 0 時使用預設值
func NewSearchService(registry *provider.Registry, normalizer *Normalizer, defaultNum, maxNum int) *SearchService {
	if defaultNum <= 0 {
		defaultNum = defaultNumber
	}
	if maxNum <= 0 {
		maxNum = maxNumber
	}
	if defaultNum > maxNum {
		defaultNum = maxNum
	}
	return &SearchService{
		registry:      registry,
		normalizer:    normalizer,
		defaultNumber: defaultNum,
		maxNumber:     maxNum,
	}
}

// Search 依條件搜尋
//
// 供應商失敗不回傳錯誤，結果為空並附上說明；只有條件本身不合法時回傳 VALIDATION_ERROR。
func (s *SearchService) Search(ctx context.Context, f Filters) (*SearchResult, error) {
	f = trimFilters(f)

	clients, err := s.clientsFor(f.Source)
	if err != nil {
		return nil, err
	}

	var nutritionFilter nutrition.Filter
	if f.Nutrition != "" {
		parsed, ok := nutrition.ParseFilter(strings.ToLower(f.Nutrition))
		if !ok {
			return nil, common.NewValidationError("unknown nutrition filter: " + f.Nutrition)
		}
		nutritionFilter = parsed
	}

	number := f.Number
	if number <= 0 {
		number = s.defaultNumber
	}
	if number > s.maxNumber {
		number = s.maxNumber
	}
	f.Number = number

	result := &SearchResult{
		Recipes: []CanonicalRecipe{},
		Source:  sourceName(f.Source, clients),
		Filters: f,
	}

	if f.ID != "" {
		s.searchByID(ctx, clients, f.ID, result)
		return result, nil
	}

	seed := seedFilter(f)
	raw, failed := s.fanOut(ctx, clients, seed, f, number)
	if failed == len(clients) {
		result.Message = "recipe providers are currently unavailable"
		metrics.ObserveSearch(seed, true)
		return result, nil
	}

	recipes := s.normalizeAll(raw)
	recipes = dedupe(recipes)

	// 非種子條件在本地過濾，過濾後為空時保留原結果
	if f.Category != "" && seed != seedCategory {
		recipes = withFallback(recipes, seedCategory, func(r *CanonicalRecipe) bool {
			return common.ContainsFold(r.Category, f.Category)
		})
	}
	if f.Cuisine != "" && seed != seedCuisine {
		recipes = withFallback(recipes, seedCuisine, func(r *CanonicalRecipe) bool {
			return common.ContainsFold(r.Cuisine, f.Cuisine)
		})
	}
	if f.Ingredient != "" && seed != seedIngredient {
		recipes = withFallback(recipes, seedIngredient, func(r *CanonicalRecipe) bool {
			return hasIngredient(r, f.Ingredient)
		})
	}
	if f.Diet != "" {
		recipes = withFallback(recipes, "diet", func(r *CanonicalRecipe) bool {
			return matchesDiet(r, f.Diet)
		})
	}

	if nutritionFilter != "" {
		recipes = s.filterByNutrition(ctx, recipes, nutritionFilter)
	}

	result.Total = len(recipes)
	if len(recipes) > number {
		recipes = recipes[:number]
	}
	result.Recipes = recipes
	result.Count = len(recipes)
	if failed > 0 {
		result.Message = "some recipe providers are currently unavailable"
	}

	metrics.ObserveSearch(seed, failed > 0)
	return result, nil
}

// GetRecipe 取得單一食譜並附上營養資料；未指定來源時依註冊順序查找
func (s *SearchService) GetRecipe(ctx context.Context, id, source string) (*CanonicalRecipe, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, common.NewValidationError("recipe id is required")
	}
	clients, err := s.clientsFor(source)
	if err != nil {
		return nil, err
	}

	for _, client := range clients {
		pr, err := client.GetByID(ctx, id)
		if err != nil {
			common.LogWarn("食譜來源查詢失敗",
				zap.String("source", client.Source().String()),
				zap.String("id", id),
				zap.Error(err),
			)
			continue
		}
		if pr == nil {
			continue
		}
		return s.normalizer.Normalize(ctx, pr)
	}
	return nil, common.NewNotFoundError("recipe not found")
}

// Fetch 取得來源原生食譜，供匯入使用；來源失敗時回傳 PROVIDER_UNAVAILABLE
func (s *SearchService) Fetch(ctx context.Context, source, id string) (provider.ProviderRecipe, error) {
	src, err := provider.ParseSource(source)
	if err != nil {
		return nil, err
	}
	client, ok := s.registry.Get(src)
	if !ok {
		return nil, common.NewValidationError("source not configured: " + src.String())
	}
	pr, err := client.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if pr == nil {
		return nil, common.NewNotFoundError("recipe not found")
	}
	return pr, nil
}

func (s *SearchService) clientsFor(source string) ([]provider.RecipeClient, error) {
	if strings.TrimSpace(source) == "" {
		return s.registry.Clients(), nil
	}
	src, err := provider.ParseSource(source)
	if err != nil {
		return nil, err
	}
	client, ok := s.registry.Get(src)
	if !ok {
		return nil, common.NewValidationError("source not configured: " + src.String())
	}
	return []provider.RecipeClient{client}, nil
}

func (s *SearchService) searchByID(ctx context.Context, clients []provider.RecipeClient, id string, result *SearchResult) {
	failed := 0
	for _, client := range clients {
		pr, err := client.GetByID(ctx, id)
		if err != nil {
			failed++
			continue
		}
		if pr == nil {
			continue
		}
		rec, err := s.normalizer.NormalizeBasic(pr)
		if err != nil {
			continue
		}
		result.Recipes = []CanonicalRecipe{*rec}
		result.Count, result.Total = 1, 1
		metrics.ObserveSearch(seedID, false)
		return
	}

	degraded := failed > 0
	if degraded {
		result.Message = "recipe providers are currently unavailable"
	} else {
		result.Message = "recipe not found"
	}
	metrics.ObserveSearch(seedID, degraded)
}

// fanOut 對每個來源並行發出種子請求，依註冊順序回傳結果與失敗數
func (s *SearchService) fanOut(ctx context.Context, clients []provider.RecipeClient, seed string, f Filters, number int) ([][]provider.ProviderRecipe, int) {
	results := make([][]provider.ProviderRecipe, len(clients))
	failed := 0
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, client := range clients {
		i, client := i, client
		g.Go(func() error {
			list, err := callSeed(gctx, client, seed, f, number)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				common.LogWarn("食譜來源搜尋失敗",
					zap.String("source", client.Source().String()),
					zap.String("seed", seed),
					zap.Error(err),
				)
				return nil
			}
			results[i] = list
			return nil
		})
	}
	_ = g.Wait()
	return results, failed
}

func callSeed(ctx context.Context, client provider.RecipeClient, seed string, f Filters, number int) ([]provider.ProviderRecipe, error) {
	switch seed {
	case seedQuery:
		return client.Search(ctx, f.Query)
	case seedIngredient:
		return client.ListByIngredient(ctx, f.Ingredient)
	case seedCategory:
		return client.ListByCategory(ctx, f.Category)
	case seedCuisine:
		return client.ListByArea(ctx, f.Cuisine)
	default:
		return client.Random(ctx, number)
	}
}

func (s *SearchService) normalizeAll(raw [][]provider.ProviderRecipe) []CanonicalRecipe {
	out := make([]CanonicalRecipe, 0)
	for _, list := range raw {
		for _, pr := range list {
			rec, err := s.normalizer.NormalizeBasic(pr)
			if err != nil {
				common.LogWarn("食譜正規化失敗", zap.Error(err))
				continue
			}
			out = append(out, *rec)
		}
	}
	return out
}

// filterByNutrition 補齊營養資料後保留符合門檻者，無法解析的食譜捨棄
func (s *SearchService) filterByNutrition(ctx context.Context, recipes []CanonicalRecipe, filter nutrition.Filter) []CanonicalRecipe {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(nutritionConcurrency)
	for i := range recipes {
		if recipes[i].Nutrition != nil {
			continue
		}
		rec := &recipes[i]
		g.Go(func() error {
			s.normalizer.AttachNutrition(gctx, rec)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]CanonicalRecipe, 0, len(recipes))
	for _, r := range recipes {
		if r.Nutrition != nil && filter.Matches(*r.Nutrition) {
			out = append(out, r)
		}
	}
	return out
}

// seedFilter 種子條件優先順序：query > ingredient > category > cuisine
func seedFilter(f Filters) string {
	switch {
	case f.Query != "":
		return seedQuery
	case f.Ingredient != "":
		return seedIngredient
	case f.Category != "":
		return seedCategory
	case f.Cuisine != "":
		return seedCuisine
	default:
		return seedRandom
	}
}

func withFallback(recipes []CanonicalRecipe, filter string, keep func(*CanonicalRecipe) bool) []CanonicalRecipe {
	out := make([]CanonicalRecipe, 0, len(recipes))
	for i := range recipes {
		if keep(&recipes[i]) {
			out = append(out, recipes[i])
		}
	}
	if len(out) == 0 && len(recipes) > 0 {
		common.LogWarn("篩選條件無結果，保留原結果",
			zap.String("filter", filter),
			zap.Int("count", len(recipes)),
		)
		metrics.ObserveFallback(filter)
		return recipes
	}
	return out
}

// dedupe 以來源+ID 及正規化標題去重，保留先出現者
func dedupe(recipes []CanonicalRecipe) []CanonicalRecipe {
	seenKeys := make(map[string]bool, len(recipes))
	seenTitles := make(map[string]bool, len(recipes))
	out := make([]CanonicalRecipe, 0, len(recipes))
	for _, r := range recipes {
		key := r.Key()
		title := normalizeTitle(r.Title)
		if seenKeys[key] || (title != "" && seenTitles[title]) {
			continue
		}
		seenKeys[key] = true
		if title != "" {
			seenTitles[title] = true
		}
		out = append(out, r)
	}
	return out
}

func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

func hasIngredient(r *CanonicalRecipe, ingredient string) bool {
	for _, ing := range r.Ingredients {
		if common.ContainsFold(ing.Name, ingredient) {
			return true
		}
	}
	return false
}

// matchesDiet 飲食條件比對分類與標籤
func matchesDiet(r *CanonicalRecipe, diet string) bool {
	if common.ContainsFold(r.Category, diet) {
		return true
	}
	for _, tag := range r.Tags {
		if common.ContainsFold(tag, diet) {
			return true
		}
	}
	return false
}

func trimFilters(f Filters) Filters {
	f.ID = strings.TrimSpace(f.ID)
	f.Source = strings.TrimSpace(f.Source)
	f.Query = strings.TrimSpace(f.Query)
	f.Category = strings.TrimSpace(f.Category)
	f.Cuisine = strings.TrimSpace(f.Cuisine)
	f.Ingredient = strings.TrimSpace(f.Ingredient)
	f.Diet = strings.TrimSpace(f.Diet)
	f.Nutrition = strings.TrimSpace(f.Nutrition)
	return f
}

func sourceName(source string, clients []provider.RecipeClient) string {
	if source == "" || len(clients) != 1 {
		return sourceAll
	}
	return clients[0].Source().String()
}
