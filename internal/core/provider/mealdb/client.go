package mealdb

import (
	"context"
	"strings"
	"sync"

	"recipe-hub/internal/core/provider"
	"recipe-hub/internal/infrastructure/config"
	"recipe-hub/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	providerName = "mealdb"

	// filter.php 只回傳部分欄位，最多補齊的筆數
	defaultHydrateLimit = 30
	hydrateConcurrency  = 5
)

// Client TheMealDB v1 客戶端
type Client struct {
	client       *resty.Client
	hydrateLimit int
}

// NewClient 創建 TheMealDB 客戶端，base URL 後接 API key（免費版為 "1"）
func NewClient(cfg config.ProviderConfig) *Client {
	key := cfg.APIKey
	if key == "" {
		key = "1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/" + key

	return &Client{
		client:       provider.NewHTTPClient(cfg),
		hydrateLimit: defaultHydrateLimit,
	}
}

// Source 來源
func (c *Client) Source() provider.SourceKey {
	return provider.SourceMealDB
}

// Search 依名稱搜尋
func (c *Client) Search(ctx context.Context, query string) ([]provider.ProviderRecipe, error) {
	meals, err := c.fetch(ctx, "search", "/search.php", map[string]string{"s": query})
	if err != nil {
		return nil, err
	}
	return toRecipes(meals), nil
}

// GetByID 依 ID 取得，查無資料回傳 nil
func (c *Client) GetByID(ctx context.Context, id string) (provider.ProviderRecipe, error) {
	meal, err := c.lookup(ctx, id)
	if err != nil || meal == nil {
		return nil, err
	}
	return meal, nil
}

// ListByCategory 依分類列出
func (c *Client) ListByCategory(ctx context.Context, category string) ([]provider.ProviderRecipe, error) {
	return c.filter(ctx, "list_by_category", map[string]string{"c": category})
}

// ListByArea 依地區列出
func (c *Client) ListByArea(ctx context.Context, area string) ([]provider.ProviderRecipe, error) {
	return c.filter(ctx, "list_by_area", map[string]string{"a": area})
}

// ListByIngredient 依主要食材列出
func (c *Client) ListByIngredient(ctx context.Context, ingredient string) ([]provider.ProviderRecipe, error) {
	return c.filter(ctx, "list_by_ingredient", map[string]string{"i": ingredient})
}

// Random 取得 count 筆隨機食譜，重複 ID 只保留一筆
func (c *Client) Random(ctx context.Context, count int) ([]provider.ProviderRecipe, error) {
	if count <= 0 {
		return nil, nil
	}

	results := make([]*Meal, count)
	errs := make([]error, count)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateConcurrency)
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			meals, err := c.fetch(gctx, "random", "/random.php", nil)
			if err != nil {
				errs[i] = err
				return nil
			}
			if len(meals) > 0 {
				results[i] = meals[0]
			}
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]bool, count)
	out := make([]provider.ProviderRecipe, 0, count)
	var firstErr error
	for i, meal := range results {
		if errs[i] != nil && firstErr == nil {
			firstErr = errs[i]
		}
		if meal == nil || seen[meal.ID] {
			continue
		}
		seen[meal.ID] = true
		out = append(out, meal)
	}

	// 全部失敗才視為不可用
	if len(out) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (c *Client) lookup(ctx context.Context, id string) (*Meal, error) {
	meals, err := c.fetch(ctx, "get_by_id", "/lookup.php", map[string]string{"i": id})
	if err != nil {
		return nil, err
	}
	if len(meals) == 0 {
		return nil, nil
	}
	return meals[0], nil
}

// filter 呼叫 filter.php 並以 lookup.php 補齊欄位
func (c *Client) filter(ctx context.Context, operation string, query map[string]string) ([]provider.ProviderRecipe, error) {
	meals, err := c.fetch(ctx, operation, "/filter.php", query)
	if err != nil {
		return nil, err
	}
	c.hydrate(ctx, meals)
	return toRecipes(meals), nil
}

func (c *Client) hydrate(ctx context.Context, meals []*Meal) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateConcurrency)

	for i, meal := range meals {
		if i >= c.hydrateLimit {
			break
		}
		if !meal.Partial || meal.ID == "" {
			continue
		}
		i, id := i, meal.ID
		g.Go(func() error {
			full, err := c.lookup(gctx, id)
			if err != nil || full == nil {
				// 補齊失敗時保留部分資料
				common.LogDebug("補齊食譜失敗",
					zap.String("provider", providerName),
					zap.String("id", id),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			meals[i] = full
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Client) fetch(ctx context.Context, operation, path string, query map[string]string) ([]*Meal, error) {
	var resp mealsResponse
	if err := provider.GetJSON(ctx, c.client, providerName, operation, path, query, &resp); err != nil {
		return nil, err
	}
	meals := resp.Meals[:0]
	for _, m := range resp.Meals {
		if m != nil {
			meals = append(meals, m)
		}
	}
	return meals, nil
}

func toRecipes(meals []*Meal) []provider.ProviderRecipe {
	out := make([]provider.ProviderRecipe, 0, len(meals))
	for _, m := range meals {
		out = append(out, m)
	}
	return out
}
