package community

import (
	"context"
	"time"

	"recipe-hub/internal/core/provider"
	"recipe-hub/internal/infrastructure/metrics"
	"recipe-hub/internal/infrastructure/persistence"
	"recipe-hub/internal/pkg/common"
)

const (
	providerName = "community"

	// 單次查詢上限
	defaultLimit = 100
)

// Recipe 社群資料庫中的食譜列
type Recipe struct {
	persistence.Recipe
}

func (r *Recipe) Source() provider.SourceKey { return provider.SourceCommunity }
func (r *Recipe) RecipeID() string           { return r.ID }
func (r *Recipe) RecipeTitle() string        { return r.Title }

// Client 社群食譜客戶端，只讀取公開且已核准的食譜
type Client struct {
	store *persistence.Store
	limit int
}

// NewClient 創建社群食譜客戶端
func NewClient(store *persistence.Store) *Client {
	return &Client{store: store, limit: defaultLimit}
}

// Source 來源
func (c *Client) Source() provider.SourceKey {
	return provider.SourceCommunity
}

// Search 依標題或描述搜尋
func (c *Client) Search(ctx context.Context, query string) ([]provider.ProviderRecipe, error) {
	return c.list(ctx, "search", persistence.PublicQuery{Search: query, Limit: c.limit})
}

// GetByID 依 ID 取得，查無資料回傳 nil
func (c *Client) GetByID(ctx context.Context, id string) (provider.ProviderRecipe, error) {
	start := time.Now()
	row, err := c.store.GetPublicRecipe(ctx, id)
	if common.IsKind(err, common.ErrCodeNotFound) {
		c.observe("get_by_id", start, nil)
		return nil, nil
	}
	c.observe("get_by_id", start, err)
	if err != nil {
		return nil, common.NewProviderUnavailableError(providerName, err)
	}
	return &Recipe{Recipe: *row}, nil
}

// ListByCategory 依分類列出
func (c *Client) ListByCategory(ctx context.Context, category string) ([]provider.ProviderRecipe, error) {
	return c.list(ctx, "list_by_category", persistence.PublicQuery{Category: category, Limit: c.limit})
}

// ListByArea 依地區列出
func (c *Client) ListByArea(ctx context.Context, area string) ([]provider.ProviderRecipe, error) {
	return c.list(ctx, "list_by_area", persistence.PublicQuery{Cuisine: area, Limit: c.limit})
}

// ListByIngredient 依食材列出
func (c *Client) ListByIngredient(ctx context.Context, ingredient string) ([]provider.ProviderRecipe, error) {
	return c.list(ctx, "list_by_ingredient", persistence.PublicQuery{Ingredient: ingredient, Limit: c.limit})
}

// Random 隨機取得 count 筆
func (c *Client) Random(ctx context.Context, count int) ([]provider.ProviderRecipe, error) {
	if count <= 0 {
		return nil, nil
	}
	return c.list(ctx, "random", persistence.PublicQuery{Random: true, Limit: count})
}

func (c *Client) list(ctx context.Context, operation string, q persistence.PublicQuery) ([]provider.ProviderRecipe, error) {
	start := time.Now()
	rows, err := c.store.PublicRecipes(ctx, q)
	c.observe(operation, start, err)
	if err != nil {
		return nil, common.NewProviderUnavailableError(providerName, err)
	}

	out := make([]provider.ProviderRecipe, 0, len(rows))
	for i := range rows {
		out = append(out, &Recipe{Recipe: rows[i]})
	}
	return out, nil
}

func (c *Client) observe(operation string, start time.Time, err error) {
	duration := time.Since(start)
	common.LogProviderCall(providerName, operation, duration, err)
	metrics.ObserveProviderCall(providerName, operation, duration, err)
}
