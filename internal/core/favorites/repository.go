package favorites

import (
	"context"

	"recipe-hub/internal/infrastructure/cache"
	"recipe-hub/internal/infrastructure/persistence"
)

// ServerRepository 以資料庫保存收藏
type ServerRepository struct {
	store *persistence.Store
}

// NewServerRepository 創建資料庫收藏儲存
func NewServerRepository(store *persistence.Store) *ServerRepository {
	return &ServerRepository{store: store}
}

func (r *ServerRepository) Get(ctx context.Context, userID string) ([]Favorite, error) {
	rows, err := r.store.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Favorite, 0, len(rows))
	for _, row := range rows {
		out = append(out, Favorite{
			RecipeKey: row.RecipeKey,
			Title:     row.Title,
			Image:     row.Image,
			AddedAt:   row.CreatedAt,
		})
	}
	return out, nil
}

func (r *ServerRepository) Add(ctx context.Context, userID string, fav Favorite) error {
	return r.store.AddFavorite(ctx, &persistence.Favorite{
		UserID:    userID,
		RecipeKey: fav.RecipeKey,
		Title:     fav.Title,
		Image:     fav.Image,
		CreatedAt: fav.AddedAt,
	})
}

func (r *ServerRepository) Remove(ctx context.Context, userID, recipeKey string) error {
	_, err := r.store.RemoveFavorite(ctx, userID, recipeKey)
	return err
}

// CacheRepository 以 Redis 保存收藏
type CacheRepository struct {
	cache *cache.FavoritesCache
}

// NewCacheRepository 創建快取收藏儲存
func NewCacheRepository(c *cache.FavoritesCache) *CacheRepository {
	return &CacheRepository{cache: c}
}

func (r *CacheRepository) Get(ctx context.Context, userID string) ([]Favorite, error) {
	entries, err := r.cache.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Favorite, 0, len(entries))
	for _, e := range entries {
		out = append(out, Favorite(e))
	}
	return out, nil
}

func (r *CacheRepository) Add(ctx context.Context, userID string, fav Favorite) error {
	return r.cache.Add(ctx, userID, cache.FavoriteEntry(fav))
}

func (r *CacheRepository) Remove(ctx context.Context, userID, recipeKey string) error {
	return r.cache.Remove(ctx, userID, recipeKey)
}

// Replace 以伺服器狀態覆寫快取
func (r *CacheRepository) Replace(ctx context.Context, userID string, favs []Favorite) error {
	entries := make([]cache.FavoriteEntry, 0, len(favs))
	for _, f := range favs {
		entries = append(entries, cache.FavoriteEntry(f))
	}
	return r.cache.Replace(ctx, userID, entries)
}
