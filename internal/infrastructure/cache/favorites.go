package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"recipe-hub/internal/infrastructure/config"
	"recipe-hub/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// FavoriteEntry 快取中的收藏項目
type FavoriteEntry struct {
	RecipeKey string    `json:"recipe_key"`
	Title     string    `json:"title,omitempty"`
	Image     string    `json:"image,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}

// FavoritesCache 以 Redis hash 保存每位使用者的收藏
type FavoritesCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClient 建立 Redis 連線並測試
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// NewFavoritesCache 創建收藏快取
func NewFavoritesCache(client *redis.Client, ttl time.Duration) *FavoritesCache {
	return &FavoritesCache{client: client, ttl: ttl}
}

// List 取得收藏，依加入時間新到舊
func (c *FavoritesCache) List(ctx context.Context, userID string) ([]FavoriteEntry, error) {
	values, err := c.client.HGetAll(ctx, favoritesKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites cache: %w", err)
	}

	entries := make([]FavoriteEntry, 0, len(values))
	for field, raw := range values {
		var entry FavoriteEntry
		if err := common.ParseJSONBytes([]byte(raw), &entry); err != nil {
			entry = FavoriteEntry{RecipeKey: field}
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AddedAt.After(entries[j].AddedAt)
	})
	return entries, nil
}

// Add 加入收藏
func (c *FavoritesCache) Add(ctx context.Context, userID string, entry FavoriteEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal favorite: %w", err)
	}

	key := favoritesKey(userID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, entry.RecipeKey, data)
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set favorites cache: %w", err)
	}
	return nil
}

// Remove 移除收藏
func (c *FavoritesCache) Remove(ctx context.Context, userID, recipeKey string) error {
	if err := c.client.HDel(ctx, favoritesKey(userID), recipeKey).Err(); err != nil {
		return fmt.Errorf("failed to delete favorites cache: %w", err)
	}
	return nil
}

// Replace 以伺服器狀態覆寫整份快取
func (c *FavoritesCache) Replace(ctx context.Context, userID string, entries []FavoriteEntry) error {
	key := favoritesKey(userID)
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal favorite: %w", err)
		}
		pipe.HSet(ctx, key, entry.RecipeKey, data)
	}
	if c.ttl > 0 && len(entries) > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to replace favorites cache: %w", err)
	}
	return nil
}

// Ping 檢查 Redis 連線
func (c *FavoritesCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// favoritesKey 生成緩存鍵
func favoritesKey(userID string) string {
	return fmt.Sprintf("favorites:%s", userID)
}
