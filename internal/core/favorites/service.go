package favorites

import (
	"context"
	"strings"
	"time"

	"recipe-hub/internal/core/provider"
	"recipe-hub/internal/pkg/common"

	"go.uber.org/zap"
)

// Favorite 收藏項目，RecipeKey 格式為 "<source>:<id>"
type Favorite struct {
	RecipeKey string    `json:"recipe_key"`
	Title     string    `json:"title,omitempty"`
	Image     string    `json:"image,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}

// Repository 收藏儲存
type Repository interface {
	Get(ctx context.Context, userID string) ([]Favorite, error)
	Add(ctx context.Context, userID string, fav Favorite) error
	Remove(ctx context.Context, userID, recipeKey string) error
}

// Replacer 可整份覆寫的儲存，用於以伺服器狀態同步快取
type Replacer interface {
	Replace(ctx context.Context, userID string, favs []Favorite) error
}

// List 收藏清單；Stale 代表伺服器不可用時改讀快取
type List struct {
	Favorites []Favorite `json:"favorites"`
	Stale     bool       `json:"stale"`
}

// Service 收藏服務，伺服器狀態優先於快取
type Service struct {
	server Repository
	cache  Repository
}

// NewService 創建收藏服務，cache 可為 nil
func NewService(server Repository, cache Repository) *Service {
	return &Service{server: server, cache: cache}
}

// ParseKey 拆解收藏鍵為來源與 ID
func ParseKey(key string) (provider.SourceKey, string, error) {
	key = strings.TrimSpace(key)
	idx := strings.LastIndex(key, ":")
	if idx <= 0 || idx == len(key)-1 {
		return "", "", common.NewValidationError("recipe key must be <source>:<id>")
	}
	src, err := provider.ParseSource(key[:idx])
	if err != nil {
		return "", "", err
	}
	return src, key[idx+1:], nil
}

// Get 讀取收藏；伺服器失敗時才讀快取
func (s *Service) Get(ctx context.Context, userID string) (*List, error) {
	favs, err := s.server.Get(ctx, userID)
	if err == nil {
		s.syncCache(ctx, userID, favs)
		return &List{Favorites: favs}, nil
	}

	common.LogWarn("收藏讀取失敗，改用快取",
		zap.String("user_id", userID),
		zap.Error(err),
	)
	if s.cache == nil {
		return nil, common.NewPersistenceError("failed to load favorites", err)
	}
	cached, cacheErr := s.cache.Get(ctx, userID)
	if cacheErr != nil {
		return nil, common.NewPersistenceError("failed to load favorites", err)
	}
	return &List{Favorites: cached, Stale: true}, nil
}

// Add 新增收藏
func (s *Service) Add(ctx context.Context, userID string, fav Favorite) error {
	if _, _, err := ParseKey(fav.RecipeKey); err != nil {
		return err
	}
	fav.RecipeKey = strings.TrimSpace(fav.RecipeKey)
	if fav.AddedAt.IsZero() {
		fav.AddedAt = time.Now()
	}

	if err := s.server.Add(ctx, userID, fav); err != nil {
		return common.NewPersistenceError("failed to add favorite", err)
	}
	if s.cache != nil {
		if err := s.cache.Add(ctx, userID, fav); err != nil {
			common.LogWarn("收藏快取寫入失敗", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return nil
}

// Remove 移除收藏
func (s *Service) Remove(ctx context.Context, userID, recipeKey string) error {
	recipeKey = strings.TrimSpace(recipeKey)
	if recipeKey == "" {
		return common.NewValidationError("recipe key is required")
	}

	if err := s.server.Remove(ctx, userID, recipeKey); err != nil {
		return common.NewPersistenceError("failed to remove favorite", err)
	}
	if s.cache != nil {
		if err := s.cache.Remove(ctx, userID, recipeKey); err != nil {
			common.LogWarn("收藏快取刪除失敗", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return nil
}

// Toggle 切換收藏狀態，回傳切換後是否為收藏
func (s *Service) Toggle(ctx context.Context, userID string, fav Favorite) (bool, error) {
	if _, _, err := ParseKey(fav.RecipeKey); err != nil {
		return false, err
	}
	key := strings.TrimSpace(fav.RecipeKey)

	current, err := s.server.Get(ctx, userID)
	if err != nil {
		return false, common.NewPersistenceError("failed to load favorites", err)
	}
	for _, f := range current {
		if f.RecipeKey == key {
			return false, s.Remove(ctx, userID, key)
		}
	}
	return true, s.Add(ctx, userID, fav)
}

func (s *Service) syncCache(ctx context.Context, userID string, favs []Favorite) {
	r, ok := s.cache.(Replacer)
	if !ok {
		return
	}
	if err := r.Replace(ctx, userID, favs); err != nil {
		common.LogDebug("收藏快取同步失敗", zap.String("user_id", userID), zap.Error(err))
	}
}
