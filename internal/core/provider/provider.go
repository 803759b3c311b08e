package provider

import (
	"context"
	"fmt"
	"strings"

	"recipe-hub/internal/pkg/common"
)

// SourceKey 食譜來源
type SourceKey string

const (
	SourceCommunity SourceKey = "community"
	SourceMealDB    SourceKey = "external:mealdb"
)

const externalPrefix = "external:"

var knownSources = []SourceKey{SourceCommunity, SourceMealDB}

// IsExternal 是否為外部來源
func (s SourceKey) IsExternal() bool {
	return strings.HasPrefix(string(s), externalPrefix)
}

// ProviderName 去除 external: 前綴的名稱
func (s SourceKey) ProviderName() string {
	return strings.TrimPrefix(string(s), externalPrefix)
}

func (s SourceKey) String() string {
	return string(s)
}

// ParseSource 解析來源字串，接受 "mealdb" 之類的簡稱
func ParseSource(raw string) (SourceKey, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", common.NewValidationError("source is required")
	}
	for _, src := range knownSources {
		if value == string(src) || value == src.ProviderName() {
			return src, nil
		}
	}
	return "", common.NewValidationError(fmt.Sprintf("unknown source %q", raw))
}

// ProviderRecipe 各來源原生食譜格式
type ProviderRecipe interface {
	Source() SourceKey
	RecipeID() string
	RecipeTitle() string
}

// RecipeClient 食譜來源客戶端
//
// GetByID 查無資料時回傳 nil, nil。任何傳輸錯誤或非 2xx 回應
// 皆回傳 PROVIDER_UNAVAILABLE。
type RecipeClient interface {
	Source() SourceKey
	Search(ctx context.Context, query string) ([]ProviderRecipe, error)
	GetByID(ctx context.Context, id string) (ProviderRecipe, error)
	ListByCategory(ctx context.Context, category string) ([]ProviderRecipe, error)
	ListByArea(ctx context.Context, area string) ([]ProviderRecipe, error)
	ListByIngredient(ctx context.Context, ingredient string) ([]ProviderRecipe, error)
	Random(ctx context.Context, count int) ([]ProviderRecipe, error)
}

// Registry 來源與客戶端的對應表，保留註冊順序
type Registry struct {
	order   []SourceKey
	clients map[SourceKey]RecipeClient
}

// NewRegistry 創建註冊表
func NewRegistry(clients ...RecipeClient) *Registry {
	r := &Registry{clients: make(map[SourceKey]RecipeClient)}
	for _, c := range clients {
		r.Register(c)
	}
	return r
}

// Register 註冊客戶端，同來源後者覆蓋前者
func (r *Registry) Register(client RecipeClient) {
	if client == nil {
		return
	}
	src := client.Source()
	if _, exists := r.clients[src]; !exists {
		r.order = append(r.order, src)
	}
	r.clients[src] = client
}

// Get 依來源取得客戶端
func (r *Registry) Get(src SourceKey) (RecipeClient, bool) {
	c, ok := r.clients[src]
	return c, ok
}

// Sources 已註冊的來源
func (r *Registry) Sources() []SourceKey {
	out := make([]SourceKey, len(r.order))
	copy(out, r.order)
	return out
}

// Clients 依註冊順序回傳客戶端
func (r *Registry) Clients() []RecipeClient {
	out := make([]RecipeClient, 0, len(r.order))
	for _, src := range r.order {
		out = append(out, r.clients[src])
	}
	return out
}
