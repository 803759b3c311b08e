package recipe

import (
	"time"

	"recipe-hub/internal/core/nutrition"
	"recipe-hub/internal/core/provider"
)

// PreviewMaxRunes 付費預覽文字上限
const PreviewMaxRunes = 250

// Ingredient 食材
type Ingredient struct {
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Unit     string `json:"unit"`
	Notes    string `json:"notes,omitempty"`
	Optional bool   `json:"optional"`
}

// Moderation 審核資訊
type Moderation struct {
	Status         string `json:"status"`
	ApprovalStatus string `json:"approval_status"`
	IsPublic       bool   `json:"is_public"`
}

// Monetization 付費設定，僅有效訂閱的建立者可設定
type Monetization struct {
	IsPremium   bool     `json:"is_premium"`
	Price       *float64 `json:"price"`
	PreviewText *string  `json:"preview_text"`
}

// Creator 建立者
type Creator struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// CanonicalRecipe 統一食譜格式，ID 僅在 SourceKey 內唯一
type CanonicalRecipe struct {
	ID             string             `json:"id"`
	SourceKey      provider.SourceKey `json:"source_key"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Instructions   []string           `json:"instructions"`
	Ingredients    []Ingredient       `json:"ingredients"`
	PrepTime       *int               `json:"prep_time"`
	CookTime       *int               `json:"cook_time"`
	Servings       *int               `json:"servings"`
	TimesEstimated bool               `json:"times_estimated"`
	Category       string             `json:"category"`
	Cuisine        string             `json:"cuisine"`
	Image          string             `json:"image"`
	Tags           []string           `json:"tags"`
	Nutrition      *nutrition.Record  `json:"nutrition"`
	Moderation     Moderation         `json:"moderation"`
	Monetization   *Monetization      `json:"monetization,omitempty"`
	Creator        *Creator           `json:"creator,omitempty"`
	CreatedAt      *time.Time         `json:"created_at,omitempty"`
	UpdatedAt      *time.Time         `json:"updated_at,omitempty"`
}

// Key 跨來源唯一鍵
func (r *CanonicalRecipe) Key() string {
	return string(r.SourceKey) + ":" + r.ID
}

// Filters 搜尋條件
type Filters struct {
	ID         string `json:"id,omitempty" form:"id"`
	Source     string `json:"source,omitempty" form:"source"`
	Query      string `json:"query,omitempty" form:"query"`
	Category   string `json:"category,omitempty" form:"category"`
	Cuisine    string `json:"cuisine,omitempty" form:"cuisine"`
	Ingredient string `json:"ingredient,omitempty" form:"ingredient"`
	Diet       string `json:"diet,omitempty" form:"diet"`
	Nutrition  string `json:"nutrition,omitempty" form:"nutrition"`
	Number     int    `json:"number,omitempty" form:"number"`
}

// SearchResult 搜尋結果；供應商失敗時 Count 為 0 並附上 Message
type SearchResult struct {
	Recipes []CanonicalRecipe `json:"recipes"`
	Source  string            `json:"source"`
	Count   int               `json:"count"`
	Total   int               `json:"total"`
	Filters Filters           `json:"filters"`
	Message string            `json:"message,omitempty"`
}

// ImportResult 匯入結果
type ImportResult struct {
	RecipeID string `json:"recipeId"`
}

// CreateResult 使用者投稿結果
type CreateResult struct {
	RecipeID       string `json:"recipeId"`
	ApprovalStatus string `json:"approvalStatus"`
}

// StatusChange 審核狀態變更結果
type StatusChange struct {
	RecipeID string `json:"recipeId"`
	From     string `json:"from"`
	To       string `json:"to"`
	Changed  bool   `json:"changed"`
}
