package edamam

import (
	"context"

	"recipe-hub/internal/core/nutrition"
	"recipe-hub/internal/core/provider"
	"recipe-hub/internal/infrastructure/config"

	"github.com/go-resty/resty/v2"
)

const providerName = "edamam"

// Edamam 營養素代碼
const (
	NutrientEnergy    = "ENERC_KCAL"
	NutrientProtein   = "PROCNT"
	NutrientCarbs     = "CHOCDF"
	NutrientFat       = "FAT"
	NutrientFiber     = "FIBTG"
	NutrientSugar     = "SUGAR"
	NutrientSodium    = "NA"
	NutrientPotassium = "K"
)

type nutrient struct {
	Label    string  `json:"label"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

type nutritionDataResponse struct {
	Calories       float64             `json:"calories"`
	TotalWeight    float64             `json:"totalWeight"`
	TotalNutrients map[string]nutrient `json:"totalNutrients"`
	Ingredients    []struct {
		Parsed []struct {
			Food      string `json:"food"`
			FoodMatch string `json:"foodMatch"`
		} `json:"parsed"`
	} `json:"ingredients"`
}

type parserResponse struct {
	Hints []struct {
		Food struct {
			FoodID   string `json:"foodId"`
			Label    string `json:"label"`
			Category string `json:"category"`
		} `json:"food"`
	} `json:"hints"`
}

// Client Edamam 營養分析客戶端
type Client struct {
	client *resty.Client
	appID  string
	appKey string
}

// NewClient 創建 Edamam 客戶端
func NewClient(cfg config.ProviderConfig) *Client {
	return &Client{
		client: provider.NewHTTPClient(cfg),
		appID:  cfg.AppID,
		appKey: cfg.APIKey,
	}
}

// Name 供應商名稱
func (c *Client) Name() string {
	return providerName
}

// Lookup 以自然語言食材查詢營養資料，查無資料回傳 nil
func (c *Client) Lookup(ctx context.Context, food string) (*nutrition.Record, error) {
	var resp nutritionDataResponse
	err := provider.GetJSON(ctx, c.client, providerName, "lookup", "/api/nutrition-data", map[string]string{
		"app_id":         c.appID,
		"app_key":        c.appKey,
		"nutrition-type": "logging",
		"ingr":           food,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.TotalWeight <= 0 || len(resp.TotalNutrients) == 0 {
		return nil, nil
	}

	name := food
	if len(resp.Ingredients) > 0 && len(resp.Ingredients[0].Parsed) > 0 {
		parsed := resp.Ingredients[0].Parsed[0]
		if parsed.FoodMatch != "" {
			name = parsed.FoodMatch
		} else if parsed.Food != "" {
			name = parsed.Food
		}
	}

	q := func(code string) float64 { return resp.TotalNutrients[code].Quantity }
	calories := q(NutrientEnergy)
	if calories == 0 {
		calories = resp.Calories
	}

	return &nutrition.Record{
		Calories:    calories,
		Protein:     q(NutrientProtein),
		Carbs:       q(NutrientCarbs),
		Fat:         q(NutrientFat),
		Fiber:       q(NutrientFiber),
		Sugar:       q(NutrientSugar),
		Sodium:      q(NutrientSodium),
		Potassium:   q(NutrientPotassium),
		ServingSize: resp.TotalWeight,
		ServingUnit: "g",
		Source:      providerName,
		Name:        name,
	}, nil
}

// Search 以 food-database parser 取得候選食材
func (c *Client) Search(ctx context.Context, food string, limit int) ([]nutrition.Candidate, error) {
	var resp parserResponse
	err := provider.GetJSON(ctx, c.client, providerName, "search", "/api/food-database/v2/parser", map[string]string{
		"app_id":  c.appID,
		"app_key": c.appKey,
		"ingr":    food,
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := make([]nutrition.Candidate, 0, len(resp.Hints))
	for _, hint := range resp.Hints {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, nutrition.Candidate{
			Name:     hint.Food.Label,
			Source:   providerName,
			Category: hint.Food.Category,
		})
	}
	return out, nil
}

// Enabled 是否具備憑證
func Enabled(cfg config.ProviderConfig) bool {
	return cfg.Enabled && cfg.AppID != "" && cfg.APIKey != ""
}
