package usda

import (
	"context"
	"strconv"

	"recipe-hub/internal/core/nutrition"
	"recipe-hub/internal/core/provider"
	"recipe-hub/internal/infrastructure/config"

	"github.com/go-resty/resty/v2"
)

const providerName = "usda"

// FoodData Central 營養素 ID
const (
	NutrientIDEnergy       = 1008 // kcal
	NutrientIDProtein      = 1003 // g
	NutrientIDCarbohydrate = 1005 // g
	NutrientIDTotalFat     = 1004 // g
	NutrientIDFiber        = 1079 // g
	NutrientIDSugars       = 2000 // g
	NutrientIDSodium       = 1093 // mg
	NutrientIDPotassium    = 1092 // mg
)

type foodNutrient struct {
	NutrientID int     `json:"nutrientId"`
	Value      float64 `json:"value"`
	UnitName   string  `json:"unitName"`
}

type food struct {
	FdcID         int            `json:"fdcId"`
	Description   string         `json:"description"`
	DataType      string         `json:"dataType"`
	FoodCategory  string         `json:"foodCategory"`
	FoodNutrients []foodNutrient `json:"foodNutrients"`
}

type searchResponse struct {
	TotalHits int    `json:"totalHits"`
	Foods     []food `json:"foods"`
}

// Client USDA FoodData Central 客戶端，數值為每 100 g
type Client struct {
	client *resty.Client
}

// NewClient 創建 USDA 客戶端，API key 以 X-Api-Key 標頭送出
func NewClient(cfg config.ProviderConfig) *Client {
	return &Client{
		client: provider.NewHTTPClient(cfg).SetHeader("X-Api-Key", cfg.APIKey),
	}
}

// Name 供應商名稱
func (c *Client) Name() string {
	return providerName
}

// Lookup 取第一筆搜尋結果，查無資料回傳 nil
func (c *Client) Lookup(ctx context.Context, name string) (*nutrition.Record, error) {
	foods, err := c.search(ctx, "lookup", name, 1)
	if err != nil {
		return nil, err
	}
	if len(foods) == 0 {
		return nil, nil
	}
	return toRecord(foods[0]), nil
}

// Search 列出候選食材
func (c *Client) Search(ctx context.Context, name string, limit int) ([]nutrition.Candidate, error) {
	if limit <= 0 {
		limit = 10
	}
	foods, err := c.search(ctx, "search", name, limit)
	if err != nil {
		return nil, err
	}

	out := make([]nutrition.Candidate, 0, len(foods))
	for _, f := range foods {
		out = append(out, nutrition.Candidate{
			Name:     f.Description,
			Source:   providerName,
			Category: f.FoodCategory,
		})
	}
	return out, nil
}

func (c *Client) search(ctx context.Context, operation, name string, pageSize int) ([]food, error) {
	var resp searchResponse
	err := provider.GetJSON(ctx, c.client, providerName, operation, "/v1/foods/search", map[string]string{
		"query":    name,
		"pageSize": strconv.Itoa(pageSize),
		"dataType": "Foundation,SR Legacy,Survey (FNDDS)",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Foods, nil
}

// toRecord 轉換為營養紀錄
func toRecord(f food) *nutrition.Record {
	rec := &nutrition.Record{
		ServingSize: 100,
		ServingUnit: "g",
		Source:      providerName,
		Name:        f.Description,
		Category:    f.FoodCategory,
	}
	for _, n := range f.FoodNutrients {
		switch n.NutrientID {
		case NutrientIDEnergy:
			rec.Calories = n.Value
		case NutrientIDProtein:
			rec.Protein = n.Value
		case NutrientIDCarbohydrate:
			rec.Carbs = n.Value
		case NutrientIDTotalFat:
			rec.Fat = n.Value
		case NutrientIDFiber:
			rec.Fiber = n.Value
		case NutrientIDSugars:
			rec.Sugar = n.Value
		case NutrientIDSodium:
			rec.Sodium = n.Value
		case NutrientIDPotassium:
			rec.Potassium = n.Value
		}
	}
	return rec
}

// Enabled 是否具備憑證
func Enabled(cfg config.ProviderConfig) bool {
	return cfg.Enabled && cfg.APIKey != ""
}
