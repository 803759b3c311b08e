package ninjas

import (
	"context"

	"recipe-hub/internal/core/nutrition"
	"recipe-hub/internal/core/provider"
	"recipe-hub/internal/infrastructure/config"
	"recipe-hub/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

const providerName = "ninjas"

// item API Ninjas 回傳的單一食材；免費方案部分欄位為字串
type item struct {
	Name         string           `json:"name"`
	Calories     common.FlexFloat `json:"calories"`
	ServingSizeG common.FlexFloat `json:"serving_size_g"`
	FatTotalG    common.FlexFloat `json:"fat_total_g"`
	ProteinG     common.FlexFloat `json:"protein_g"`
	SodiumMg     common.FlexFloat `json:"sodium_mg"`
	PotassiumMg  common.FlexFloat `json:"potassium_mg"`
	CarbsTotalG  common.FlexFloat `json:"carbohydrates_total_g"`
	FiberG       common.FlexFloat `json:"fiber_g"`
	SugarG       common.FlexFloat `json:"sugar_g"`
}

// Client API Ninjas 營養查詢客戶端
type Client struct {
	client *resty.Client
}

// NewClient 創建 API Ninjas 客戶端
func NewClient(cfg config.ProviderConfig) *Client {
	return &Client{
		client: provider.NewHTTPClient(cfg).SetHeader("X-Api-Key", cfg.APIKey),
	}
}

// Name 供應商名稱
func (c *Client) Name() string {
	return providerName
}

// Lookup 查詢第一筆結果，查無資料回傳 nil
func (c *Client) Lookup(ctx context.Context, food string) (*nutrition.Record, error) {
	items, err := c.query(ctx, "lookup", food)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	it := items[0]
	size := float64(it.ServingSizeG)
	if size <= 0 {
		size = 100
	}
	return &nutrition.Record{
		Calories:    float64(it.Calories),
		Protein:     float64(it.ProteinG),
		Carbs:       float64(it.CarbsTotalG),
		Fat:         float64(it.FatTotalG),
		Fiber:       float64(it.FiberG),
		Sugar:       float64(it.SugarG),
		Sodium:      float64(it.SodiumMg),
		Potassium:   float64(it.PotassiumMg),
		ServingSize: size,
		ServingUnit: "g",
		Source:      providerName,
		Name:        it.Name,
	}, nil
}

// Search 以同一端點列出候選
func (c *Client) Search(ctx context.Context, food string, limit int) ([]nutrition.Candidate, error) {
	items, err := c.query(ctx, "search", food)
	if err != nil {
		return nil, err
	}
	out := make([]nutrition.Candidate, 0, len(items))
	for _, it := range items {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, nutrition.Candidate{Name: it.Name, Source: providerName})
	}
	return out, nil
}

func (c *Client) query(ctx context.Context, operation, food string) ([]item, error) {
	var items []item
	err := provider.GetJSON(ctx, c.client, providerName, operation, "/v1/nutrition", map[string]string{
		"query": food,
	}, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Enabled 是否具備憑證
func Enabled(cfg config.ProviderConfig) bool {
	return cfg.Enabled && cfg.APIKey != ""
}
