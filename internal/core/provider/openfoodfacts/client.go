package openfoodfacts

import (
	"context"
	"net/http"
	"net/url"

	"recipe-hub/internal/core/nutrition"
	"recipe-hub/internal/core/provider"
	"recipe-hub/internal/infrastructure/config"
	"recipe-hub/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

const providerName = "openfoodfacts"

// nutriments 每 100 g 數值，鈉與鉀單位為 g
type nutriments struct {
	EnergyKcal    common.FlexFloat `json:"energy-kcal_100g"`
	Proteins      common.FlexFloat `json:"proteins_100g"`
	Carbohydrates common.FlexFloat `json:"carbohydrates_100g"`
	Fat           common.FlexFloat `json:"fat_100g"`
	Fiber         common.FlexFloat `json:"fiber_100g"`
	Sugars        common.FlexFloat `json:"sugars_100g"`
	Sodium        common.FlexFloat `json:"sodium_100g"`
	Potassium     common.FlexFloat `json:"potassium_100g"`
}

type productResponse struct {
	Status  int `json:"status"`
	Product struct {
		ProductName string     `json:"product_name"`
		Categories  string     `json:"categories"`
		Nutriments  nutriments `json:"nutriments"`
	} `json:"product"`
}

// Client Open Food Facts 條碼查詢客戶端，數值為每 100 g
type Client struct {
	client *resty.Client
}

// NewClient 創建 Open Food Facts 客戶端
func NewClient(cfg config.ProviderConfig) *Client {
	return &Client{client: provider.NewHTTPClient(cfg)}
}

// Name 供應商名稱
func (c *Client) Name() string {
	return providerName
}

// LookupBarcode 依條碼查詢，查無商品回傳 nil
func (c *Client) LookupBarcode(ctx context.Context, code string) (*nutrition.Record, error) {
	var resp productResponse
	err := provider.GetJSON(ctx, c.client, providerName, "barcode", "/api/v2/product/"+url.PathEscape(code)+".json", map[string]string{
		"fields": "product_name,categories,nutriments",
	}, &resp)
	if provider.IsStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if resp.Status != 1 {
		return nil, nil
	}

	n := resp.Product.Nutriments
	return &nutrition.Record{
		Calories:    float64(n.EnergyKcal),
		Protein:     float64(n.Proteins),
		Carbs:       float64(n.Carbohydrates),
		Fat:         float64(n.Fat),
		Fiber:       float64(n.Fiber),
		Sugar:       float64(n.Sugars),
		Sodium:      float64(n.Sodium) * 1000,
		Potassium:   float64(n.Potassium) * 1000,
		ServingSize: 100,
		ServingUnit: "g",
		Source:      providerName,
		Name:        resp.Product.ProductName,
		Category:    resp.Product.Categories,
	}, nil
}
