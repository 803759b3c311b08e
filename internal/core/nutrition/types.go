package nutrition

import (
	"context"
	"math"
)

// Record 營養資料，數值以 ServingSize x ServingUnit 為基準
type Record struct {
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
	Fiber       float64 `json:"fiber"`
	Sugar       float64 `json:"sugar"`
	Sodium      float64 `json:"sodium"`
	Potassium   float64 `json:"potassium"`
	ServingSize float64 `json:"serving_size"`
	ServingUnit string  `json:"serving_unit"`
	Source      string  `json:"source"`
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
}

// Candidate 互動式搜尋候選項
type Candidate struct {
	Name     string `json:"name"`
	Source   string `json:"source"`
	Category string `json:"category,omitempty"`
}

// Provider 營養資料供應商
//
// Lookup 查無資料時回傳 nil, nil。
type Provider interface {
	Name() string
	Lookup(ctx context.Context, food string) (*Record, error)
	Search(ctx context.Context, food string, limit int) ([]Candidate, error)
}

// BarcodeProvider 條碼查詢供應商
type BarcodeProvider interface {
	Name() string
	LookupBarcode(ctx context.Context, code string) (*Record, error)
}

// RecordCache 營養查詢結果快取
type RecordCache interface {
	Get(key string) (Record, bool)
	Set(key string, rec Record) error
}

// Sanitize 將 NaN、Inf 與負值歸零，回傳新紀錄
func Sanitize(r Record) Record {
	r.Calories = clean(r.Calories)
	r.Protein = clean(r.Protein)
	r.Carbs = clean(r.Carbs)
	r.Fat = clean(r.Fat)
	r.Fiber = clean(r.Fiber)
	r.Sugar = clean(r.Sugar)
	r.Sodium = clean(r.Sodium)
	r.Potassium = clean(r.Potassium)
	r.ServingSize = clean(r.ServingSize)
	return r
}

func clean(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
