package nutrition

import (
	"context"
	"strings"
	"sync"

	"recipe-hub/internal/infrastructure/metrics"
	"recipe-hub/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Resolver 依固定優先順序查詢營養供應商
type Resolver struct {
	providers []Provider
	barcode   BarcodeProvider
	cache     RecordCache
}

// NewResolver 創建解析器，providers 的順序即為優先順序
func NewResolver(barcode BarcodeProvider, providers ...Provider) *Resolver {
	list := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			list = append(list, p)
		}
	}
	return &Resolver{providers: list, barcode: barcode}
}

// WithCache 設定查詢結果快取，只保存有資料的結果
func (r *Resolver) WithCache(c RecordCache) *Resolver {
	r.cache = c
	return r
}

// Providers 已設定的供應商名稱
func (r *Resolver) Providers() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	return names
}

// Resolve 回傳第一個有結果的供應商資料；全部失敗或查無資料時回傳 nil
func (r *Resolver) Resolve(ctx context.Context, food string) *Record {
	food = strings.TrimSpace(food)
	if food == "" {
		return nil
	}

	key := strings.ToLower(food)
	if r.cache != nil {
		if rec, ok := r.cache.Get(key); ok {
			return &rec
		}
	}

	for _, p := range r.providers {
		if ctx.Err() != nil {
			break
		}
		rec, err := p.Lookup(ctx, food)
		if err != nil {
			common.LogWarn("營養供應商查詢失敗",
				zap.String("provider", p.Name()),
				zap.String("food", food),
				zap.Error(err),
			)
			continue
		}
		if rec == nil {
			continue
		}

		out := Sanitize(*rec)
		if out.Source == "" {
			out.Source = p.Name()
		}
		if out.Name == "" {
			out.Name = food
		}
		metrics.ObserveNutrition(out.Source)
		if r.cache != nil {
			if err := r.cache.Set(key, out); err != nil {
				common.LogDebug("營養快取寫入失敗", zap.String("food", food), zap.Error(err))
			}
		}
		return &out
	}

	metrics.ObserveNutrition("")
	return nil
}

// SearchCandidates 合併所有供應商的候選項，名稱不分大小寫去重
func (r *Resolver) SearchCandidates(ctx context.Context, food string, limit int) []Candidate {
	food = strings.TrimSpace(food)
	if food == "" || limit == 0 {
		return []Candidate{}
	}

	results := make([][]Candidate, len(r.providers))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range r.providers {
		i, p := i, p
		g.Go(func() error {
			candidates, err := p.Search(gctx, food, limit)
			if err != nil {
				common.LogWarn("營養候選搜尋失敗",
					zap.String("provider", p.Name()),
					zap.String("food", food),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			results[i] = candidates
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// 依優先順序合併
	seen := make(map[string]bool)
	merged := make([]Candidate, 0)
	for i, list := range results {
		for _, c := range list {
			key := strings.ToLower(strings.TrimSpace(c.Name))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			if c.Source == "" {
				c.Source = r.providers[i].Name()
			}
			merged = append(merged, c)
		}
	}

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// LookupBarcode 以條碼查詢，查無資料時回傳 NOT_FOUND
func (r *Resolver) LookupBarcode(ctx context.Context, code string) (*Record, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, common.NewValidationError("barcode is required")
	}
	for _, ch := range code {
		if ch < '0' || ch > '9' {
			return nil, common.NewValidationError("barcode must be numeric")
		}
	}
	if r.barcode == nil {
		return nil, common.NewProviderUnavailableError("barcode", nil)
	}

	rec, err := r.barcode.LookupBarcode(ctx, code)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, common.NewNotFoundError("product not found")
	}

	out := Sanitize(*rec)
	if out.Source == "" {
		out.Source = r.barcode.Name()
	}
	return &out, nil
}
