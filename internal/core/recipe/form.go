package recipe

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"recipe-hub/internal/core/nutrition"
	"recipe-hub/internal/pkg/common"
)

// FormValue 表單數值欄位，接受數字、字串或 null
type FormValue string

// UnmarshalJSON 實現 json.Unmarshaler
func (v *FormValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormValue(s)
		return nil
	}
	*v = FormValue(data)
	return nil
}

// FormInput 使用者投稿表單
type FormInput struct {
	Title        string            `json:"title" binding:"required"`
	Description  string            `json:"description"`
	Category     string            `json:"category"`
	Cuisine      string            `json:"cuisine"`
	Image        string            `json:"image"`
	Instructions string            `json:"instructions"`
	Ingredients  []Ingredient      `json:"ingredients"`
	Tags         []string          `json:"tags"`
	PrepTime     FormValue         `json:"prep_time"`
	CookTime     FormValue         `json:"cook_time"`
	Servings     FormValue         `json:"servings"`
	Price        FormValue         `json:"price"`
	PreviewText  *string           `json:"preview_text"`
	IsPremium    bool              `json:"is_premium"`
	IsPublic     *bool             `json:"is_public"`
	Nutrition    *nutrition.Record `json:"nutrition"`
}

// ParseOptionalInt 寬鬆解析非負整數，無法解析時回傳 nil
func ParseOptionalInt(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 || n > math.MaxInt32 {
			return nil
		}
		return &n
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt32 {
		return nil
	}
	n := int(math.Round(f))
	return &n
}

// ParseOptionalPrice 寬鬆解析價格；負數回傳 VALIDATION_ERROR
func ParseOptionalPrice(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, nil
	}
	if f < 0 {
		return nil, common.NewValidationError("price must not be negative")
	}
	return &f, nil
}

// TruncatePreview 截斷預覽文字，nil 保持 nil
func TruncatePreview(text *string) *string {
	if text == nil {
		return nil
	}
	out := common.TruncateRunes(*text, PreviewMaxRunes)
	return &out
}
