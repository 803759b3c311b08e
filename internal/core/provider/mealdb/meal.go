package mealdb

import (
	"encoding/json"
	"strconv"

	"recipe-hub/internal/core/provider"
)

// SlotCount TheMealDB 食材欄位數量
const SlotCount = 20

// Meal TheMealDB 原生食譜格式
type Meal struct {
	ID           string
	Name         string
	Category     string
	Area         string
	Instructions string
	Thumb        string
	Tags         string
	Youtube      string
	SourceURL    string
	Ingredients  [SlotCount]string
	Measures     [SlotCount]string

	// Partial 代表僅有 filter.php 回傳的 id/名稱/縮圖
	Partial bool
}

func (m *Meal) Source() provider.SourceKey { return provider.SourceMealDB }
func (m *Meal) RecipeID() string           { return m.ID }
func (m *Meal) RecipeTitle() string        { return m.Name }

// UnmarshalJSON 解析 strIngredient1..20 / strMeasure1..20 平行欄位
func (m *Meal) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	get := func(key string) string {
		if v, ok := raw[key].(string); ok {
			return v
		}
		return ""
	}

	*m = Meal{
		ID:           get("idMeal"),
		Name:         get("strMeal"),
		Category:     get("strCategory"),
		Area:         get("strArea"),
		Instructions: get("strInstructions"),
		Thumb:        get("strMealThumb"),
		Tags:         get("strTags"),
		Youtube:      get("strYoutube"),
		SourceURL:    get("strSource"),
	}
	for i := 0; i < SlotCount; i++ {
		n := strconv.Itoa(i + 1)
		m.Ingredients[i] = get("strIngredient" + n)
		m.Measures[i] = get("strMeasure" + n)
	}

	_, hasInstructions := raw["strInstructions"]
	m.Partial = !hasInstructions
	return nil
}

type mealsResponse struct {
	Meals []*Meal `json:"meals"`
}
