package nutrition

import "strings"

// unitGrams 單位換算公克
var unitGrams = map[string]float64{
	"cup":  240,
	"tbsp": 15,
	"tsp":  5,
	"oz":   28.35,
	"g":    1,
	"kg":   1000,
}

// unitAliases 常見寫法
var unitAliases = map[string]string{
	"cups":        "cup",
	"tablespoon":  "tbsp",
	"tablespoons": "tbsp",
	"teaspoon":    "tsp",
	"teaspoons":   "tsp",
	"ounce":       "oz",
	"ounces":      "oz",
	"gram":        "g",
	"grams":       "g",
	"gm":          "g",
	"kilogram":    "kg",
	"kilograms":   "kg",
}

// UnitGrams 單位對應的公克數；未知單位以 1 公克近似，known 為 false
func UnitGrams(unit string) (grams float64, known bool) {
	u := strings.ToLower(strings.TrimSpace(unit))
	if alias, ok := unitAliases[u]; ok {
		u = alias
	}
	if g, ok := unitGrams[u]; ok {
		return g, true
	}
	return 1, false
}

// ServingGrams 紀錄基準份量換算後的公克數
func ServingGrams(r Record) float64 {
	size := r.ServingSize
	if size <= 0 {
		size = 1
	}
	perUnit, _ := UnitGrams(r.ServingUnit)
	return size * perUnit
}

// ScaleToServing 換算為 targetGrams 公克的營養值，回傳新紀錄不修改原值
func ScaleToServing(r Record, targetGrams float64) Record {
	factor := targetGrams / ServingGrams(r)

	out := r
	out.Calories = r.Calories * factor
	out.Protein = r.Protein * factor
	out.Carbs = r.Carbs * factor
	out.Fat = r.Fat * factor
	out.Fiber = r.Fiber * factor
	out.Sugar = r.Sugar * factor
	out.Sodium = r.Sodium * factor
	out.Potassium = r.Potassium * factor
	out.ServingSize = targetGrams
	out.ServingUnit = "g"
	return out
}
