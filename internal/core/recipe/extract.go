package recipe

import (
	"strings"
	"unicode"
)

// SlotPolicy 平行食材欄位遇到空白名稱時的處理方式
type SlotPolicy int

const (
	// StopAtFirstEmpty 遇到第一個空白名稱即停止
	StopAtFirstEmpty SlotPolicy = iota
	// SkipEmpty 略過空白名稱並繼續讀取後續欄位
	SkipEmpty
)

// ToTaste 無份量時的預設值
const ToTaste = "to taste"

// 預估時間（分鐘）
const (
	quickPrepMinutes   = 15
	defaultPrepMinutes = 30
	dessertCookMinutes = 45
	defaultCookMinutes = 60
)

// ExtractIngredients 由平行的名稱與份量欄位取出食材
func ExtractIngredients(names, measures []string, policy SlotPolicy) []Ingredient {
	out := make([]Ingredient, 0, len(names))
	for i, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			if policy == StopAtFirstEmpty {
				break
			}
			continue
		}

		measure := ""
		if i < len(measures) {
			measure = strings.TrimSpace(measures[i])
		}
		amount, unit := splitMeasure(measure)
		out = append(out, Ingredient{Name: name, Amount: amount, Unit: unit})
	}
	return out
}

// splitMeasure 將 "3/4 cup" 拆為數量與單位；非數字開頭時整段視為數量
func splitMeasure(measure string) (string, string) {
	if measure == "" {
		return ToTaste, ""
	}

	fields := strings.Fields(measure)
	n := 0
	for n < len(fields) && isQuantity(fields[n]) {
		n++
	}
	if n == 0 {
		return measure, ""
	}
	return strings.Join(fields[:n], " "), strings.Join(fields[n:], " ")
}

func isQuantity(token string) bool {
	first := []rune(token)[0]
	if unicode.IsDigit(first) {
		return true
	}
	// ½ ¼ ¾ 等分數字元
	return unicode.Is(unicode.No, first)
}

// SplitInstructions 依換行拆分步驟，去除空白行
func SplitInstructions(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	steps := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line != "" {
			steps = append(steps, line)
		}
	}
	return steps
}

// ExtractTags 拆分逗號分隔的標籤；沒有標籤時以分類為唯一標籤
func ExtractTags(raw, category string) []string {
	tags := make([]string, 0)
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		if category = strings.TrimSpace(category); category != "" {
			tags = append(tags, category)
		}
	}
	return tags
}

// EstimateTimes 無明確時間時依地區與分類預估準備與烹調時間
func EstimateTimes(area, category string) (prep, cook int) {
	prep = defaultPrepMinutes
	if strings.Contains(strings.ToLower(area), "quick") {
		prep = quickPrepMinutes
	}
	cook = defaultCookMinutes
	if strings.Contains(strings.ToLower(category), "dessert") {
		cook = dessertCookMinutes
	}
	return prep, cook
}
