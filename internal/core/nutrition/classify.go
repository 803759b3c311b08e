package nutrition

// Level 營養等級
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Levels 各營養素的等級
type Levels struct {
	Protein Level `json:"protein"`
	Fiber   Level `json:"fiber"`
	Sugar   Level `json:"sugar"`
	Sodium  Level `json:"sodium"`
}

// Classify 依固定門檻判斷等級（蛋白質/纖維 g、糖 g、鈉 mg）
func Classify(r Record) Levels {
	return Levels{
		Protein: atLeast(r.Protein, 15, 8),
		Fiber:   atLeast(r.Fiber, 5, 2.5),
		Sugar:   atMost(r.Sugar, 5, 15),
		Sodium:  atMost(r.Sodium, 400, 800),
	}
}

// atLeast 越多越高
func atLeast(v, high, medium float64) Level {
	switch {
	case v >= high:
		return LevelHigh
	case v >= medium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// atMost 越少越低
func atMost(v, low, medium float64) Level {
	switch {
	case v <= low:
		return LevelLow
	case v <= medium:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// Filter 營養篩選條件
type Filter string

const (
	FilterHighProtein Filter = "high-protein"
	FilterLowCalorie  Filter = "low-calorie"
	FilterHighFiber   Filter = "high-fiber"
	FilterLowSugar    Filter = "low-sugar"
)

// ParseFilter 解析篩選條件，未知值回傳 false
func ParseFilter(raw string) (Filter, bool) {
	switch f := Filter(raw); f {
	case FilterHighProtein, FilterLowCalorie, FilterHighFiber, FilterLowSugar:
		return f, true
	}
	return "", false
}

// Matches 紀錄是否符合篩選條件
func (f Filter) Matches(r Record) bool {
	switch f {
	case FilterHighProtein:
		return r.Protein >= 15
	case FilterLowCalorie:
		return r.Calories < 300
	case FilterHighFiber:
		return r.Fiber >= 5
	case FilterLowSugar:
		return r.Sugar <= 5
	}
	return false
}
