package recipe

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func twentySlots(emptyAt int) ([]string, []string) {
	names := make([]string, 20)
	measures := make([]string, 20)
	for i := range names {
		names[i] = fmt.Sprintf("ingredient %d", i+1)
		measures[i] = fmt.Sprintf("%d g", i+1)
	}
	names[emptyAt-1] = "  "
	return names, measures
}

func TestExtractIngredients_StopAtFirstEmpty(t *testing.T) {
	names, measures := twentySlots(5)

	got := ExtractIngredients(names, measures, StopAtFirstEmpty)
	assert.Len(t, got, 4)
	assert.Equal(t, "ingredient 4", got[3].Name)
}

func TestExtractIngredients_SkipEmpty(t *testing.T) {
	names, measures := twentySlots(5)

	got := ExtractIngredients(names, measures, SkipEmpty)
	assert.Len(t, got, 19)
	assert.Equal(t, "ingredient 6", got[4].Name)
	assert.Equal(t, "6", got[4].Amount)
}

func TestExtractIngredients_Measures(t *testing.T) {
	names := []string{"Soy Sauce", "Salt", "Egg", "Butter", "Sugar"}
	measures := []string{"3/4 cup", "", "2", "Knob", "½ tsp"}

	got := ExtractIngredients(names, measures, StopAtFirstEmpty)
	assert.Equal(t, []Ingredient{
		{Name: "Soy Sauce", Amount: "3/4", Unit: "cup"},
		{Name: "Salt", Amount: ToTaste},
		{Name: "Egg", Amount: "2"},
		{Name: "Butter", Amount: "Knob"},
		{Name: "Sugar", Amount: "½", Unit: "tsp"},
	}, got)
}

func TestExtractIngredients_ShortMeasures(t *testing.T) {
	got := ExtractIngredients([]string{"Flour", "Water"}, []string{"200 g"}, StopAtFirstEmpty)
	assert.Len(t, got, 2)
	assert.Equal(t, ToTaste, got[1].Amount)
}

func TestSplitInstructions(t *testing.T) {
	assert.Equal(t,
		[]string{"Step one", "Step two", "Step three"},
		SplitInstructions("Step one\r\nStep two\n\nStep three"),
	)
	assert.Empty(t, SplitInstructions(" \r\n \n"))
}

func TestExtractTags(t *testing.T) {
	assert.Equal(t, []string{"Meat", "Casserole"}, ExtractTags("Meat, Casserole,,meat", "Chicken"))
	assert.Equal(t, []string{"Chicken"}, ExtractTags("", "Chicken"))
	assert.Empty(t, ExtractTags(" , ", ""))
}

func TestEstimateTimes(t *testing.T) {
	tests := []struct {
		area, category string
		prep, cook     int
	}{
		{"Quick Bites", "Dessert", 15, 45},
		{"Italian", "Pasta", 30, 60},
		{"QUICKLY", "Chocolate desserts", 15, 45},
	}
	for _, tt := range tests {
		t.Run(tt.area+"/"+tt.category, func(t *testing.T) {
			prep, cook := EstimateTimes(tt.area, tt.category)
			assert.Equal(t, tt.prep, prep)
			assert.Equal(t, tt.cook, cook)
		})
	}
}

func TestParseOptionalInt(t *testing.T) {
	assert.Equal(t, 15, *ParseOptionalInt("15"))
	assert.Equal(t, 3, *ParseOptionalInt(" 2.6 "))
	assert.Nil(t, ParseOptionalInt(""))
	assert.Nil(t, ParseOptionalInt("about ten"))
	assert.Nil(t, ParseOptionalInt("-4"))
	assert.Nil(t, ParseOptionalInt("1e30"))
	assert.Nil(t, ParseOptionalInt("99999999999999999999"))
	assert.Nil(t, ParseOptionalInt("3000000000"))
}

func TestParseOptionalPrice(t *testing.T) {
	price, err := ParseOptionalPrice("4.99")
	assert.NoError(t, err)
	assert.Equal(t, 4.99, *price)

	price, err = ParseOptionalPrice("free")
	assert.NoError(t, err)
	assert.Nil(t, price)

	_, err = ParseOptionalPrice("-1")
	assert.Error(t, err)
}
