package mealdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"recipe-hub/internal/core/provider"
	"recipe-hub/internal/infrastructure/config"
	"recipe-hub/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullMeal = `{
	"idMeal": "52772",
	"strMeal": "Teriyaki Chicken Casserole",
	"strCategory": "Chicken",
	"strArea": "Japanese",
	"strInstructions": "Preheat oven.\r\nCombine sauce.",
	"strMealThumb": "https://www.themealdb.com/images/media/meals/wvpsxx1468256321.jpg",
	"strTags": "Meat,Casserole",
	"strIngredient1": "soy sauce",
	"strMeasure1": "3/4 cup",
	"strIngredient2": "water",
	"strMeasure2": "1/2 cup",
	"strIngredient3": "",
	"strMeasure3": "",
	"strIngredient4": null,
	"strMeasure4": null
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.ProviderConfig{BaseURL: server.URL, APIKey: "1"})
}

func TestMeal_UnmarshalJSON(t *testing.T) {
	var m Meal
	require.NoError(t, json.Unmarshal([]byte(fullMeal), &m))

	assert.Equal(t, "52772", m.ID)
	assert.Equal(t, "Teriyaki Chicken Casserole", m.Name)
	assert.Equal(t, "soy sauce", m.Ingredients[0])
	assert.Equal(t, "1/2 cup", m.Measures[1])
	assert.Equal(t, "", m.Ingredients[2])
	assert.Equal(t, "", m.Ingredients[3])
	assert.False(t, m.Partial)
	assert.Equal(t, provider.SourceMealDB, m.Source())

	var partial Meal
	require.NoError(t, json.Unmarshal([]byte(`{"idMeal":"1","strMeal":"X","strMealThumb":"t"}`), &partial))
	assert.True(t, partial.Partial)
}

func TestClient_SearchAndGetByID(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/1/search.php":
			assert.Equal(t, "teriyaki", r.URL.Query().Get("s"))
			_, _ = w.Write([]byte(`{"meals":[` + fullMeal + `]}`))
		case "/1/lookup.php":
			if r.URL.Query().Get("i") == "52772" {
				_, _ = w.Write([]byte(`{"meals":[` + fullMeal + `]}`))
				return
			}
			_, _ = w.Write([]byte(`{"meals":null}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	results, err := client.Search(ctx, "teriyaki")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "52772", results[0].RecipeID())

	got, err := client.GetByID(ctx, "52772")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Teriyaki Chicken Casserole", got.RecipeTitle())

	missing, err := client.GetByID(ctx, "0")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestClient_FilterHydratesPartialMeals(t *testing.T) {
	var lookups int32
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/1/filter.php":
			assert.Equal(t, "Japanese", r.URL.Query().Get("a"))
			_, _ = w.Write([]byte(`{"meals":[{"idMeal":"52772","strMeal":"Teriyaki Chicken Casserole","strMealThumb":"t"},{"idMeal":"999","strMeal":"Ghost","strMealThumb":"g"}]}`))
		case "/1/lookup.php":
			atomic.AddInt32(&lookups, 1)
			if r.URL.Query().Get("i") == "52772" {
				_, _ = w.Write([]byte(`{"meals":[` + fullMeal + `]}`))
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	results, err := client.ListByArea(context.Background(), "Japanese")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&lookups))

	hydrated := results[0].(*Meal)
	assert.False(t, hydrated.Partial)
	assert.Equal(t, "soy sauce", hydrated.Ingredients[0])

	// 補齊失敗的保留部分資料
	ghost := results[1].(*Meal)
	assert.True(t, ghost.Partial)
	assert.Equal(t, "Ghost", ghost.Name)
}

func TestClient_RandomDeduplicates(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meals":[` + fullMeal + `]}`))
	})

	results, err := client.Random(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestClient_ProviderUnavailable(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	ctx := context.Background()

	_, err := client.Search(ctx, "x")
	assert.True(t, common.IsKind(err, common.ErrCodeProviderUnavailable))

	_, err = client.ListByCategory(ctx, "Beef")
	assert.True(t, common.IsKind(err, common.ErrCodeProviderUnavailable))

	_, err = client.Random(ctx, 2)
	assert.True(t, common.IsKind(err, common.ErrCodeProviderUnavailable))
}
