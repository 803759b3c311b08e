package usda

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"recipe-hub/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchBody = `{
	"totalHits": 2,
	"foods": [
		{
			"fdcId": 171688,
			"description": "Apples, raw, with skin",
			"dataType": "SR Legacy",
			"foodCategory": "Fruits and Fruit Juices",
			"foodNutrients": [
				{"nutrientId": 1008, "value": 52, "unitName": "KCAL"},
				{"nutrientId": 1003, "value": 0.26, "unitName": "G"},
				{"nutrientId": 1005, "value": 13.8, "unitName": "G"},
				{"nutrientId": 1004, "value": 0.17, "unitName": "G"},
				{"nutrientId": 1079, "value": 2.4, "unitName": "G"},
				{"nutrientId": 2000, "value": 10.4, "unitName": "G"},
				{"nutrientId": 1093, "value": 1, "unitName": "MG"},
				{"nutrientId": 1092, "value": 107, "unitName": "MG"},
				{"nutrientId": 1162, "value": 4.6, "unitName": "MG"}
			]
		},
		{"fdcId": 2, "description": "Apple juice", "foodCategory": "Beverages", "foodNutrients": []}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.ProviderConfig{Enabled: true, BaseURL: server.URL, APIKey: "fdc-key"})
}

func TestClient_Lookup(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/foods/search", r.URL.Path)
		assert.Equal(t, "fdc-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "1", r.URL.Query().Get("pageSize"))
		if r.URL.Query().Get("query") == "apple" {
			_, _ = w.Write([]byte(searchBody))
			return
		}
		_, _ = w.Write([]byte(`{"totalHits":0,"foods":[]}`))
	})
	ctx := context.Background()

	rec, err := client.Lookup(ctx, "apple")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "usda", rec.Source)
	assert.Equal(t, "Apples, raw, with skin", rec.Name)
	assert.Equal(t, "Fruits and Fruit Juices", rec.Category)
	assert.Equal(t, 52.0, rec.Calories)
	assert.Equal(t, 13.8, rec.Carbs)
	assert.Equal(t, 2.4, rec.Fiber)
	assert.Equal(t, 10.4, rec.Sugar)
	assert.Equal(t, 107.0, rec.Potassium)
	assert.Equal(t, 100.0, rec.ServingSize)

	missing, err := client.Lookup(ctx, "nothing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestClient_Search(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("pageSize"))
		_, _ = w.Write([]byte(searchBody))
	})

	got, err := client.Search(context.Background(), "apple", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Apple juice", got[1].Name)
	assert.Equal(t, "Beverages", got[1].Category)
	assert.Equal(t, "usda", got[1].Source)
}
