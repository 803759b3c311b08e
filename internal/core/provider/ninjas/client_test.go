package ninjas

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"recipe-hub/internal/infrastructure/config"
	"recipe-hub/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.ProviderConfig{Enabled: true, BaseURL: server.URL, APIKey: "ninja-key"})
}

func TestClient_Lookup(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/nutrition", r.URL.Path)
		assert.Equal(t, "ninja-key", r.Header.Get("X-Api-Key"))
		switch r.URL.Query().Get("query") {
		case "brisket":
			// 免費方案的付費欄位以字串回傳
			_, _ = w.Write([]byte(`[{
				"name": "brisket",
				"calories": "Only available for premium subscribers.",
				"serving_size_g": 100,
				"fat_total_g": 21.1,
				"protein_g": "Only available for premium subscribers.",
				"sodium_mg": 53,
				"potassium_mg": 140,
				"carbohydrates_total_g": 0,
				"fiber_g": 0,
				"sugar_g": 0
			}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	})
	ctx := context.Background()

	rec, err := client.Lookup(ctx, "brisket")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "ninjas", rec.Source)
	assert.Equal(t, 21.1, rec.Fat)
	assert.Equal(t, 53.0, rec.Sodium)
	assert.Zero(t, rec.Calories)
	assert.Zero(t, rec.Protein)
	assert.Equal(t, 100.0, rec.ServingSize)

	missing, err := client.Lookup(ctx, "zzz")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestClient_SearchLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"name":"rice"},{"name":"beans"},{"name":"corn"}]`))
	})

	got, err := client.Search(context.Background(), "rice and beans and corn", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "beans", got[1].Name)
}

func TestClient_UpstreamFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "rice", 5)
	assert.True(t, common.IsKind(err, common.ErrCodeProviderUnavailable))
}
