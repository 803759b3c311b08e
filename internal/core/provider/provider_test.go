package provider

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

type stubClient struct {
	src SourceKey
}

func (s stubClient) Source() SourceKey { return s.src }
func (s stubClient) Search(context.Context, string) ([]ProviderRecipe, error) {
	return nil, nil
}
func (s stubClient) GetByID(context.Context, string) (ProviderRecipe, error) { return nil, nil }
func (s stubClient) ListByCategory(context.Context, string) ([]ProviderRecipe, error) {
	return nil, nil
}
func (s stubClient) ListByArea(context.Context, string) ([]ProviderRecipe, error) {
	return nil, nil
}
func (s stubClient) ListByIngredient(context.Context, string) ([]ProviderRecipe, error) {
	return nil, nil
}
func (s stubClient) Random(context.Context, int) ([]ProviderRecipe, error) { return nil, nil }

func TestParseSource(t *testing.T) {
	tests := []struct {
		in      string
		want    SourceKey
		wantErr bool
	}{
		{in: "community", want: SourceCommunity},
		{in: "mealdb", want: SourceMealDB},
		{in: " External:MealDB ", want: SourceMealDB},
		{in: "", wantErr: true},
		{in: "spoonacular", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSource(tt.in)
			if tt.wantErr {
				assert.True(t, common.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSourceKey(t *testing.T) {
	assert.True(t, SourceMealDB.IsExternal())
	assert.False(t, SourceCommunity.IsExternal())
	assert.Equal(t, "mealdb", SourceMealDB.ProviderName())
	assert.Equal(t, "community", SourceCommunity.ProviderName())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(stubClient{src: SourceMealDB}, stubClient{src: SourceCommunity})
	r.Register(stubClient{src: SourceMealDB})
	r.Register(nil)

	assert.Equal(t, []SourceKey{SourceMealDB, SourceCommunity}, r.Sources())
	assert.Len(t, r.Clients(), 2)

	c, ok := r.Get(SourceCommunity)
	require.True(t, ok)
	assert.Equal(t, SourceCommunity, c.Source())

	_, ok = r.Get(SourceKey("external:unknown"))
	assert.False(t, ok)
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "soup", r.URL.Query().Get("q"))
			_, _ = w.Write([]byte(`{"name":"soup"}`))
		case "/broken":
			_, _ = w.Write([]byte(`{"name":`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := NewHTTPClient(config.ProviderConfig{BaseURL: server.URL})
	ctx := context.Background()

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, GetJSON(ctx, client, "test", "ok", "/ok", map[string]string{"q": "soup"}, &out))
	assert.Equal(t, "soup", out.Name)

	err := GetJSON(ctx, client, "test", "broken", "/broken", nil, &out)
	assert.True(t, common.IsKind(err, common.ErrCodeProviderUnavailable))

	err = GetJSON(ctx, client, "test", "fail", "/fail", nil, &out)
	assert.True(t, common.IsKind(err, common.ErrCodeProviderUnavailable))
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
}

func TestGetJSON_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewHTTPClient(config.ProviderConfig{BaseURL: url})
	err := GetJSON(context.Background(), client, "test", "down", "/x", map[string]string{"api_key": "secret"}, nil)
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.ErrCodeProviderUnavailable))
	assert.NotContains(t, err.Error(), "secret")
}
