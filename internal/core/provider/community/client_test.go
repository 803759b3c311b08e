package community

import (
	"context"
	"testing"
	"time"

	"recipe-hub/internal/core/provider"
	"recipe-hub/internal/infrastructure/config"
	"recipe-hub/internal/infrastructure/persistence"
	"recipe-hub/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *persistence.Store) {
	t.Helper()
	db, err := persistence.Open(config.DatabaseConfig{
		Driver:      "sqlite",
		DSN:         "file::memory:?_foreign_keys=1",
		LogLevel:    "silent",
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { persistence.Close(db) })

	store := persistence.NewStore(db)
	return NewClient(store), store
}

func insert(t *testing.T, store *persistence.Store, r persistence.Recipe) *persistence.Recipe {
	t.Helper()
	require.NoError(t, store.InsertRecipe(context.Background(), &r))
	return &r
}

func visible(title, category, cuisine string, age time.Duration) persistence.Recipe {
	return persistence.Recipe{
		SourceKey:      "community",
		Title:          title,
		Category:       category,
		Cuisine:        cuisine,
		Status:         persistence.StatusPublished,
		ApprovalStatus: persistence.ApprovalApproved,
		IsPublic:       true,
		CreatedAt:      time.Now().Add(-age),
	}
}

func TestClient_OnlyVisibleRecipes(t *testing.T) {
	client, store := newTestClient(t)
	ctx := context.Background()

	insert(t, store, visible("Old Pie", "Dessert", "British", 2*time.Hour))
	insert(t, store, visible("New Pie", "Dessert", "British", time.Hour))
	draft := visible("Draft Pie", "Dessert", "British", 0)
	draft.Status = persistence.StatusDraft
	draft.ApprovalStatus = persistence.ApprovalPending
	hidden := insert(t, store, draft)

	results, err := client.Search(ctx, "pie")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "New Pie", results[0].RecipeTitle())
	assert.Equal(t, provider.SourceCommunity, results[0].Source())

	byArea, err := client.ListByArea(ctx, "brit")
	require.NoError(t, err)
	assert.Len(t, byArea, 2)

	got, err := client.GetByID(ctx, hidden.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	random, err := client.Random(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, random, 1)
}

func TestClient_StoreFailureIsProviderUnavailable(t *testing.T) {
	client, store := newTestClient(t)
	persistence.Close(store.DB())

	_, err := client.Search(context.Background(), "pie")
	assert.True(t, common.IsKind(err, common.ErrCodeProviderUnavailable))
}
