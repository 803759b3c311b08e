package favorites

import (
	"context"
	"errors"
	"testing"
	"time"

	"recipe-hub/internal/core/provider"
	"recipe-hub/internal/infrastructure/config"
	"recipe-hub/internal/infrastructure/persistence"
	"recipe-hub/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	items    map[string][]Favorite
	err      error
	replaced int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[string][]Favorite)}
}

func (m *memoryRepo) Get(_ context.Context, userID string) ([]Favorite, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]Favorite(nil), m.items[userID]...), nil
}

func (m *memoryRepo) Add(_ context.Context, userID string, fav Favorite) error {
	if m.err != nil {
		return m.err
	}
	for _, f := range m.items[userID] {
		if f.RecipeKey == fav.RecipeKey {
			return nil
		}
	}
	m.items[userID] = append(m.items[userID], fav)
	return nil
}

func (m *memoryRepo) Remove(_ context.Context, userID, key string) error {
	if m.err != nil {
		return m.err
	}
	kept := m.items[userID][:0]
	for _, f := range m.items[userID] {
		if f.RecipeKey != key {
			kept = append(kept, f)
		}
	}
	m.items[userID] = kept
	return nil
}

func (m *memoryRepo) Replace(_ context.Context, userID string, favs []Favorite) error {
	if m.err != nil {
		return m.err
	}
	m.replaced++
	m.items[userID] = append([]Favorite(nil), favs...)
	return nil
}

func TestParseKey(t *testing.T) {
	src, id, err := ParseKey("external:mealdb:52772")
	require.NoError(t, err)
	assert.Equal(t, provider.SourceMealDB, src)
	assert.Equal(t, "52772", id)

	src, _, err = ParseKey("community:abc")
	require.NoError(t, err)
	assert.Equal(t, provider.SourceCommunity, src)

	for _, bad := range []string{"", "52772", "community:", ":1", "spoon:1"} {
		_, _, err := ParseKey(bad)
		assert.True(t, common.IsValidationError(err), bad)
	}
}

func TestService_ServerWinsOverCache(t *testing.T) {
	server, cache := newMemoryRepo(), newMemoryRepo()
	cache.items["u1"] = []Favorite{{RecipeKey: "community:stale"}}
	svc := NewService(server, cache)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "u1", Favorite{RecipeKey: "external:mealdb:1", Title: "Soup"}))

	list, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, list.Stale)
	require.Len(t, list.Favorites, 1)
	assert.Equal(t, "external:mealdb:1", list.Favorites[0].RecipeKey)
	assert.False(t, list.Favorites[0].AddedAt.IsZero())

	// 快取以伺服器狀態覆寫
	assert.Equal(t, 1, cache.replaced)
	assert.Equal(t, list.Favorites, cache.items["u1"])
}

func TestService_FallsBackToCacheWhenServerFails(t *testing.T) {
	server, cache := newMemoryRepo(), newMemoryRepo()
	cache.items["u1"] = []Favorite{{RecipeKey: "community:1"}}
	server.err = errors.New("db down")
	svc := NewService(server, cache)
	ctx := context.Background()

	list, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, list.Stale)
	assert.Len(t, list.Favorites, 1)

	// 寫入必須經過伺服器
	err = svc.Add(ctx, "u1", Favorite{RecipeKey: "community:2"})
	assert.True(t, common.IsKind(err, common.ErrCodePersistenceFailure))
	assert.Len(t, cache.items["u1"], 1)

	cache.err = errors.New("redis down")
	_, err = svc.Get(ctx, "u1")
	assert.True(t, common.IsKind(err, common.ErrCodePersistenceFailure))

	_, err = NewService(server, nil).Get(ctx, "u1")
	assert.Error(t, err)
}

func TestService_CacheFailureIsBestEffort(t *testing.T) {
	server, cache := newMemoryRepo(), newMemoryRepo()
	cache.err = errors.New("redis down")
	svc := NewService(server, cache)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "u1", Favorite{RecipeKey: "community:1"}))
	require.NoError(t, svc.Remove(ctx, "u1", "community:1"))

	list, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list.Favorites)
}

func TestService_Toggle(t *testing.T) {
	server := newMemoryRepo()
	svc := NewService(server, nil)
	ctx := context.Background()
	fav := Favorite{RecipeKey: "mealdb:52772"}

	on, err := svc.Toggle(ctx, "u1", fav)
	require.NoError(t, err)
	assert.True(t, on)
	assert.Len(t, server.items["u1"], 1)

	off, err := svc.Toggle(ctx, "u1", fav)
	require.NoError(t, err)
	assert.False(t, off)
	assert.Empty(t, server.items["u1"])

	_, err = svc.Toggle(ctx, "u1", Favorite{RecipeKey: "nope"})
	assert.True(t, common.IsValidationError(err))
}

func TestServerRepository(t *testing.T) {
	db, err := persistence.Open(config.DatabaseConfig{
		Driver:      "sqlite",
		DSN:         "file::memory:?_foreign_keys=1",
		LogLevel:    "silent",
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { persistence.Close(db) })

	repo := NewServerRepository(persistence.NewStore(db))
	svc := NewService(repo, nil)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "u1", Favorite{RecipeKey: "community:a", Title: "A", AddedAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, svc.Add(ctx, "u1", Favorite{RecipeKey: "community:b", Title: "B"}))
	require.NoError(t, svc.Add(ctx, "u1", Favorite{RecipeKey: "community:b", Title: "B"}))

	list, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list.Favorites, 2)
	assert.Equal(t, "community:b", list.Favorites[0].RecipeKey)

	on, err := svc.Toggle(ctx, "u1", Favorite{RecipeKey: "community:a"})
	require.NoError(t, err)
	assert.False(t, on)

	list, err = svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list.Favorites, 1)
}
