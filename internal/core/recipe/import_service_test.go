package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"recipe-hub/internal/core/auth"
	"recipe-hub/internal/core/nutrition"
	"recipe-hub/internal/core/provider"
	"recipe-hub/internal/infrastructure/config"
	"recipe-hub/internal/infrastructure/persistence"
	"recipe-hub/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var admin = auth.Actor{ID: "admin-1", Role: auth.RoleAdmin, Email: "admin@example.com", DisplayName: "Admin"}

func newTestStore(t *testing.T) *persistence.Store {
	t.Helper()
	db, err := persistence.Open(config.DatabaseConfig{
		Driver:      "sqlite",
		DSN:         "file::memory:?_foreign_keys=1",
		LogLevel:    "silent",
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { persistence.Close(db) })
	return persistence.NewStore(db)
}

func newImportService(t *testing.T, clients ...provider.RecipeClient) (*ImportService, *persistence.Store) {
	t.Helper()
	store := newTestStore(t)
	normalizer := NewNormalizer(nil, StopAtFirstEmpty)
	search := NewSearchService(provider.NewRegistry(clients...), normalizer, 20, 100)
	return NewImportService(store, normalizer, search, nil), store
}

func countRows(t *testing.T, store *persistence.Store, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, store.DB().Model(model).Count(&n).Error)
	return n
}

func testDish() CanonicalRecipe {
	return CanonicalRecipe{
		ID:        "ext-42",
		SourceKey: provider.SourceMealDB,
		Title:     "Test Dish",
		Ingredients: []Ingredient{
			{Name: "flour", Amount: "200", Unit: "g"},
			{Name: "milk", Amount: "1", Unit: "cup"},
			{Name: "salt", Amount: ToTaste},
		},
		Instructions: SplitInstructions("Mix everything.\nBake for 20 minutes."),
		Moderation:   Moderation{Status: persistence.StatusDraft, ApprovalStatus: persistence.ApprovalPending},
	}
}

func TestImportExternalRecipe_WritesAllRows(t *testing.T) {
	svc, store := newImportService(t)
	ctx := context.Background()

	result, err := svc.ImportExternalRecipe(ctx, testDish(), admin)
	require.NoError(t, err)
	require.NotEmpty(t, result.RecipeID)

	assert.Equal(t, int64(1), countRows(t, store, &persistence.Recipe{}))
	assert.Equal(t, int64(3), countRows(t, store, &persistence.RecipeIngredient{}))
	assert.Equal(t, int64(2), countRows(t, store, &persistence.RecipeInstruction{}))
	assert.Equal(t, int64(1), countRows(t, store, &persistence.AuditLog{}))

	row, err := store.GetRecipe(ctx, result.RecipeID)
	require.NoError(t, err)
	assert.Equal(t, persistence.ApprovalApproved, row.ApprovalStatus)
	assert.Equal(t, persistence.StatusPublished, row.Status)
	assert.True(t, row.IsPublic)
	assert.Equal(t, "ext-42", *row.ExternalID)
	assert.Equal(t, "admin-1", *row.CreatorID)
	assert.False(t, row.HasNutrition)
	assert.Equal(t, 1, row.Instructions[0].StepNumber)
	assert.Equal(t, "Bake for 20 minutes.", row.Instructions[1].Text)
	assert.Equal(t, 3, row.Ingredients[2].Position)

	var audit persistence.AuditLog
	require.NoError(t, store.DB().First(&audit).Error)
	assert.Equal(t, ActionImport, audit.Action)
	assert.Equal(t, result.RecipeID, *audit.RecipeID)
	var snapshot CanonicalRecipe
	require.NoError(t, json.Unmarshal([]byte(audit.Snapshot), &snapshot))
	assert.Equal(t, "Test Dish", snapshot.Title)
}

func TestImportExternalRecipe_DuplicateIsConflict(t *testing.T) {
	svc, store := newImportService(t)
	ctx := context.Background()

	first, err := svc.ImportExternalRecipe(ctx, testDish(), admin)
	require.NoError(t, err)

	_, err = svc.ImportExternalRecipe(ctx, testDish(), admin)
	assert.True(t, common.IsKind(err, common.ErrCodeConflict))
	_, body := common.NewErrorResponse(err, true)
	assert.Contains(t, body.Details, first.RecipeID)
	assert.Equal(t, int64(1), countRows(t, store, &persistence.Recipe{}))
	assert.Equal(t, int64(3), countRows(t, store, &persistence.RecipeIngredient{}))
}

func TestImportExternalRecipe_MonetizationRules(t *testing.T) {
	svc, store := newImportService(t)
	ctx := context.Background()

	negative := testDish()
	negative.Monetization = &Monetization{IsPremium: true, Price: common.Ptr(-5.0)}
	_, err := svc.ImportExternalRecipe(ctx, negative, admin)
	assert.True(t, common.IsValidationError(err))

	paid := testDish()
	paid.Monetization = &Monetization{IsPremium: true, Price: common.Ptr(3.5)}
	_, err = svc.ImportExternalRecipe(ctx, paid, admin)
	assert.True(t, common.IsKind(err, common.ErrCodePermissionDenied))
	assert.Equal(t, int64(0), countRows(t, store, &persistence.Recipe{}))
	assert.Equal(t, int64(0), countRows(t, store, &persistence.AuditLog{}))

	require.NoError(t, store.DB().Create(&persistence.Subscription{
		UserID:           admin.ID,
		Plan:             "pro",
		Status:           "active",
		CurrentPeriodEnd: time.Now().Add(24 * time.Hour),
	}).Error)
	result, err := svc.ImportExternalRecipe(ctx, paid, admin)
	require.NoError(t, err)

	row, err := store.GetRecipe(ctx, result.RecipeID)
	require.NoError(t, err)
	assert.True(t, row.IsPremium)
	assert.Equal(t, 3.5, *row.Price)
}

func TestImportExternalRecipe_CleansIngredients(t *testing.T) {
	svc, store := newImportService(t)
	ctx := context.Background()

	dish := testDish()
	dish.Ingredients = []Ingredient{
		{Name: " pepper ", Amount: "  "},
		{Name: "   ", Amount: "1", Unit: "cup"},
		{Name: "butter", Amount: "50", Unit: "g"},
	}
	result, err := svc.ImportExternalRecipe(ctx, dish, admin)
	require.NoError(t, err)

	row, err := store.GetRecipe(ctx, result.RecipeID)
	require.NoError(t, err)
	require.Len(t, row.Ingredients, 2)
	assert.Equal(t, "pepper", row.Ingredients[0].Name)
	assert.Equal(t, ToTaste, row.Ingredients[0].Amount)
	assert.Equal(t, "butter", row.Ingredients[1].Name)
}

func TestImportExternalRecipe_AtomicOnChildFailure(t *testing.T) {
	svc, store := newImportService(t)

	err := store.DB().Callback().Create().Before("gorm:create").Register("test:fail_instructions", func(tx *gorm.DB) {
		if tx.Statement.Table == "recipe_instructions" {
			_ = tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)

	_, err = svc.ImportExternalRecipe(context.Background(), testDish(), admin)
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.ErrCodePersistenceFailure))

	assert.Equal(t, int64(0), countRows(t, store, &persistence.Recipe{}))
	assert.Equal(t, int64(0), countRows(t, store, &persistence.RecipeIngredient{}))
	assert.Equal(t, int64(0), countRows(t, store, &persistence.AuditLog{}))
}

func TestImportExternalRecipe_Validation(t *testing.T) {
	svc, _ := newImportService(t)
	ctx := context.Background()

	community := testDish()
	community.SourceKey = provider.SourceCommunity
	_, err := svc.ImportExternalRecipe(ctx, community, admin)
	assert.True(t, common.IsValidationError(err))

	untitled := testDish()
	untitled.Title = " "
	_, err = svc.ImportExternalRecipe(ctx, untitled, admin)
	assert.True(t, common.IsValidationError(err))

	_, err = svc.ImportExternalRecipe(ctx, testDish(), auth.Actor{})
	assert.True(t, common.IsKind(err, common.ErrCodeUnauthorized))
}

func TestImportFromSource(t *testing.T) {
	meal := newMeal("52772", "Teriyaki Chicken", "Chicken", "Japanese", "soy sauce", "water", "sugar")
	meal.Tags = "Meat,Casserole"
	svc, store := newImportService(t, &fakeClient{source: provider.SourceMealDB, recipes: []provider.ProviderRecipe{meal}})
	ctx := context.Background()

	result, err := svc.ImportFromSource(ctx, "mealdb", "52772", admin)
	require.NoError(t, err)

	row, err := store.GetRecipe(ctx, result.RecipeID)
	require.NoError(t, err)
	assert.Equal(t, "external:mealdb", row.SourceKey)
	assert.Len(t, row.Ingredients, 3)
	assert.Len(t, row.Instructions, 2)
	assert.Len(t, row.Tags, 2)
	assert.True(t, row.TimesEstimated)

	_, err = svc.ImportFromSource(ctx, "mealdb", "0", admin)
	assert.True(t, common.IsKind(err, common.ErrCodeNotFound))
}

func TestCreateUserRecipe_PendingWithChildren(t *testing.T) {
	svc, store := newImportService(t)
	ctx := context.Background()
	user := auth.Actor{ID: "user-1", Email: "cook@example.com"}

	result, err := svc.CreateUserRecipe(ctx, FormInput{
		Title:        "Grandma's Soup",
		Instructions: "Boil water\r\n\r\nAdd vegetables",
		Ingredients:  []Ingredient{{Name: "carrot", Amount: "2"}, {Name: " "}, {Name: "onion"}},
		Tags:         []string{"Soup", "soup", "Comfort"},
		PrepTime:     "15",
		CookTime:     "soon",
		Servings:     "4",
		Nutrition:    &nutrition.Record{Calories: 180, Source: "manual"},
	}, user)
	require.NoError(t, err)
	assert.Equal(t, persistence.ApprovalPending, result.ApprovalStatus)

	row, err := store.GetRecipe(ctx, result.RecipeID)
	require.NoError(t, err)
	assert.Equal(t, "community", row.SourceKey)
	assert.Nil(t, row.ExternalID)
	assert.Equal(t, persistence.StatusDraft, row.Status)
	assert.Equal(t, 15, *row.PrepTime)
	assert.Nil(t, row.CookTime)
	assert.Equal(t, 4, *row.Servings)
	assert.Len(t, row.Ingredients, 2)
	assert.Equal(t, ToTaste, row.Ingredients[1].Amount)
	assert.Len(t, row.Instructions, 2)
	assert.Len(t, row.Tags, 2)
	assert.True(t, row.HasNutrition)
	assert.Equal(t, 180.0, row.Nutrition.Calories)
	require.NotNil(t, row.Creator)
	assert.Equal(t, "cook@example.com", row.Creator.Email)
}

func TestCreateUserRecipe_PriceRequiresPremium(t *testing.T) {
	svc, store := newImportService(t)
	ctx := context.Background()
	user := auth.Actor{ID: "user-2"}

	_, err := svc.CreateUserRecipe(ctx, FormInput{Title: "Paid Pie", Price: "5"}, user)
	assert.True(t, common.IsKind(err, common.ErrCodePermissionDenied))
	assert.Equal(t, int64(0), countRows(t, store, &persistence.Recipe{}))
	assert.Equal(t, int64(0), countRows(t, store, &persistence.AuditLog{}))

	preview := "a sneak peek"
	_, err = svc.CreateUserRecipe(ctx, FormInput{Title: "Paid Pie", PreviewText: &preview}, user)
	assert.True(t, common.IsKind(err, common.ErrCodePermissionDenied))

	_, err = svc.CreateUserRecipe(ctx, FormInput{Title: "Paid Pie", Price: "-2"}, user)
	assert.True(t, common.IsValidationError(err))
}

func TestCreateUserRecipe_PremiumCreator(t *testing.T) {
	svc, store := newImportService(t)
	ctx := context.Background()
	user := auth.Actor{ID: "user-3"}

	require.NoError(t, store.DB().Create(&persistence.Subscription{
		UserID:           "user-3",
		Plan:             "pro",
		Status:           "active",
		CurrentPeriodEnd: time.Now().Add(24 * time.Hour),
	}).Error)

	long := ""
	for i := 0; i < 30; i++ {
		long += "delicious "
	}
	result, err := svc.CreateUserRecipe(ctx, FormInput{Title: "Paid Pie", Price: "5", PreviewText: &long}, user)
	require.NoError(t, err)

	row, err := store.GetRecipe(ctx, result.RecipeID)
	require.NoError(t, err)
	assert.True(t, row.IsPremium)
	assert.Equal(t, 5.0, *row.Price)
	assert.Len(t, []rune(*row.PreviewText), PreviewMaxRunes)
}

func TestUpdateStatus_TransitionsAndHistory(t *testing.T) {
	svc, store := newImportService(t)
	ctx := context.Background()

	created, err := svc.CreateUserRecipe(ctx, FormInput{Title: "Salad"}, auth.Actor{ID: "user-4"})
	require.NoError(t, err)
	id := created.RecipeID

	change, err := svc.UpdateStatus(ctx, id, "approved", "looks good", admin)
	require.NoError(t, err)
	assert.Equal(t, &StatusChange{RecipeID: id, From: "pending", To: "approved", Changed: true}, change)

	row, err := store.GetRecipe(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, persistence.StatusPublished, row.Status)

	// 相同狀態不寫入歷程
	same, err := svc.UpdateStatus(ctx, id, "APPROVED", "", admin)
	require.NoError(t, err)
	assert.False(t, same.Changed)

	_, err = svc.UpdateStatus(ctx, id, "rejected", "spam", admin)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, id, "approved", "appeal", admin)
	require.NoError(t, err)

	history, err := svc.StatusHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "pending", history[0].From)
	assert.Equal(t, "approved", history[0].To)
	assert.Equal(t, "spam", history[1].Reason)
	assert.Equal(t, "rejected", history[2].From)
	assert.Equal(t, "admin-1", history[2].ActorID)

	_, err = svc.UpdateStatus(ctx, id, "pending", "", admin)
	assert.True(t, common.IsValidationError(err))

	_, err = svc.UpdateStatus(ctx, "missing", "approved", "", admin)
	assert.True(t, common.IsKind(err, common.ErrCodeNotFound))

	_, err = svc.StatusHistory(ctx, "missing")
	assert.True(t, common.IsKind(err, common.ErrCodeNotFound))
}
