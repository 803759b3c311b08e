package recipe

import (
	"context"
	"fmt"
	"strings"

	"recipe-hub/internal/core/nutrition"
	"recipe-hub/internal/core/provider"
	"recipe-hub/internal/core/provider/community"
	"recipe-hub/internal/core/provider/mealdb"
	"recipe-hub/internal/infrastructure/persistence"
	"recipe-hub/internal/pkg/common"

	"go.uber.org/zap"
)

// NutritionResolver 依食物名稱解析營養資料
type NutritionResolver interface {
	Resolve(ctx context.Context, food string) *nutrition.Record
}

// Normalizer 將各來源原生食譜轉為 CanonicalRecipe
type Normalizer struct {
	resolver NutritionResolver
	policy   SlotPolicy
}

// NewNormalizer 創建正規化器，resolver 可為 nil
func NewNormalizer(resolver NutritionResolver, policy SlotPolicy) *Normalizer {
	return &Normalizer{resolver: resolver, policy: policy}
}

// Normalize 正規化並在缺少營養資料時以標題解析
func (n *Normalizer) Normalize(ctx context.Context, pr provider.ProviderRecipe) (*CanonicalRecipe, error) {
	rec, err := n.NormalizeBasic(pr)
	if err != nil {
		return nil, err
	}
	n.AttachNutrition(ctx, rec)
	return rec, nil
}

// NormalizeBasic 不查詢營養資料的純轉換
func (n *Normalizer) NormalizeBasic(pr provider.ProviderRecipe) (*CanonicalRecipe, error) {
	switch v := pr.(type) {
	case *mealdb.Meal:
		return n.fromMeal(v), nil
	case *community.Recipe:
		return fromCommunity(v), nil
	case nil:
		return nil, common.NewValidationError("recipe is required")
	default:
		return nil, common.NewValidationError(fmt.Sprintf("unsupported recipe type %T", pr))
	}
}

// AttachNutrition 食譜沒有營養資料時以標題解析，結果可能為 nil
func (n *Normalizer) AttachNutrition(ctx context.Context, rec *CanonicalRecipe) {
	if rec == nil || rec.Nutrition != nil || n.resolver == nil {
		return
	}
	rec.Nutrition = n.resolver.Resolve(ctx, rec.Title)
	if rec.Nutrition == nil {
		common.LogDebug("食譜無營養資料",
			zap.String("recipe", rec.Key()),
			zap.String("title", rec.Title),
		)
	}
}

func (n *Normalizer) fromMeal(m *mealdb.Meal) *CanonicalRecipe {
	prep, cook := EstimateTimes(m.Area, m.Category)
	return &CanonicalRecipe{
		ID:             m.ID,
		SourceKey:      m.Source(),
		Title:          strings.TrimSpace(m.Name),
		Instructions:   SplitInstructions(m.Instructions),
		Ingredients:    ExtractIngredients(m.Ingredients[:], m.Measures[:], n.policy),
		PrepTime:       common.Ptr(prep),
		CookTime:       common.Ptr(cook),
		TimesEstimated: true,
		Category:       m.Category,
		Cuisine:        m.Area,
		Image:          m.Thumb,
		Tags:           ExtractTags(m.Tags, m.Category),
		Moderation: Moderation{
			Status:         persistence.StatusPublished,
			ApprovalStatus: persistence.ApprovalApproved,
			IsPublic:       true,
		},
	}
}

func fromCommunity(r *community.Recipe) *CanonicalRecipe {
	row := r.Recipe
	out := &CanonicalRecipe{
		ID:             row.ID,
		SourceKey:      r.Source(),
		Title:          row.Title,
		Description:    row.Description,
		Instructions:   make([]string, 0, len(row.Instructions)),
		Ingredients:    make([]Ingredient, 0, len(row.Ingredients)),
		PrepTime:       row.PrepTime,
		CookTime:       row.CookTime,
		Servings:       row.Servings,
		TimesEstimated: row.TimesEstimated,
		Category:       row.Category,
		Cuisine:        row.Cuisine,
		Image:          row.Image,
		Tags:           make([]string, 0, len(row.Tags)),
		Moderation: Moderation{
			Status:         row.Status,
			ApprovalStatus: row.ApprovalStatus,
			IsPublic:       row.IsPublic,
		},
		CreatedAt: common.Ptr(row.CreatedAt),
		UpdatedAt: common.Ptr(row.UpdatedAt),
	}

	for _, step := range row.Instructions {
		out.Instructions = append(out.Instructions, step.Text)
	}
	for _, ing := range row.Ingredients {
		out.Ingredients = append(out.Ingredients, Ingredient{
			Name:     ing.Name,
			Amount:   ing.Amount,
			Unit:     ing.Unit,
			Notes:    ing.Notes,
			Optional: ing.Optional,
		})
	}
	for _, tag := range row.Tags {
		out.Tags = append(out.Tags, tag.Name)
	}

	if row.HasNutrition {
		out.Nutrition = &nutrition.Record{
			Calories:    row.Nutrition.Calories,
			Protein:     row.Nutrition.Protein,
			Carbs:       row.Nutrition.Carbs,
			Fat:         row.Nutrition.Fat,
			Fiber:       row.Nutrition.Fiber,
			Sugar:       row.Nutrition.Sugar,
			Sodium:      row.Nutrition.Sodium,
			Potassium:   row.Nutrition.Potassium,
			ServingSize: row.Nutrition.ServingSize,
			ServingUnit: row.Nutrition.ServingUnit,
			Source:      row.Nutrition.Source,
			Name:        row.Title,
		}
	}

	if row.IsPremium || row.Price != nil || row.PreviewText != nil {
		out.Monetization = &Monetization{
			IsPremium:   row.IsPremium,
			Price:       row.Price,
			PreviewText: row.PreviewText,
		}
	}

	if row.Creator != nil {
		out.Creator = &Creator{ID: row.Creator.ID, DisplayName: row.Creator.DisplayName}
	} else if row.CreatorID != nil {
		out.Creator = &Creator{ID: *row.CreatorID}
	}
	return out
}
