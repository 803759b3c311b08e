package recipe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"recipe-hub/internal/core/auth"
	"recipe-hub/internal/core/provider"
	"recipe-hub/internal/infrastructure/metrics"
	"recipe-hub/internal/infrastructure/persistence"
	"recipe-hub/internal/pkg/common"

	"go.uber.org/zap"
)

// 稽核動作
const (
	ActionImport = "import"
	ActionCreate = "create"
	ActionStatus = "status_change"
)

// StatusEntry 審核歷程
type StatusEntry struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	ActorID   string    `json:"actor_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PremiumChecker 訂閱狀態查詢
type PremiumChecker interface {
	HasActivePremium(ctx context.Context, userID string) (bool, error)
}

// ImportService 食譜寫入服務，每次寫入為單一交易
type ImportService struct {
	store      *persistence.Store
	normalizer *Normalizer
	search     *SearchService
	premium    PremiumChecker
}

// NewImportService 創建寫入服務；premium 為 nil 時使用 store 的訂閱資料
func NewImportService(store *persistence.Store, normalizer *Normalizer, search *SearchService, premium PremiumChecker) *ImportService {
	if premium == nil {
		premium = store
	}
	return &ImportService{
		store:      store,
		normalizer: normalizer,
		search:     search,
		premium:    premium,
	}
}

// ImportFromSource 由來源抓取、正規化後匯入
func (s *ImportService) ImportFromSource(ctx context.Context, source, id string, actor auth.Actor) (*ImportResult, error) {
	if s.search == nil {
		return nil, common.NewValidationError("import from source is not configured")
	}
	pr, err := s.search.Fetch(ctx, source, id)
	if err != nil {
		return nil, err
	}
	rec, err := s.normalizer.Normalize(ctx, pr)
	if err != nil {
		return nil, err
	}
	return s.ImportExternalRecipe(ctx, *rec, actor)
}

// ImportExternalRecipe 匯入外部食譜，強制設為已核准、已發布且公開
func (s *ImportService) ImportExternalRecipe(ctx context.Context, rec CanonicalRecipe, actor auth.Actor) (*ImportResult, error) {
	if actor.ID == "" {
		return nil, common.NewUnauthorizedError("actor is required")
	}
	rec.Title = strings.TrimSpace(rec.Title)
	rec.ID = strings.TrimSpace(rec.ID)
	if rec.Title == "" {
		return nil, common.NewValidationError("title is required")
	}
	if rec.ID == "" {
		return nil, common.NewValidationError("external recipe id is required")
	}
	if !rec.SourceKey.IsExternal() {
		return nil, common.NewValidationError("only external recipes can be imported")
	}

	if m := rec.Monetization; m != nil {
		if m.Price != nil && *m.Price < 0 {
			return nil, common.NewValidationError("price must not be negative")
		}
		if err := s.requirePremium(ctx, actor.ID); err != nil {
			return nil, err
		}
	}

	rec.Ingredients = cleanIngredients(rec.Ingredients)
	rec.Moderation = Moderation{
		Status:         persistence.StatusPublished,
		ApprovalStatus: persistence.ApprovalApproved,
		IsPublic:       true,
	}

	row := toRow(&rec)
	row.ExternalID = common.Ptr(rec.ID)
	row.CreatorID = common.Ptr(actor.ID)

	err := s.store.Transaction(ctx, func(tx *persistence.Store) error {
		return writeRecipe(ctx, tx, row, &rec, ActionImport, actor)
	})
	metrics.ObserveRecipeWrite(ActionImport, err)
	if common.IsKind(err, common.ErrCodeConflict) {
		if existing, findErr := s.store.FindByExternal(ctx, row.SourceKey, rec.ID); findErr == nil {
			common.LogWarn("食譜已匯入",
				zap.String("external_id", rec.ID),
				zap.String("recipe_id", existing.ID),
			)
			return nil, common.NewConflictError("recipe already imported", fmt.Errorf("existing recipe %s", existing.ID))
		}
	}
	if err != nil {
		common.LogError("食譜匯入失敗",
			zap.String("source", rec.SourceKey.String()),
			zap.String("external_id", rec.ID),
			zap.Error(err),
		)
		return nil, wrapWriteError("failed to import recipe", err)
	}

	common.LogInfo("食譜匯入完成",
		zap.String("recipe_id", row.ID),
		zap.String("source", rec.SourceKey.String()),
		zap.String("external_id", rec.ID),
		zap.String("actor", actor.ID),
	)
	return &ImportResult{RecipeID: row.ID}, nil
}

// CreateUserRecipe 使用者投稿，狀態為待審核
func (s *ImportService) CreateUserRecipe(ctx context.Context, in FormInput, actor auth.Actor) (*CreateResult, error) {
	if actor.ID == "" {
		return nil, common.NewUnauthorizedError("actor is required")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, common.NewValidationError("title is required")
	}

	price, err := ParseOptionalPrice(string(in.Price))
	if err != nil {
		return nil, err
	}
	preview := TruncatePreview(in.PreviewText)
	if preview != nil && strings.TrimSpace(*preview) == "" {
		preview = nil
	}

	// 付費設定需有效訂閱，檢查在交易外完成
	if price != nil || preview != nil || in.IsPremium {
		if err := s.requirePremium(ctx, actor.ID); err != nil {
			return nil, err
		}
	}

	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}

	rec := CanonicalRecipe{
		SourceKey:    provider.SourceCommunity,
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		Instructions: SplitInstructions(in.Instructions),
		Ingredients:  cleanIngredients(in.Ingredients),
		PrepTime:     ParseOptionalInt(string(in.PrepTime)),
		CookTime:     ParseOptionalInt(string(in.CookTime)),
		Servings:     ParseOptionalInt(string(in.Servings)),
		Category:     strings.TrimSpace(in.Category),
		Cuisine:      strings.TrimSpace(in.Cuisine),
		Image:        strings.TrimSpace(in.Image),
		Tags:         in.Tags,
		Moderation: Moderation{
			Status:         persistence.StatusDraft,
			ApprovalStatus: persistence.ApprovalPending,
			IsPublic:       isPublic,
		},
	}
	if in.Nutrition != nil {
		rec.Nutrition = in.Nutrition
	} else if s.normalizer != nil {
		s.normalizer.AttachNutrition(ctx, &rec)
	}
	if price != nil || preview != nil || in.IsPremium {
		rec.Monetization = &Monetization{
			IsPremium:   in.IsPremium || price != nil,
			Price:       price,
			PreviewText: preview,
		}
	}

	row := toRow(&rec)
	row.CreatorID = common.Ptr(actor.ID)

	err = s.store.Transaction(ctx, func(tx *persistence.Store) error {
		return writeRecipe(ctx, tx, row, &rec, ActionCreate, actor)
	})
	metrics.ObserveRecipeWrite(ActionCreate, err)
	if err != nil {
		common.LogError("食譜投稿失敗",
			zap.String("actor", actor.ID),
			zap.Error(err),
		)
		return nil, wrapWriteError("failed to create recipe", err)
	}

	common.LogInfo("食譜投稿完成",
		zap.String("recipe_id", row.ID),
		zap.String("actor", actor.ID),
	)
	return &CreateResult{RecipeID: row.ID, ApprovalStatus: row.ApprovalStatus}, nil
}

func (s *ImportService) requirePremium(ctx context.Context, actorID string) error {
	premium, err := s.premium.HasActivePremium(ctx, actorID)
	if err != nil {
		return common.NewPersistenceError("failed to check subscription", err)
	}
	if !premium {
		return common.NewPermissionDeniedError("premium subscription required for paid recipes")
	}
	return nil
}

// UpdateStatus 變更審核狀態；與目前狀態相同時不寫入
func (s *ImportService) UpdateStatus(ctx context.Context, recipeID, status, reason string, actor auth.Actor) (*StatusChange, error) {
	recipeID = strings.TrimSpace(recipeID)
	status = strings.ToLower(strings.TrimSpace(status))
	if recipeID == "" {
		return nil, common.NewValidationError("recipe id is required")
	}
	if status != persistence.ApprovalApproved && status != persistence.ApprovalRejected {
		return nil, common.NewValidationError("status must be approved or rejected")
	}

	change := &StatusChange{RecipeID: recipeID, To: status}
	err := s.store.Transaction(ctx, func(tx *persistence.Store) error {
		current, err := tx.LockRecipeStatus(ctx, recipeID)
		if err != nil {
			return err
		}
		change.From = current
		if current == status {
			return nil
		}

		if err := tx.UpdateApprovalStatus(ctx, recipeID, status); err != nil {
			return err
		}
		if err := tx.InsertStatusChange(ctx, &persistence.RecipeStatusHistory{
			RecipeID:   recipeID,
			FromStatus: current,
			ToStatus:   status,
			ActorID:    optionalString(actor.ID),
			Reason:     strings.TrimSpace(reason),
		}); err != nil {
			return err
		}

		snapshot, err := common.ToJSON(map[string]string{"from": current, "to": status, "reason": reason})
		if err != nil {
			return err
		}
		change.Changed = true
		return tx.InsertAuditLog(ctx, &persistence.AuditLog{
			Action:   ActionStatus,
			ActorID:  optionalString(actor.ID),
			RecipeID: common.Ptr(recipeID),
			Snapshot: snapshot,
		})
	})
	metrics.ObserveRecipeWrite(ActionStatus, err)
	if err != nil {
		return nil, wrapWriteError("failed to update recipe status", err)
	}

	if change.Changed {
		common.LogInfo("食譜審核狀態變更",
			zap.String("recipe_id", recipeID),
			zap.String("from", change.From),
			zap.String("to", change.To),
			zap.String("actor", actor.ID),
		)
	}
	return change, nil
}

// StatusHistory 列出審核歷程
func (s *ImportService) StatusHistory(ctx context.Context, recipeID string) ([]StatusEntry, error) {
	if _, err := s.store.GetRecipe(ctx, recipeID); err != nil {
		return nil, wrapWriteError("failed to load recipe", err)
	}
	rows, err := s.store.StatusHistory(ctx, recipeID)
	if err != nil {
		return nil, common.NewPersistenceError("failed to load status history", err)
	}

	out := make([]StatusEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, StatusEntry{
			From:      row.FromStatus,
			To:        row.ToStatus,
			ActorID:   common.Deref(row.ActorID),
			Reason:    row.Reason,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}

// writeRecipe 在交易內寫入主表、子表、標籤與稽核紀錄
func writeRecipe(ctx context.Context, tx *persistence.Store, row *persistence.Recipe, rec *CanonicalRecipe, action string, actor auth.Actor) error {
	if err := tx.EnsureUser(ctx, &persistence.User{
		ID:          actor.ID,
		Email:       actor.Email,
		DisplayName: actor.DisplayName,
		Role:        actor.Role,
	}); err != nil {
		return err
	}

	if err := tx.InsertRecipe(ctx, row); err != nil {
		return err
	}

	ingredients := make([]persistence.RecipeIngredient, 0, len(rec.Ingredients))
	for i, ing := range rec.Ingredients {
		ingredients = append(ingredients, persistence.RecipeIngredient{
			RecipeID: row.ID,
			Position: i + 1,
			Name:     ing.Name,
			Amount:   ing.Amount,
			Unit:     ing.Unit,
			Notes:    ing.Notes,
			Optional: ing.Optional,
		})
	}
	if err := tx.InsertIngredients(ctx, ingredients); err != nil {
		return err
	}

	steps := make([]persistence.RecipeInstruction, 0, len(rec.Instructions))
	for _, text := range rec.Instructions {
		if text = strings.TrimSpace(text); text == "" {
			continue
		}
		steps = append(steps, persistence.RecipeInstruction{
			RecipeID:   row.ID,
			StepNumber: len(steps) + 1,
			Text:       text,
		})
	}
	if err := tx.InsertInstructions(ctx, steps); err != nil {
		return err
	}

	tags, err := tx.ResolveTags(ctx, rec.Tags)
	if err != nil {
		return err
	}
	if err := tx.LinkTags(ctx, row.ID, tags); err != nil {
		return err
	}

	snapshot, err := common.ToJSON(rec)
	if err != nil {
		return err
	}
	return tx.InsertAuditLog(ctx, &persistence.AuditLog{
		Action:   action,
		ActorID:  common.Ptr(actor.ID),
		RecipeID: common.Ptr(row.ID),
		Snapshot: snapshot,
	})
}

// toRow 轉為資料表列，不含子表
func toRow(rec *CanonicalRecipe) *persistence.Recipe {
	row := &persistence.Recipe{
		SourceKey:      rec.SourceKey.String(),
		Title:          rec.Title,
		Description:    rec.Description,
		Category:       rec.Category,
		Cuisine:        rec.Cuisine,
		Image:          rec.Image,
		PrepTime:       rec.PrepTime,
		CookTime:       rec.CookTime,
		Servings:       rec.Servings,
		TimesEstimated: rec.TimesEstimated,
		Status:         rec.Moderation.Status,
		ApprovalStatus: rec.Moderation.ApprovalStatus,
		IsPublic:       rec.Moderation.IsPublic,
	}
	if m := rec.Monetization; m != nil {
		row.IsPremium = m.IsPremium
		row.Price = m.Price
		row.PreviewText = TruncatePreview(m.PreviewText)
	}
	if n := rec.Nutrition; n != nil {
		row.HasNutrition = true
		row.Nutrition = persistence.NutritionColumns{
			Calories:    n.Calories,
			Protein:     n.Protein,
			Carbs:       n.Carbs,
			Fat:         n.Fat,
			Fiber:       n.Fiber,
			Sugar:       n.Sugar,
			Sodium:      n.Sodium,
			Potassium:   n.Potassium,
			ServingSize: n.ServingSize,
			ServingUnit: n.ServingUnit,
			Source:      n.Source,
		}
	}
	return row
}

func cleanIngredients(in []Ingredient) []Ingredient {
	out := make([]Ingredient, 0, len(in))
	for _, ing := range in {
		ing.Name = strings.TrimSpace(ing.Name)
		if ing.Name == "" {
			continue
		}
		ing.Amount = strings.TrimSpace(ing.Amount)
		if ing.Amount == "" {
			ing.Amount = ToTaste
		}
		ing.Unit = strings.TrimSpace(ing.Unit)
		out = append(out, ing)
	}
	return out
}

// wrapWriteError 已分類的錯誤原樣回傳，其餘包裝為 PERSISTENCE_FAILURE
func wrapWriteError(message string, err error) error {
	for _, code := range []string{
		common.ErrCodeConflict,
		common.ErrCodeValidation,
		common.ErrCodePermissionDenied,
		common.ErrCodeNotFound,
	} {
		if common.IsKind(err, code) {
			return err
		}
	}
	return common.NewPersistenceError(message, err)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
