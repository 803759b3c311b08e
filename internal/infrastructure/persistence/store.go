package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recipe-hub/internal/pkg/common"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store 關聯式儲存，交易內外共用同一組方法
type Store struct {
	db *gorm.DB
}

// NewStore 創建儲存層
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB 取得底層連線
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Ping 檢查資料庫連線
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Transaction 在單一交易中執行 fn，回傳錯誤時整筆回滾
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Exec 執行參數化 SQL，回傳影響列數
func (s *Store) Exec(ctx context.Context, sql string, args ...interface{}) (int64, error) {
	result := s.db.WithContext(ctx).Exec(sql, args...)
	return result.RowsAffected, result.Error
}

// Query 執行查詢並掃描到 dest
func (s *Store) Query(ctx context.Context, dest interface{}, sql string, args ...interface{}) error {
	return s.db.WithContext(ctx).Raw(sql, args...).Scan(dest).Error
}

// QueryOne 查詢單筆，無資料時回傳 NotFound
func (s *Store) QueryOne(ctx context.Context, dest interface{}, sql string, args ...interface{}) error {
	result := s.db.WithContext(ctx).Raw(sql, args...).Scan(dest)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.NewNotFoundError("record not found")
	}
	return nil
}

// EnsureUser 確保使用者存在，已存在則不變更
func (s *Store) EnsureUser(ctx context.Context, user *User) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(user).Error
}

// InsertRecipe 寫入食譜主表，不連帶寫入子表
func (s *Store) InsertRecipe(ctx context.Context, recipe *Recipe) error {
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(recipe).Error
	if isDuplicateKey(err) {
		return common.NewConflictError("recipe already imported", err)
	}
	return err
}

// InsertIngredients 批次寫入食材
func (s *Store) InsertIngredients(ctx context.Context, rows []RecipeIngredient) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&rows).Error
}

// InsertInstructions 批次寫入步驟
func (s *Store) InsertInstructions(ctx context.Context, rows []RecipeInstruction) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&rows).Error
}

// ResolveTags 依名稱取得標籤，不存在則建立
func (s *Store) ResolveTags(ctx context.Context, names []string) ([]Tag, error) {
	tags := make([]Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true

		var tag Tag
		if err := s.db.WithContext(ctx).
			Where("LOWER(name) = ?", key).
			Attrs(Tag{Name: name}).
			FirstOrCreate(&tag).Error; err != nil {
			return nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// LinkTags 寫入食譜標籤關聯
func (s *Store) LinkTags(ctx context.Context, recipeID string, tags []Tag) error {
	if len(tags) == 0 {
		return nil
	}
	links := make([]RecipeTag, 0, len(tags))
	for _, tag := range tags {
		links = append(links, RecipeTag{RecipeID: recipeID, TagID: tag.ID})
	}
	return s.db.WithContext(ctx).Create(&links).Error
}

// InsertAuditLog 寫入稽核紀錄
func (s *Store) InsertAuditLog(ctx context.Context, entry *AuditLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// InsertStatusChange 追加一筆審核狀態歷程
func (s *Store) InsertStatusChange(ctx context.Context, change *RecipeStatusHistory) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(change).Error
}

// GetRecipe 取得完整食譜（含食材、步驟、標籤、建立者）
func (s *Store) GetRecipe(ctx context.Context, id string) (*Recipe, error) {
	var recipe Recipe
	err := s.withChildren(s.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewNotFoundError("recipe not found")
	}
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// FindByExternal 依來源與外部 ID 查詢已匯入的食譜
func (s *Store) FindByExternal(ctx context.Context, sourceKey, externalID string) (*Recipe, error) {
	var recipe Recipe
	err := s.db.WithContext(ctx).
		Where("source_key = ? AND external_id = ?", sourceKey, externalID).
		First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewNotFoundError("recipe not found")
	}
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// LockRecipeStatus 讀取食譜目前審核狀態，postgres 下同時鎖定該列
func (s *Store) LockRecipeStatus(ctx context.Context, id string) (string, error) {
	var recipe Recipe
	q := s.db.WithContext(ctx).Select("id", "approval_status")
	if s.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Where("id = ?", id).First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", common.NewNotFoundError("recipe not found")
	}
	if err != nil {
		return "", err
	}
	return recipe.ApprovalStatus, nil
}

// UpdateApprovalStatus 更新審核狀態；核准時一併發布
func (s *Store) UpdateApprovalStatus(ctx context.Context, id, approval string) error {
	updates := map[string]interface{}{
		"approval_status": approval,
		"updated_at":      time.Now(),
	}
	if approval == ApprovalApproved {
		updates["status"] = StatusPublished
	}
	result := s.db.WithContext(ctx).Model(&Recipe{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.NewNotFoundError("recipe not found")
	}
	return nil
}

// StatusHistory 依時間順序列出審核歷程
func (s *Store) StatusHistory(ctx context.Context, recipeID string) ([]RecipeStatusHistory, error) {
	var rows []RecipeStatusHistory
	err := s.db.WithContext(ctx).
		Where("recipe_id = ?", recipeID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// PublicQuery 社群食譜查詢條件
type PublicQuery struct {
	Search     string
	Category   string
	Cuisine    string
	Ingredient string
	Random     bool
	Limit      int
}

// PublicRecipes 查詢已發布、已核准且公開的食譜，預設新到舊
func (s *Store) PublicRecipes(ctx context.Context, q PublicQuery) ([]Recipe, error) {
	tx := s.withChildren(s.publicScope(s.db.WithContext(ctx)))

	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}
	if q.Category != "" {
		tx = tx.Where("LOWER(category) LIKE ?", "%"+strings.ToLower(q.Category)+"%")
	}
	if q.Cuisine != "" {
		tx = tx.Where("LOWER(cuisine) LIKE ?", "%"+strings.ToLower(q.Cuisine)+"%")
	}
	if q.Ingredient != "" {
		tx = tx.Where("EXISTS (SELECT 1 FROM recipe_ingredients ri WHERE ri.recipe_id = recipes.id AND LOWER(ri.name) LIKE ?)",
			"%"+strings.ToLower(q.Ingredient)+"%")
	}

	if q.Random {
		tx = tx.Order("RANDOM()")
	} else {
		tx = tx.Order("created_at DESC")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var recipes []Recipe
	if err := tx.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// GetPublicRecipe 取得單筆公開社群食譜
func (s *Store) GetPublicRecipe(ctx context.Context, id string) (*Recipe, error) {
	var recipe Recipe
	err := s.withChildren(s.publicScope(s.db.WithContext(ctx))).
		Where("recipes.id = ?", id).
		First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewNotFoundError("recipe not found")
	}
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// ListFavorites 列出使用者收藏
func (s *Store) ListFavorites(ctx context.Context, userID string) ([]Favorite, error) {
	var rows []Favorite
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// AddFavorite 新增收藏，重複新增不報錯
func (s *Store) AddFavorite(ctx context.Context, fav *Favorite) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(fav).Error
}

// RemoveFavorite 移除收藏，回傳是否有刪除
func (s *Store) RemoveFavorite(ctx context.Context, userID, recipeKey string) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_key = ?", userID, recipeKey).
		Delete(&Favorite{})
	return result.RowsAffected > 0, result.Error
}

// HasActivePremium 使用者目前是否持有有效訂閱
func (s *Store) HasActivePremium(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Subscription{}).
		Where("user_id = ? AND status IN ? AND current_period_end > ?", userID, []string{"active", "trialing"}, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) publicScope(tx *gorm.DB) *gorm.DB {
	return tx.Where("recipes.status = ? AND recipes.approval_status = ? AND recipes.is_public = ?",
		StatusPublished, ApprovalApproved, true)
}

func (s *Store) withChildren(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Instructions", func(db *gorm.DB) *gorm.DB { return db.Order("step_number ASC") }).
		Preload("Tags").
		Preload("Creator")
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
