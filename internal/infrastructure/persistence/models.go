package persistence

import (
	"time"

	"recipe-hub/internal/pkg/common"

	"gorm.io/gorm"
)

// 審核狀態
const (
	StatusDraft     = "draft"
	StatusPublished = "published"

	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// User 使用者
type User struct {
	ID          string    `gorm:"type:varchar(64);primaryKey"`
	Email       string    `gorm:"type:varchar(255);index"`
	DisplayName string    `gorm:"type:varchar(255)"`
	Role        string    `gorm:"type:varchar(50)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NutritionColumns 食譜營養欄位
type NutritionColumns struct {
	Calories    float64
	Protein     float64
	Carbs       float64
	Fat         float64
	Fiber       float64
	Sugar       float64
	Sodium      float64
	Potassium   float64
	ServingSize float64
	ServingUnit string `gorm:"type:varchar(20)"`
	Source      string `gorm:"type:varchar(50)"`
}

// Recipe 食譜主表
type Recipe struct {
	ID             string  `gorm:"type:varchar(36);primaryKey"`
	SourceKey      string  `gorm:"type:varchar(64);not null;uniqueIndex:idx_recipes_source_external"`
	ExternalID     *string `gorm:"type:varchar(128);uniqueIndex:idx_recipes_source_external"`
	Title          string  `gorm:"type:varchar(255);not null;index"`
	Description    string  `gorm:"type:text"`
	Category       string  `gorm:"type:varchar(100);index"`
	Cuisine        string  `gorm:"type:varchar(100);index"`
	Image          string  `gorm:"type:text"`
	PrepTime       *int
	CookTime       *int
	Servings       *int
	TimesEstimated bool

	Status         string `gorm:"type:varchar(20);not null;index"`
	ApprovalStatus string `gorm:"type:varchar(20);not null;index"`
	IsPublic       bool

	IsPremium   bool
	Price       *float64
	PreviewText *string `gorm:"type:varchar(250)"`

	HasNutrition bool
	Nutrition    NutritionColumns `gorm:"embedded;embeddedPrefix:nutrition_"`

	CreatorID *string `gorm:"type:varchar(64);index"`
	Creator   *User   `gorm:"foreignKey:CreatorID;constraint:OnDelete:SET NULL"`

	Ingredients  []RecipeIngredient  `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Instructions []RecipeInstruction `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Tags         []Tag               `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// BeforeCreate 自動產生 ID
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = common.GenerateUUID()
	}
	return nil
}

// RecipeIngredient 食材列
type RecipeIngredient struct {
	ID       uint   `gorm:"primaryKey"`
	RecipeID string `gorm:"type:varchar(36);not null;index"`
	Position int    `gorm:"not null"`
	Name     string `gorm:"type:varchar(255);not null"`
	Amount   string `gorm:"type:varchar(100)"`
	Unit     string `gorm:"type:varchar(50)"`
	Notes    string `gorm:"type:text"`
	Optional bool
}

// RecipeInstruction 步驟列
type RecipeInstruction struct {
	ID         uint   `gorm:"primaryKey"`
	RecipeID   string `gorm:"type:varchar(36);not null;index"`
	StepNumber int    `gorm:"not null"`
	Text       string `gorm:"type:text;not null"`
}

// Tag 標籤
type Tag struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"type:varchar(100);not null;uniqueIndex"`
	CreatedAt time.Time
}

// RecipeTag 食譜與標籤關聯
type RecipeTag struct {
	RecipeID string `gorm:"type:varchar(36);primaryKey"`
	TagID    uint   `gorm:"primaryKey"`
}

// AuditLog 稽核紀錄，保留快照不受食譜刪除影響
type AuditLog struct {
	ID        uint    `gorm:"primaryKey"`
	Action    string  `gorm:"type:varchar(50);not null;index"`
	ActorID   *string `gorm:"type:varchar(64);index"`
	RecipeID  *string `gorm:"type:varchar(36);index"`
	Snapshot  string  `gorm:"type:text"`
	CreatedAt time.Time
}

// RecipeStatusHistory 審核狀態歷程
type RecipeStatusHistory struct {
	ID         uint    `gorm:"primaryKey"`
	RecipeID   string  `gorm:"type:varchar(36);not null;index"`
	Recipe     *Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	FromStatus string  `gorm:"type:varchar(20)"`
	ToStatus   string  `gorm:"type:varchar(20);not null"`
	ActorID    *string `gorm:"type:varchar(64)"`
	Reason     string  `gorm:"type:text"`
	CreatedAt  time.Time
}

// TableName 指定表名
func (RecipeStatusHistory) TableName() string {
	return "recipe_status_history"
}

// Favorite 使用者收藏，RecipeKey 格式為 "<source>:<id>"
type Favorite struct {
	UserID    string `gorm:"type:varchar(64);primaryKey"`
	RecipeKey string `gorm:"type:varchar(200);primaryKey"`
	Title     string `gorm:"type:varchar(255)"`
	Image     string `gorm:"type:text"`
	CreatedAt time.Time
}

// Subscription 訂閱狀態
type Subscription struct {
	ID               uint      `gorm:"primaryKey"`
	UserID           string    `gorm:"type:varchar(64);not null;index"`
	Plan             string    `gorm:"type:varchar(50)"`
	Status           string    `gorm:"type:varchar(20);not null"`
	CurrentPeriodEnd time.Time `gorm:"index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// allModels AutoMigrate 的順序
func allModels() []interface{} {
	return []interface{}{
		&User{},
		&Tag{},
		&Recipe{},
		&RecipeIngredient{},
		&RecipeInstruction{},
		&RecipeTag{},
		&AuditLog{},
		&RecipeStatusHistory{},
		&Favorite{},
		&Subscription{},
	}
}
