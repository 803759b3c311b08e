package favorites

import (
	"context"
	"net/http"

	"recipe-hub/internal/api/middleware"
	"recipe-hub/internal/core/favorites"
	"recipe-hub/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Service 收藏操作
type Service interface {
	Get(ctx context.Context, userID string) (*favorites.List, error)
	Add(ctx context.Context, userID string, fav favorites.Favorite) error
	Remove(ctx context.Context, userID, recipeKey string) error
	Toggle(ctx context.Context, userID string, fav favorites.Favorite) (bool, error)
}

// FavoriteRequest 新增或切換收藏
type FavoriteRequest struct {
	RecipeKey string `json:"recipe_key" binding:"required"`
	Title     string `json:"title"`
	Image     string `json:"image"`
}

func (r FavoriteRequest) favorite() favorites.Favorite {
	return favorites.Favorite{RecipeKey: r.RecipeKey, Title: r.Title, Image: r.Image}
}

// Handler 收藏處理程序
type Handler struct {
	service Service
}

// NewHandler 創建收藏處理程序
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// HandleList 讀取收藏清單
func (h *Handler) HandleList(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		middleware.RespondError(c, common.ErrUnauthorized)
		return
	}

	list, err := h.service.Get(c.Request.Context(), actor.ID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	if list.Favorites == nil {
		list.Favorites = []favorites.Favorite{}
	}

	c.JSON(http.StatusOK, list)
}

// HandleAdd 新增收藏
func (h *Handler) HandleAdd(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		middleware.RespondError(c, common.ErrUnauthorized)
		return
	}

	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, common.NewValidationError("recipe_key is required"))
		return
	}

	if err := h.service.Add(c.Request.Context(), actor.ID, req.favorite()); err != nil {
		common.LogWarn("新增收藏失敗",
			zap.String("user_id", actor.ID),
			zap.String("recipe_key", req.RecipeKey),
			zap.Error(err),
		)
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "recipe_key": req.RecipeKey})
}

// HandleRemove 移除收藏
func (h *Handler) HandleRemove(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		middleware.RespondError(c, common.ErrUnauthorized)
		return
	}

	key := c.Param("key")
	if err := h.service.Remove(c.Request.Context(), actor.ID, key); err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "recipe_key": key})
}

// HandleToggle 切換收藏狀態
func (h *Handler) HandleToggle(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		middleware.RespondError(c, common.ErrUnauthorized)
		return
	}

	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, common.NewValidationError("recipe_key is required"))
		return
	}

	favorited, err := h.service.Toggle(c.Request.Context(), actor.ID, req.favorite())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"recipe_key": req.RecipeKey,
		"favorited":  favorited,
	})
}
