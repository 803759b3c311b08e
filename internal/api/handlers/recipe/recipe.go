package recipe

import (
	"context"
	"net/http"
	"strings"

	"recipe-hub/internal/api/middleware"
	"recipe-hub/internal/core/auth"
	recipeService "recipe-hub/internal/core/recipe"
	"recipe-hub/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Searcher 食譜搜尋與讀取
type Searcher interface {
	Search(ctx context.Context, f recipeService.Filters) (*recipeService.SearchResult, error)
	GetRecipe(ctx context.Context, id, source string) (*recipeService.CanonicalRecipe, error)
}

// Writer 食譜寫入與審核
type Writer interface {
	ImportFromSource(ctx context.Context, source, id string, actor auth.Actor) (*recipeService.ImportResult, error)
	ImportExternalRecipe(ctx context.Context, rec recipeService.CanonicalRecipe, actor auth.Actor) (*recipeService.ImportResult, error)
	CreateUserRecipe(ctx context.Context, in recipeService.FormInput, actor auth.Actor) (*recipeService.CreateResult, error)
	UpdateStatus(ctx context.Context, recipeID, status, reason string, actor auth.Actor) (*recipeService.StatusChange, error)
	StatusHistory(ctx context.Context, recipeID string) ([]recipeService.StatusEntry, error)
}

// ImportRequest 匯入請求：指定來源與編號，或直接提供統一格式食譜
type ImportRequest struct {
	Source string                         `json:"source"`
	ID     string                         `json:"id"`
	Recipe *recipeService.CanonicalRecipe `json:"recipe,omitempty"`
}

// StatusRequest 審核請求
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason,omitempty"`
}

// Handler 食譜處理程序
type Handler struct {
	search Searcher
	writer Writer
}

// NewHandler 創建新的食譜處理程序
func NewHandler(search Searcher, writer Writer) *Handler {
	return &Handler{search: search, writer: writer}
}

// requestID 取得或產生請求 ID
func requestID(c *gin.Context) string {
	id := c.GetHeader("X-Request-ID")
	if id == "" {
		id = uuid.New().String()
		c.Header("X-Request-ID", id)
	}
	return id
}

// HandleSearch 跨來源搜尋；供應商失敗時仍回傳 200 與空結果
func (h *Handler) HandleSearch(c *gin.Context) {
	reqID := requestID(c)

	var filters recipeService.Filters
	if err := c.ShouldBindQuery(&filters); err != nil {
		common.LogWarn("搜尋參數無效",
			zap.Error(err),
			zap.String("request_id", reqID),
		)
		middleware.RespondError(c, common.NewValidationError("invalid search parameters"))
		return
	}

	common.LogInfo("開始處理食譜搜尋請求",
		zap.String("request_id", reqID),
		zap.String("client_ip", c.ClientIP()),
		zap.Any("filters", filters),
	)

	result, err := h.search.Search(c.Request.Context(), filters)
	if err != nil {
		common.LogWarn("食譜搜尋失敗",
			zap.Error(err),
			zap.String("request_id", reqID),
		)
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleGet 取得單一食譜
func (h *Handler) HandleGet(c *gin.Context) {
	reqID := requestID(c)
	id := c.Param("id")
	source := c.Query("source")

	common.LogInfo("開始處理食譜查詢請求",
		zap.String("request_id", reqID),
		zap.String("id", id),
		zap.String("source", source),
	)

	rec, err := h.search.GetRecipe(c.Request.Context(), id, source)
	if err != nil {
		common.LogWarn("食譜查詢失敗",
			zap.Error(err),
			zap.String("request_id", reqID),
			zap.String("id", id),
		)
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// HandleCreate 使用者投稿，建立後待審核
func (h *Handler) HandleCreate(c *gin.Context) {
	reqID := requestID(c)
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		middleware.RespondError(c, common.ErrUnauthorized)
		return
	}

	var in recipeService.FormInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.LogError("請求格式無效",
			zap.Error(err),
			zap.String("request_id", reqID),
		)
		middleware.RespondError(c, common.NewValidationError("invalid request format"))
		return
	}

	common.LogInfo("開始處理食譜投稿請求",
		zap.String("request_id", reqID),
		zap.String("actor", actor.ID),
		zap.String("title", in.Title),
	)

	result, err := h.writer.CreateUserRecipe(c.Request.Context(), in, *actor)
	if err != nil {
		common.LogError("食譜投稿失敗",
			zap.Error(err),
			zap.String("request_id", reqID),
		)
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":        true,
		"recipeId":       result.RecipeID,
		"approvalStatus": result.ApprovalStatus,
	})
}

// HandleImport 管理員匯入外部食譜
func (h *Handler) HandleImport(c *gin.Context) {
	reqID := requestID(c)
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		middleware.RespondError(c, common.ErrUnauthorized)
		return
	}

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效",
			zap.Error(err),
			zap.String("request_id", reqID),
		)
		middleware.RespondError(c, common.NewValidationError("invalid request format"))
		return
	}

	common.LogInfo("開始處理食譜匯入請求",
		zap.String("request_id", reqID),
		zap.String("actor", actor.ID),
		zap.String("source", req.Source),
		zap.String("id", req.ID),
		zap.Bool("inline", req.Recipe != nil),
	)

	var (
		result *recipeService.ImportResult
		err    error
	)
	switch {
	case req.Recipe != nil:
		result, err = h.writer.ImportExternalRecipe(c.Request.Context(), *req.Recipe, *actor)
	case strings.TrimSpace(req.Source) != "" && strings.TrimSpace(req.ID) != "":
		result, err = h.writer.ImportFromSource(c.Request.Context(), req.Source, req.ID, *actor)
	default:
		err = common.NewValidationError("either recipe or source and id are required")
	}
	if err != nil {
		common.LogError("食譜匯入失敗",
			zap.Error(err),
			zap.String("request_id", reqID),
		)
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"recipeId": result.RecipeID,
	})
}

// HandleUpdateStatus 管理員審核食譜
func (h *Handler) HandleUpdateStatus(c *gin.Context) {
	reqID := requestID(c)
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		middleware.RespondError(c, common.ErrUnauthorized)
		return
	}
	id := c.Param("id")

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, common.NewValidationError("status is required"))
		return
	}

	common.LogInfo("開始處理審核請求",
		zap.String("request_id", reqID),
		zap.String("actor", actor.ID),
		zap.String("id", id),
		zap.String("status", req.Status),
	)

	change, err := h.writer.UpdateStatus(c.Request.Context(), id, req.Status, req.Reason, *actor)
	if err != nil {
		common.LogError("審核狀態更新失敗",
			zap.Error(err),
			zap.String("request_id", reqID),
			zap.String("id", id),
		)
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"change":  change,
	})
}

// HandleStatusHistory 審核歷程
func (h *Handler) HandleStatusHistory(c *gin.Context) {
	id := c.Param("id")

	history, err := h.writer.StatusHistory(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipeId": id,
		"history":  history,
	})
}
