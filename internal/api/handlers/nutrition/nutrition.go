package nutrition

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"recipe-hub/internal/api/middleware"
	"recipe-hub/internal/core/nutrition"
	"recipe-hub/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

// Resolver 營養資料查詢
type Resolver interface {
	Resolve(ctx context.Context, food string) *nutrition.Record
	SearchCandidates(ctx context.Context, food string, limit int) []nutrition.Candidate
	LookupBarcode(ctx context.Context, code string) (*nutrition.Record, error)
}

// ResolveResponse 營養查詢結果，Levels 以每 100 公克計算
type ResolveResponse struct {
	Food      string            `json:"food"`
	Nutrition nutrition.Record  `json:"nutrition"`
	Scaled    *nutrition.Record `json:"scaled,omitempty"`
	Levels    nutrition.Levels  `json:"levels"`
}

// Handler 營養資料處理程序
type Handler struct {
	resolver Resolver
}

// NewHandler 創建營養資料處理程序
func NewHandler(resolver Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// HandleSearch 食材候選搜尋，供應商失敗時回傳空清單
func (h *Handler) HandleSearch(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	limit := defaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			middleware.RespondError(c, common.NewValidationError("limit must be a positive integer"))
			return
		}
		limit = min(n, maxLimit)
	}

	common.LogDebug("開始處理營養候選搜尋",
		zap.String("q", q),
		zap.Int("limit", limit),
	)

	candidates := h.resolver.SearchCandidates(c.Request.Context(), q, limit)
	c.JSON(http.StatusOK, gin.H{
		"query":      q,
		"candidates": candidates,
		"count":      len(candidates),
	})
}

// HandleResolve 查詢食材營養，可指定 grams 換算份量
func (h *Handler) HandleResolve(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
		c.Header("X-Request-ID", requestID)
	}

	food := strings.TrimSpace(c.Query("food"))
	if food == "" {
		middleware.RespondError(c, common.NewValidationError("food is required"))
		return
	}

	var grams float64
	if raw := c.Query("grams"); raw != "" {
		g, err := strconv.ParseFloat(raw, 64)
		if err != nil || g <= 0 {
			middleware.RespondError(c, common.NewValidationError("grams must be a positive number"))
			return
		}
		grams = g
	}

	common.LogInfo("開始處理營養查詢請求",
		zap.String("request_id", requestID),
		zap.String("food", food),
		zap.Float64("grams", grams),
	)

	rec := h.resolver.Resolve(c.Request.Context(), food)
	if rec == nil {
		middleware.RespondError(c, common.NewNotFoundError("no nutrition data for "+food))
		return
	}

	resp := ResolveResponse{
		Food:      food,
		Nutrition: *rec,
		Levels:    nutrition.Classify(nutrition.ScaleToServing(*rec, 100)),
	}
	if grams > 0 {
		scaled := nutrition.ScaleToServing(*rec, grams)
		resp.Scaled = &scaled
	}

	c.JSON(http.StatusOK, resp)
}

// HandleBarcode 以條碼查詢商品營養
func (h *Handler) HandleBarcode(c *gin.Context) {
	code := c.Param("code")

	rec, err := h.resolver.LookupBarcode(c.Request.Context(), code)
	if err != nil {
		common.LogWarn("條碼查詢失敗",
			zap.String("code", code),
			zap.Error(err),
		)
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"barcode":   code,
		"nutrition": rec,
		"levels":    nutrition.Classify(nutrition.ScaleToServing(*rec, 100)),
	})
}
