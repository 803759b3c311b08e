package health

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"recipe-hub/internal/api/middleware"
	"recipe-hub/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const pingTimeout = 2 * time.Second

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Sources   []string               `json:"sources,omitempty"`
	Nutrition []string               `json:"nutrition_providers,omitempty"`
}

// Pinger 可檢查連線的相依服務
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler 健康檢查處理程序
type Handler struct {
	deps      map[string]Pinger
	sources   []string
	nutrition []string
}

// NewHandler 創建健康檢查處理程序；deps 為就緒檢查的相依服務
func NewHandler(deps map[string]Pinger, sources, nutritionProviders []string) *Handler {
	return &Handler{deps: deps, sources: sources, nutrition: nutritionProviders}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取配置
	cfg, ok := middleware.Config(c)
	if !ok {
		common.LogError("Configuration not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Configuration not found",
		})
		return
	}

	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   cfg.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Sources:   h.sources,
		Nutrition: h.nutrition,
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器，任一相依服務失敗即回傳 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	ready := true
	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		err := h.deps[name].Ping(ctx)
		cancel()
		if err != nil {
			common.LogWarn("就緒檢查失敗",
				zap.String("dependency", name),
				zap.Error(err),
			)
			checks[name] = "unavailable"
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"checks": checks,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": checks,
	})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
