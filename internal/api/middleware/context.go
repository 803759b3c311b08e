package middleware

import (
	"context"
	"net/http"
	"time"

	"recipe-hub/internal/infrastructure/config"
	"recipe-hub/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const configKey = "config"

// InjectConfig 將設定放入請求上下文並套用請求超時
func InjectConfig(cfg *config.Config, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout > 0 {
			ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
			defer cancel()
			c.Request = c.Request.WithContext(ctx)
		}

		c.Set(configKey, cfg)
		c.Next()

		// 檢查是否超時
		if c.Request.Context().Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.Duration("timeout", timeout),
			)
			abortWithError(c, common.NewError(common.ErrCodeGatewayTimeout, "request timeout", http.StatusGatewayTimeout, nil))
		}
	}
}

// Config 取得上下文中的設定
func Config(c *gin.Context) (*config.Config, bool) {
	v, ok := c.Get(configKey)
	if !ok {
		return nil, false
	}
	cfg, ok := v.(*config.Config)
	return cfg, ok && cfg != nil
}

// RespondError 輸出錯誤響應，正式環境不含細節
func RespondError(c *gin.Context, err error) {
	showDetails := true
	if cfg, ok := Config(c); ok {
		showDetails = !cfg.App.IsProduction()
	}
	status, resp := common.NewErrorResponse(err, showDetails)
	c.AbortWithStatusJSON(status, resp)
}
