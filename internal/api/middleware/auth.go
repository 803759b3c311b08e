package middleware

import (
	"strings"

	"recipe-hub/internal/core/auth"
	"recipe-hub/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const actorKey = "actor"

// Authenticate 解析 Bearer 權杖；缺少或無效時以匿名身分繼續
func Authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == header || token == "" {
			c.Next()
			return
		}

		actor, err := auth.ParseToken(token, secret)
		if err != nil {
			common.LogDebug("權杖驗證失敗",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// CurrentActor 取得目前使用者
func CurrentActor(c *gin.Context) (*auth.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil, false
	}
	actor, ok := v.(*auth.Actor)
	return actor, ok && actor != nil
}

// RequireActor 需登入
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentActor(c); !ok {
			abortWithError(c, common.NewUnauthorizedError("authentication required"))
			return
		}
		c.Next()
	}
}

// RequireAdmin 需管理員
func RequireAdmin(adminEmail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			abortWithError(c, common.NewUnauthorizedError("authentication required"))
			return
		}
		if !actor.IsAdmin(adminEmail) {
			abortWithError(c, common.NewPermissionDeniedError("admin role required"))
			return
		}
		c.Next()
	}
}
