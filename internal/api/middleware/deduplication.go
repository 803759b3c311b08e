package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"recipe-hub/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultDedupWindow = time.Second

// deduplicator 記錄近期 POST 請求指紋
type deduplicator struct {
	mu        sync.Mutex
	requests  map[string]time.Time
	window    time.Duration
	lastPrune time.Time
}

func (d *deduplicator) seen(fingerprint string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if now.Sub(d.lastPrune) > 10*d.window {
		for k, t := range d.requests {
			if now.Sub(t) > d.window {
				delete(d.requests, k)
			}
		}
		d.lastPrune = now
	}

	if last, ok := d.requests[fingerprint]; ok && now.Sub(last) <= d.window {
		return true
	}
	d.requests[fingerprint] = now
	return false
}

// Deduplication 在視窗內拒絕相同使用者、路徑與內容的重複 POST
func Deduplication(window time.Duration) gin.HandlerFunc {
	if window <= 0 {
		window = defaultDedupWindow
	}
	d := &deduplicator{
		requests:  make(map[string]time.Time),
		window:    window,
		lastPrune: time.Now(),
	}

	return func(c *gin.Context) {
		// 只處理 POST 請求
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		// 計算請求體哈希
		bodyHash := ""
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogError("讀取請求體失敗", zap.Error(err))
				c.Next()
				return
			}
			hash := sha256.Sum256(body)
			bodyHash = hex.EncodeToString(hash[:])

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		// 生成請求指紋
		who := c.ClientIP()
		if actor, ok := CurrentActor(c); ok {
			who = actor.ID
		}
		fingerprint := who + ":" + c.Request.URL.Path + ":" + bodyHash

		if d.seen(fingerprint, time.Now()) {
			common.LogWarn("重複請求",
				zap.String("path", c.Request.URL.Path),
				zap.String("who", who),
			)
			abortWithError(c, common.NewError(common.ErrCodeTooManyRequests, "duplicate request", http.StatusTooManyRequests, nil))
			return
		}

		c.Next()
	}
}
