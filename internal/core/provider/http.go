package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"recipe-hub/internal/infrastructure/config"
	"recipe-hub/internal/infrastructure/metrics"
	"recipe-hub/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 10 * time.Second

// StatusError 上游非 2xx 回應
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// IsStatus 錯誤鏈中是否為指定狀態碼
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// NewHTTPClient 依供應商設定建立 resty 客戶端，不做重試
func NewHTTPClient(cfg config.ProviderConfig) *resty.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "recipe-hub/1.0")
}

// GetJSON 發送 GET 並解析 JSON 回應
//
// 任何失敗都包裝為 PROVIDER_UNAVAILABLE，並記錄日誌與指標。
func GetJSON(ctx context.Context, client *resty.Client, provider, operation, path string, query map[string]string, out interface{}) error {
	start := time.Now()
	err := getJSON(ctx, client, path, query, out)
	duration := time.Since(start)

	common.LogProviderCall(provider, operation, duration, err)
	metrics.ObserveProviderCall(provider, operation, duration, err)

	if err != nil {
		return common.NewProviderUnavailableError(provider, err)
	}
	return nil
}

func getJSON(ctx context.Context, client *resty.Client, path string, query map[string]string, out interface{}) error {
	// 發送請求
	resp, err := client.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		// url.Error 內含完整 URL，可能帶有憑證參數
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return fmt.Errorf("request failed: %s: %w", uerr.Op, uerr.Err)
		}
		return fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return &StatusError{StatusCode: resp.StatusCode(), Body: truncateBody(resp.String())}
	}

	if out == nil {
		return nil
	}

	// 解析回應
	if err := common.ParseJSONBytes(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func truncateBody(body string) string {
	return common.TruncateRunes(body, 200)
}
