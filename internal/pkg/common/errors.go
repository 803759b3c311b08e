package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`             // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在非 production 環境顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap 回傳原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，讓 errors.Is(err, common.ErrNotFound) 可用
func (e *CustomError) Is(target error) bool {
	var t *CustomError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest   = "INVALID_REQUEST"   // 400
	ErrCodeValidation       = "VALIDATION_ERROR"  // 400
	ErrCodeUnauthorized     = "UNAUTHORIZED"      // 401
	ErrCodePermissionDenied = "PERMISSION_DENIED" // 403
	ErrCodeNotFound         = "NOT_FOUND"         // 404
	ErrCodeConflict         = "CONFLICT"          // 409
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError       = "INTERNAL_ERROR"       // 500
	ErrCodePersistenceFailure  = "PERSISTENCE_FAILURE"  // 500
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout      = "GATEWAY_TIMEOUT"      // 504
)

// 預定義錯誤，用於 errors.Is 比對
var (
	ErrInvalidRequest      = NewError(ErrCodeInvalidRequest, "invalid request", http.StatusBadRequest, nil)
	ErrValidation          = NewError(ErrCodeValidation, "validation failed", http.StatusBadRequest, nil)
	ErrUnauthorized        = NewError(ErrCodeUnauthorized, "authentication required", http.StatusUnauthorized, nil)
	ErrPermissionDenied    = NewError(ErrCodePermissionDenied, "permission denied", http.StatusForbidden, nil)
	ErrNotFound            = NewError(ErrCodeNotFound, "resource not found", http.StatusNotFound, nil)
	ErrConflict            = NewError(ErrCodeConflict, "resource conflict", http.StatusConflict, nil)
	ErrTooManyRequests     = NewError(ErrCodeTooManyRequests, "too many requests", http.StatusTooManyRequests, nil)
	ErrInternalError       = NewError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, nil)
	ErrPersistenceFailure  = NewError(ErrCodePersistenceFailure, "persistence failure", http.StatusInternalServerError, nil)
	ErrProviderUnavailable = NewError(ErrCodeProviderUnavailable, "provider unavailable", http.StatusServiceUnavailable, nil)
)

// NewValidationError 創建驗證錯誤
func NewValidationError(message string) error {
	return NewError(ErrCodeValidation, message, http.StatusBadRequest, nil)
}

// NewNotFoundError 創建資源不存在錯誤
func NewNotFoundError(message string) error {
	return NewError(ErrCodeNotFound, message, http.StatusNotFound, nil)
}

// NewPermissionDeniedError 創建權限不足錯誤
func NewPermissionDeniedError(message string) error {
	return NewError(ErrCodePermissionDenied, message, http.StatusForbidden, nil)
}

// NewUnauthorizedError 創建未登入錯誤
func NewUnauthorizedError(message string) error {
	return NewError(ErrCodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// NewConflictError 創建資源衝突錯誤
func NewConflictError(message string, err error) error {
	return NewError(ErrCodeConflict, message, http.StatusConflict, err)
}

// NewPersistenceError 創建交易失敗錯誤（交易已回滾）
func NewPersistenceError(message string, err error) error {
	return NewError(ErrCodePersistenceFailure, message, http.StatusInternalServerError, err)
}

// NewProviderUnavailableError 創建上游供應商不可用錯誤
func NewProviderUnavailableError(provider string, err error) error {
	return NewError(ErrCodeProviderUnavailable, provider+" unavailable", http.StatusServiceUnavailable, err)
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	return IsKind(err, ErrCodeValidation)
}

// IsKind 檢查錯誤鏈中是否包含指定代碼的 CustomError
func IsKind(err error, code string) bool {
	var ce *CustomError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == code
}

// AsCustomError 將任意錯誤轉為 CustomError，未知錯誤視為內部錯誤
func AsCustomError(err error) *CustomError {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce
	}
	return NewError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, err)
}
