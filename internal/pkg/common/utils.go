package common

import (
	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// NewErrorResponse 由錯誤建立 API 錯誤響應；showDetails 為 false 時隱藏原始錯誤
func NewErrorResponse(err error, showDetails bool) (int, ErrorResponse) {
	ce := AsCustomError(err)
	resp := ErrorResponse{
		Success: false,
		Error:   ce.Code,
		Message: ce.Message,
	}
	if showDetails && ce.Err != nil {
		resp.Details = ce.Err.Error()
	}
	return ce.Status, resp
}
