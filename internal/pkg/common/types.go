package common

import (
	"strings"
	"unicode/utf8"
)

// Ptr 回傳值的指標
func Ptr[T any](v T) *T {
	return &v
}

// Deref 取出指標的值，nil 時回傳零值
func Deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// ContainsFold 不分大小寫的子字串比對
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// TruncateRunes 依字元數截斷字串
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
