package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin 管理員角色
const RoleAdmin = "admin"

// Actor 目前請求的使用者
type Actor struct {
	ID          string `json:"id"`
	Role        string `json:"role"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// IsAdmin 角色為 admin 或信箱為設定的管理員信箱
func (a *Actor) IsAdmin(adminEmail string) bool {
	if a == nil {
		return false
	}
	if strings.EqualFold(a.Role, RoleAdmin) {
		return true
	}
	return adminEmail != "" && strings.EqualFold(strings.TrimSpace(a.Email), strings.TrimSpace(adminEmail))
}

// Claims JWT 內容
type Claims struct {
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ErrInvalidToken 無效或過期的權杖
var ErrInvalidToken = errors.New("invalid token")

// ParseToken 驗證 HS256 權杖並取出使用者
func ParseToken(tokenString, secret string) (*Actor, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: signing secret not configured", ErrInvalidToken)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Actor{
		ID:          claims.Subject,
		Role:        claims.Role,
		Email:       claims.Email,
		DisplayName: claims.Name,
	}, nil
}

// IssueToken 簽發 HS256 權杖
func IssueToken(actor Actor, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:  actor.Role,
		Email: actor.Email,
		Name:  actor.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
