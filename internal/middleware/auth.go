package middleware

import (
	"net/http"
	"strings"

	"github.com/SergeiKhy/link-shortener/internal/auth"
	"github.com/gin-gonic/gin"
)

const (
	userIDKey = "user_id"
	claimsKey = "claims"

	// AccessTokenCookie используется браузерными клиентами вместо заголовка
	AccessTokenCookie = "access_token"
)

// Auth middleware для аутентификации по JWT access-токену
type Auth struct {
	tokens *auth.TokenManager
}

// NewAuth создаёт новый JWT middleware
func NewAuth(tokens *auth.TokenManager) *Auth {
	return &Auth{tokens: tokens}
}

// RequireAuth отклоняет запрос с 401, если токен отсутствует или невалиден
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "missing_token",
				"message": "Authentication credentials were not provided",
			})
			return
		}

		claims, err := a.tokens.Parse(tokenStr, auth.TokenTypeAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Token is invalid or expired",
			})
			return
		}

		c.Set(claimsKey, claims)
		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// OptionalAuth пропускает анонимные запросы; при валидном токене сохраняет пользователя
func (a *Auth) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr := extractToken(c); tokenStr != "" {
			if claims, err := a.tokens.Parse(tokenStr, auth.TokenTypeAccess); err == nil {
				c.Set(claimsKey, claims)
				c.Set(userIDKey, claims.UserID)
			}
		}
		c.Next()
	}
}

// extractToken: сначала Authorization: Bearer, затем cookie
func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie
	}
	return ""
}

// UserIDFromContext извлекает ID пользователя, установленный middleware
func UserIDFromContext(c *gin.Context) (int64, bool) {
	v, exists := c.Get(userIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// ClaimsFromContext извлекает claims токена
func ClaimsFromContext(c *gin.Context) (*auth.Claims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
