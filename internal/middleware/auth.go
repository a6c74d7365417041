package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The SPAs send the JWT in a bare "token" header rather than a standard
// Authorization bearer header. Both guards read it from there.
const tokenHeader = "token"

func parseToken(c *gin.Context, secret string, blacklist *redis.Client) (jwt.MapClaims, bool) {
	raw := strings.TrimSpace(c.GetHeader(tokenHeader))
	if raw == "" {
		log.Println("[AUTH] [ERROR] missing token")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not Authorized. Login Again"})
		return nil, false
	}

	if blacklist != nil && IsTokenRevoked(c.Request.Context(), blacklist, raw) {
		log.Println("[AUTH] [ERROR] token revoked")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not Authorized. Login Again"})
		return nil, false
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		log.Println("[AUTH] [ERROR] token validation failed:", err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not Authorized. Login Again"})
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		log.Println("[AUTH] [ERROR] token claims invalid")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not Authorized. Login Again"})
		return nil, false
	}

	return claims, true
}

// UserAuth validates a customer token and injects the userId into the context.
func UserAuth(secret string, blacklist *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseToken(c, secret, blacklist)
		if !ok {
			return
		}

		userIDValue, ok := claims["userId"].(string)
		if !ok || strings.TrimSpace(userIDValue) == "" {
			log.Println("[AUTH] [ERROR] userId claim missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not Authorized. Login Again"})
			return
		}

		userID, err := primitive.ObjectIDFromHex(userIDValue)
		if err != nil {
			log.Println("[AUTH] [ERROR] invalid userId claim")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not Authorized. Login Again"})
			return
		}

		email, _ := claims["email"].(string)

		c.Set("userId", userID)
		c.Set("userEmail", email)
		c.Next()
	}
}

// AdminAuth validates the dashboard token, which carries role=admin.
func AdminAuth(secret string, blacklist *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseToken(c, secret, blacklist)
		if !ok {
			return
		}

		role, _ := claims["role"].(string)
		if role != "admin" {
			log.Println("[AUTH] [ERROR] admin role required")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Not Authorized. Login Again"})
			return
		}

		c.Next()
	}
}
