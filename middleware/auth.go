package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fairmart/viewtrack/config"
	"github.com/fairmart/viewtrack/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
)

// AuthRequired ensures the request is authenticated via JWT.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, ok := bearerToken(ctx)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing or malformed")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Next()
	}
}

// AuthOptional attaches the viewer identity when a valid bearer token is
// present and continues anonymously otherwise. The ingestion path uses this:
// a bad token must not reject a view, it just downgrades the identity.
func AuthOptional() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if tokenString, ok := bearerToken(ctx); ok {
			if claims, err := utils.ParseToken(tokenString); err == nil {
				ctx.Set(ContextUserIDKey, claims.UserID)
				ctx.Set(ContextUsernameKey, claims.Username)
			}
		}
		ctx.Next()
	}
}

// AdminRequired allows only operators listed in AdminUsernames. Must run
// after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		username := ctx.GetString(ContextUsernameKey)
		if username == "" || !isAdmin(username) {
			utils.Error(ctx, http.StatusForbidden, 40301, "admin access required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// UserID returns the authenticated user id from the context, nil when the
// request is anonymous.
func UserID(ctx *gin.Context) *uint {
	v, ok := ctx.Get(ContextUserIDKey)
	if !ok {
		return nil
	}
	id, ok := v.(uint)
	if !ok || id == 0 {
		return nil
	}
	return &id
}

func bearerToken(ctx *gin.Context) (string, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func isAdmin(username string) bool {
	for _, admin := range config.Get().AdminUsernames {
		if strings.EqualFold(admin, username) {
			return true
		}
	}
	return false
}
