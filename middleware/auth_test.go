package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairmart/viewtrack/config"
	"github.com/fairmart/viewtrack/utils"
)

func setupAuthTest(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.SetForTest(config.AppConfig{
		JWTSecret:      "test-secret",
		AdminUsernames: []string{"ops"},
	})
}

func authToken(t *testing.T, userID uint, username string) string {
	t.Helper()
	token, err := utils.GenerateToken(userID, username, time.Hour)
	require.NoError(t, err)
	return token
}

func TestAuthRequired(t *testing.T) {
	setupAuthTest(t)

	r := gin.New()
	r.GET("/protected", AuthRequired(), func(ctx *gin.Context) {
		id := UserID(ctx)
		require.NotNil(t, id)
		utils.Success(ctx, gin.H{"user_id": *id})
	})

	// No header.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid token.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+authToken(t, 7, "alice"))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
}

func TestAuthOptionalNeverRejects(t *testing.T) {
	setupAuthTest(t)

	r := gin.New()
	r.GET("/track", AuthOptional(), func(ctx *gin.Context) {
		if id := UserID(ctx); id != nil {
			utils.Success(ctx, gin.H{"user_id": *id})
			return
		}
		utils.Success(ctx, gin.H{"anonymous": true})
	})

	// Anonymous request passes.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/track", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")

	// A bad token downgrades to anonymous instead of failing.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/track", nil)
	req.Header.Set("Authorization", "Bearer broken")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")

	// A good token attaches the identity.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/track", nil)
	req.Header.Set("Authorization", "Bearer "+authToken(t, 9, "bob"))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":9`)
}

func TestAdminRequired(t *testing.T) {
	setupAuthTest(t)

	r := gin.New()
	r.POST("/admin", AuthRequired(), AdminRequired(), func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"ok": true})
	})

	// Regular user is rejected.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+authToken(t, 7, "alice"))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Configured operator passes; the list match is case-insensitive.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+authToken(t, 1, "OPS"))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"", "", false},
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
	}
	for _, tc := range cases {
		ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
		ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			ctx.Request.Header.Set("Authorization", tc.header)
		}
		got, ok := bearerToken(ctx)
		assert.Equal(t, tc.ok, ok, "header %q", tc.header)
		assert.Equal(t, tc.want, got, "header %q", tc.header)
	}
}
