package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", ViewerSession(), func(ctx *gin.Context) {
		ctx.String(http.StatusOK, SessionToken(ctx))
	})
	return r
}

func TestViewerSessionIssuesCookie(t *testing.T) {
	r := sessionRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	token := w.Body.String()
	_, err := uuid.Parse(token)
	assert.NoError(t, err, "issued session token must be a uuid")

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "session cookie must be set")
	assert.Equal(t, token, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestViewerSessionPropagatesExistingCookie(t *testing.T) {
	r := sessionRouter()
	existing := uuid.NewString()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: existing})
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, existing, w.Body.String())
	// A valid existing cookie is not reissued.
	for _, c := range w.Result().Cookies() {
		assert.NotEqual(t, SessionCookieName, c.Name, "cookie must not be reissued")
	}
}

func TestViewerSessionReplacesInvalidCookie(t *testing.T) {
	r := sessionRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "not-a-uuid"})
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	fresh := w.Body.String()
	assert.NotEqual(t, "not-a-uuid", fresh)
	_, err := uuid.Parse(fresh)
	assert.NoError(t, err)
}

func TestValidSessionToken(t *testing.T) {
	assert.True(t, validSessionToken(uuid.NewString()))
	assert.False(t, validSessionToken(""))
	assert.False(t, validSessionToken("short"))
	assert.False(t, validSessionToken(string(make([]byte, 80))))
}
