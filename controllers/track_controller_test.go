package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/fairmart/viewtrack/config"
)

func trackTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	config.SetForTest(config.AppConfig{JWTSecret: "test-secret"})
	r := gin.New()
	// nil recorder: these cases must all fail validation before the store
	// is ever touched.
	tc := NewTrackController(nil)
	r.POST("/api/v1/vendors/:id/views", tc.RecordView)
	return r
}

func TestRecordViewRejectsBadVendorID(t *testing.T) {
	r := trackTestRouter()

	for _, id := range []string{"abc", "0", "-5", "1.7", "99999999999999999999"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/vendors/"+id+"/views", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "id %q", id)
		assert.Contains(t, w.Body.String(), "40001")
	}
}

func TestRecordViewRejectsMalformedBody(t *testing.T) {
	r := trackTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vendors/1/views", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "40002")
}

func TestRecordViewRejectsOversizeAnonymousID(t *testing.T) {
	r := trackTestRouter()

	body := `{"anonymous_id":"` + strings.Repeat("x", 300) + `"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vendors/1/views", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseVendorID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	ctx.Params = gin.Params{{Key: "id", Value: "42"}}

	id, ok := parseVendorID(ctx)
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)
}
