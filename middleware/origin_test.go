package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func performOrigin(t *testing.T, allowed []string, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Origin(allowed))
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/login", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestOriginAllowAll(t *testing.T) {
	w := performOrigin(t, nil, http.MethodPost, "http://app.example.com")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestOriginAllowList(t *testing.T) {
	allowed := []string{"http://app.example.com"}

	w := performOrigin(t, allowed, http.MethodPost, "http://app.example.com")
	assert.Equal(t, "http://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = performOrigin(t, allowed, http.MethodPost, "http://evil.example.com")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestOriginPreflight(t *testing.T) {
	w := performOrigin(t, nil, http.MethodOptions, "http://app.example.com")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}

func TestOriginHeaderlessRequestUntouched(t *testing.T) {
	w := performOrigin(t, nil, http.MethodPost, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
