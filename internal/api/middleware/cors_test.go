package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MK-codes365/greenwipe/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newCORSRouter(enabled bool, origins ...string) *gin.Engine {
	cfg := &config.Config{
		Security: config.SecurityConfig{CORSEnabled: enabled, CORSOrigins: origins},
	}
	router := setupTestRouter()
	router.Use(CORSMiddleware(cfg))
	router.GET("/api/v1/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	router.POST("/api/v1/certificates", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"success": true})
	})
	router.GET("/api/v1/certificates/:id/report", func(c *gin.Context) {
		c.Header("Content-Disposition", `attachment; filename="c1.json"`)
		c.Data(http.StatusOK, "application/json", []byte(`{}`))
	})
	return router
}

func preflight(router http.Handler, path, origin, method, headers string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, path, nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", method)
	if headers != "" {
		req.Header.Set("Access-Control-Request-Headers", headers)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORSMiddleware(t *testing.T) {
	const ui = "http://localhost:3000"

	t.Run("Preflight for certificate creation", func(t *testing.T) {
		w := preflight(newCORSRouter(true, ui), "/api/v1/certificates", ui, "POST", "Authorization,Content-Type")

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, ui, w.Header().Get("Access-Control-Allow-Origin"))

		methods := w.Header().Get("Access-Control-Allow-Methods")
		assert.Contains(t, methods, "GET")
		assert.Contains(t, methods, "POST")
		assert.NotContains(t, methods, "DELETE")

		headers := w.Header().Get("Access-Control-Allow-Headers")
		assert.Contains(t, headers, "Authorization")
		assert.Contains(t, headers, "Content-Type")
	})

	t.Run("Every configured origin is echoed with credentials", func(t *testing.T) {
		origins := []string{ui, "http://localhost:8000", "https://wipe.example.com"}
		router := newCORSRouter(true, origins...)

		for _, origin := range origins {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
			req.Header.Set("Origin", origin)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code, origin)
			assert.Equal(t, origin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		}
	})

	t.Run("Unknown origin is not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		req.Header.Set("Origin", "http://evil.com")
		w := httptest.NewRecorder()
		newCORSRouter(true, ui).ServeHTTP(w, req)

		assert.NotEqual(t, "http://evil.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Disabled CORS sets no headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		req.Header.Set("Origin", ui)
		w := httptest.NewRecorder()
		newCORSRouter(false).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Report download headers are exposed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/certificates/c1/report", nil)
		req.Header.Set("Origin", ui)
		w := httptest.NewRecorder()
		newCORSRouter(true, ui).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		exposed := w.Header().Get("Access-Control-Expose-Headers")
		assert.Contains(t, exposed, "Content-Disposition")
		assert.Contains(t, exposed, "Retry-After")
	})
}
