package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsMiddleware(t *testing.T) {
	router := setupTestRouter()
	router.Use(MetricsMiddleware())
	router.GET("/api/v1/certificates/:id/verify", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
	})

	t.Run("Counts by route template", func(t *testing.T) {
		counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/certificates/:id/verify", "404")
		before := testutil.ToFloat64(counter)

		for _, id := range []string{"a", "b", "c"} {
			req, _ := http.NewRequest(http.MethodGet, "/api/v1/certificates/"+id+"/verify", nil)
			router.ServeHTTP(httptest.NewRecorder(), req)
		}

		assert.Equal(t, before+3, testutil.ToFloat64(counter))
	})

	t.Run("Unknown paths share one label", func(t *testing.T) {
		counter := httpRequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404")
		before := testutil.ToFloat64(counter)

		req, _ := http.NewRequest(http.MethodGet, "/no/such/route", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, before+1, testutil.ToFloat64(counter))
	})
}
