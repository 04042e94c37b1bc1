package observability

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PrometheusHandler mounts the registry handler returned by InitTelemetry on
// a gin route. A nil handler answers 503 so scrapers see the outage.
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	if handler == nil {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "metrics are not initialized",
			})
		}
	}
	return gin.WrapH(handler)
}
