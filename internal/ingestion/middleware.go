package ingestion

import (
	"crypto/subtle"
	"net/http"

	"candidate_pipeline_backend/platform/config"

	"github.com/gin-gonic/gin"
)

// TokenAuth authenticates CRM webhook deliveries via the shared-secret token
// query parameter. The CRM cannot set headers on outbound webhooks, so the
// secret rides in the URL.
func TokenAuth(cfg config.WebhookConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.Query("token")
		expected := cfg.GetWebhookToken()
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Next()
	}
}
