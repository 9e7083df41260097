package gateway

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HandlerInfo returns the externally reachable websocket base URL,
// scheme-rewritten from http(s) to ws(s). Not-found when the base is
// unconfigured.
func HandlerInfo(siteBase string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if siteBase == "" {
			c.Status(http.StatusNotFound)
			return
		}
		base := strings.Replace(siteBase, "http://", "ws://", 1)
		base = strings.Replace(base, "https://", "wss://", 1)
		c.String(http.StatusOK, base)
	}
}
