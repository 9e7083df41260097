package user

import (
	"context"
	"net/http"
	"time"

	"WProject/middleware/security"
	"WProject/service/auth"

	"github.com/gin-gonic/gin"
)

type loginReq struct {
	UserID string `json:"user_id" binding:"required"`
	Name   string `json:"name"`
}

// HandlerLogin issues a bearer token for the given user. This is the dev
// credential source; production deployments front the gateway with their
// own issuer sharing the secret.
func HandlerLogin(a *auth.JWTAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
			return
		}
		id := auth.Identity{ID: req.UserID, Name: req.Name}
		token, err := a.Sign(id, 0)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sign failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user":  gin.H{"id": id.ID, "name": id.Name},
		})
	}
}

// HandlerCheck validates the bearer token placed in the context by the
// security middleware and echoes the resolved identity.
func HandlerCheck(a auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetString(security.CtxTokenKey)
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		id, err := a.FindUser(ctx, []byte(token))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": id})
	}
}
