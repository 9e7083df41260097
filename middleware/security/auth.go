package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CtxTokenKey is where downstream handlers read the bearer token.
const CtxTokenKey = "authorization"

type Options struct {
	HeaderToken               string // default "authorization"
	EnableAuthorizationBearer bool   // also accept "Authorization: Bearer xxx"
}

func DefaultOptions() *Options {
	return &Options{
		HeaderToken:               CtxTokenKey,
		EnableAuthorizationBearer: true,
	}
}

// Middleware extracts the bearer token into the gin context and rejects
// requests that carry none.
func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))

		if token == "" && opts.EnableAuthorizationBearer {
			if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
				if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					token = strings.TrimSpace(authz[len("bearer "):])
				}
			}
		}

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		c.Set(CtxTokenKey, token)
		c.Next()
	}
}
