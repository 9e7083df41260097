package middleware

import (
	midsec "WProject/middleware/security"

	"github.com/gin-gonic/gin"
)

// RouteOpt configures a wrapped route.
type RouteOpt struct {
	IsAuth bool
}

// POST registers a POST route, with the bearer middleware when IsAuth.
func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.POST(path, midsec.Middleware(midsec.DefaultOptions()), handler)
	} else {
		r.POST(path, handler)
	}
}

// GET registers a GET route, with the bearer middleware when IsAuth.
func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.GET(path, midsec.Middleware(midsec.DefaultOptions()), handler)
	} else {
		r.GET(path, handler)
	}
}
