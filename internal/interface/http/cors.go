package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const corsMaxAge = "600"

// originPolicy is the allowed origin list, lower-cased once at startup.
type originPolicy struct {
	any      bool
	fallback string
	allowed  map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == "*" {
			p.any = true
			continue
		}
		if p.fallback == "" {
			p.fallback = o
		}
		p.allowed[strings.ToLower(o)] = struct{}{}
	}
	if len(p.allowed) == 0 {
		p.any = true
	}
	return p
}

// resolve returns the Access-Control-Allow-Origin value for a request origin.
func (p originPolicy) resolve(origin string) string {
	if p.any {
		return "*"
	}
	if _, ok := p.allowed[strings.ToLower(origin)]; ok {
		return origin
	}
	return p.fallback
}

// corsMiddleware answers preflight requests and echoes an allowed origin.
func corsMiddleware(origins []string) gin.HandlerFunc {
	policy := newOriginPolicy(origins)
	return func(c *gin.Context) {
		headers := c.Writer.Header()
		headers.Set("Access-Control-Allow-Origin", policy.resolve(c.GetHeader("Origin")))
		if !policy.any {
			headers.Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			headers.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			headers.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			headers.Set("Access-Control-Max-Age", corsMaxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
