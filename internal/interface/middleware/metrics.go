package middleware

import (
	"expvar"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Counters published under /debug/vars.
var (
	requestsByRoute  = expvar.NewMap("blog_requests")
	responsesByClass = expvar.NewMap("blog_responses")
)

// Metrics counts requests per route and responses per status class (2xx, 4xx, ...).
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestsByRoute.Add(c.Request.Method+" "+route, 1)
		responsesByClass.Add(strconv.Itoa(c.Writer.Status()/100)+"xx", 1)
	}
}
