package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/site-pulse/backend/logging"
)

// auditPaths are the endpoints whose timing is recorded as audit activity.
var auditPaths = map[string]bool{
	"/api/audit": true,
	"/api/score": true,
}

// StatsMiddleware tracks visitors and audit request timing.
func StatsMiddleware(stats *logging.Statistics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		stats.TrackVisitor(c.ClientIP())

		c.Next()

		if c.Request.Method == "POST" && auditPaths[c.Request.URL.Path] {
			elapsed := float64(time.Since(start).Milliseconds())
			stats.TrackAudit(c.GetString("audit_site"), elapsed, c.Writer.Status() >= 500)
		}
	}
}
