package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/josephowusu/bizcore/pkg/response"
)

// State reports process liveness and catalog database reachability.
// GET /api/state
func State(catalog *gorm.DB, startedAt time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		dbStatus := "ok"

		if sqlDB, err := catalog.DB(); err != nil {
			status, dbStatus = "degraded", "unreachable"
		} else if err := sqlDB.PingContext(requestContext(c)); err != nil {
			status, dbStatus = "degraded", "unreachable"
		}

		response.Success(c, http.StatusOK, gin.H{
			"status":   status,
			"database": dbStatus,
			"uptime":   time.Since(startedAt).Round(time.Second).String(),
		})
	}
}
