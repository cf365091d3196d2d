package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stagecast/encore/internal/aggregate"
	refreshdomain "github.com/stagecast/encore/internal/refresh/domain"
)

// GetProfileMetrics serves the metrics dashboard for one profile: the
// per-platform entries plus the cross-platform summary. A refresh=true query
// bypasses snapshot age checks; platform= narrows the read to one platform.
func (s *Server) GetProfileMetrics(c *gin.Context) {
	forceRefresh, err := parseOptionalBool(c.Query("refresh"))
	if err != nil {
		AbortWithError(c, newValidationError("refresh", "invalid_refresh", "refresh must be a boolean"))
		return
	}

	req := refreshdomain.GetMetricsRequest{
		ProfileID: c.Param("id"),
		Platform:  c.Query("platform"),
	}
	if forceRefresh != nil {
		req.ForceRefresh = *forceRefresh
	}

	report, err := s.refreshSvc.GetMetrics(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"platforms": report,
		"summary":   aggregate.Summarize(report),
	}})
}
