package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	rosterdomain "github.com/stagecast/encore/internal/roster/domain"
)

type createProfileRequest struct {
	DisplayName string `json:"display_name"`
}

func (s *Server) CreateProfile(c *gin.Context) {
	var req createProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	profile, err := s.rosterSvc.Create(c.Request.Context(), rosterdomain.CreateProfileRequest{
		DisplayName: req.DisplayName,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": profile})
}

func (s *Server) GetProfileByID(c *gin.Context) {
	profile, err := s.rosterSvc.GetByID(c.Request.Context(), rosterdomain.GetProfileRequest{
		ID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": profile})
}

func (s *Server) ListProfiles(c *gin.Context) {
	limit, err := parseOptionalInt64(c.Query("limit"))
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be an integer"))
		return
	}

	var listLimit int32
	if limit != nil {
		listLimit = int32(*limit)
	}

	profiles, err := s.rosterSvc.List(c.Request.Context(), rosterdomain.ListProfilesRequest{
		Limit: listLimit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": profiles})
}
