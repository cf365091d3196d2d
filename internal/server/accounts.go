package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/stagecast/encore/internal/account/domain"
)

type linkAccountRequest struct {
	Platform string `json:"platform"`
	Username string `json:"username"`
}

func (s *Server) LinkAccount(c *gin.Context) {
	var req linkAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	account, err := s.accountSvc.Link(c.Request.Context(), accountdomain.LinkRequest{
		ProfileID: c.Param("id"),
		Platform:  req.Platform,
		Username:  req.Username,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": account})
}

func (s *Server) UnlinkAccount(c *gin.Context) {
	err := s.accountSvc.Unlink(c.Request.Context(), accountdomain.UnlinkRequest{
		ProfileID: c.Param("id"),
		Platform:  c.Param("platform"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"unlinked": true}})
}

func (s *Server) ListLinkedAccounts(c *gin.Context) {
	accounts, err := s.accountSvc.ListLinked(c.Request.Context(), accountdomain.ListLinkedRequest{
		ProfileID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": accounts})
}
