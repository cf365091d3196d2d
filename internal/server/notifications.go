package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	notificationdomain "github.com/stagecast/encore/internal/notification/domain"
)

func (s *Server) ListNotifications(c *gin.Context) {
	unreadOnly, err := parseOptionalBool(c.Query("unread"))
	if err != nil {
		AbortWithError(c, newValidationError("unread", "invalid_unread", "unread must be a boolean"))
		return
	}

	limit, err := parseOptionalInt64(c.Query("limit"))
	if err != nil || (limit != nil && *limit < 0) {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be a non-negative integer"))
		return
	}

	req := notificationdomain.ListRequest{
		ProfileID: c.Param("id"),
	}
	if unreadOnly != nil {
		req.UnreadOnly = *unreadOnly
	}
	if limit != nil {
		req.Limit = int(*limit)
	}

	notifications, err := s.notificationSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": notifications})
}

func (s *Server) MarkNotificationRead(c *gin.Context) {
	if err := s.notificationSvc.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"read": true}})
}

func (s *Server) MarkAllNotificationsRead(c *gin.Context) {
	if err := s.notificationSvc.MarkAllRead(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"read": true}})
}

func (s *Server) DismissNotification(c *gin.Context) {
	if err := s.notificationSvc.Dismiss(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"dismissed": true}})
}
