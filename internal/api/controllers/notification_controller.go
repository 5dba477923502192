package controllers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/realtime"
	"storefront/internal/services"
	"storefront/pkg/utils"
)

const streamKeepAlive = 25 * time.Second

type NotificationController struct {
	notificationService services.NotificationServiceInterface
	hub                 *realtime.Hub
}

func NewNotificationController(notificationService services.NotificationServiceInterface, hub *realtime.Hub) *NotificationController {
	return &NotificationController{notificationService: notificationService, hub: hub}
}

// ListNotifications godoc
// @Summary List notifications
// @Description Newest first, only the caller's notifications
// @Tags Notifications
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20) minimum(1) maximum(100)
// @Success 200 {array} db_models.Notification
// @Security BearerAuth
// @Router /notifications [get]
func (n *NotificationController) ListNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	page, pageSize, ok := pageParams(c)
	if !ok {
		return
	}

	notifications, err := n.notificationService.List(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, notifications, "Notifications fetched successfully")
}

// UnreadCount godoc
// @Summary Count unread notifications
// @Tags Notifications
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /notifications/unread-count [get]
func (n *NotificationController) UnreadCount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	count, err := n.notificationService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, gin.H{"unread": count}, "Unread count fetched successfully")
}

// MarkRead godoc
// @Summary Mark a notification read
// @Tags Notifications
// @Param id path string true "Notification ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /notifications/{id}/read [patch]
func (n *NotificationController) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := n.notificationService.MarkRead(c.Request.Context(), userID, id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Notification marked as read")
}

// MarkAllRead godoc
// @Summary Mark all notifications read
// @Tags Notifications
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /notifications/read-all [patch]
func (n *NotificationController) MarkAllRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	updated, err := n.notificationService.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, gin.H{"updated": updated}, "Notifications marked as read")
}

// Stream godoc
// @Summary Live notification stream
// @Description Server-sent events, one "notification" event per new notification. Pass the JWT as access_token when the client cannot set headers.
// @Tags Notifications
// @Produce text/event-stream
// @Param access_token query string false "JWT for EventSource clients"
// @Security BearerAuth
// @Router /notifications/stream [get]
func (n *NotificationController) Stream(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	events, cancel := n.hub.Subscribe(userID)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case notification, open := <-events:
			if !open {
				return false
			}
			c.SSEvent("notification", notification)
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", gin.H{"ts": time.Now().Unix()})
			return true
		}
	})
}
