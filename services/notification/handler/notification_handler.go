package handler

import (
	"fmt"
	"net/http"

	model "auction-house/internal/models"
	"auction-house/services/notification/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

type NotificationServiceInterface interface {
	ListForUser(userID string) ([]model.Notification, error)
	Create(userID, content, notifType string) (model.Notification, error)
	MarkRead(notificationID string) (model.Notification, error)
	Delete(notificationID string) error
}

type NotificationHandler struct {
	service NotificationServiceInterface
}

func NewNotificationHandler(service NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// ListNotificationsHandler handles GET /notifications
func (h *NotificationHandler) ListNotificationsHandler(c *gin.Context) {
	userID := utils.CurrentUserID(c)
	notifications, err := h.service.ListForUser(userID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ListNotificationsHandler: error listing notifications", map[string]any{"user_id": userID, "error": err.Error()})
		return
	}

	if notifications == nil {
		notifications = []model.Notification{}
	}

	utils.JSONResponse(c, http.StatusOK, notifications, "notifications retrieved successfully")
	helpers.LogSuccess("ListNotificationsHandler", "notifications retrieved successfully", map[string]any{
		"user_id": userID,
		"count":   len(notifications),
	})
}

// CreateNotificationHandler handles POST /notifications
func (h *NotificationHandler) CreateNotificationHandler(c *gin.Context) {
	var req helpers.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateNotificationHandler", err)
		return
	}

	n, err := h.service.Create(req.UserID, req.Content, req.Type)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("CreateNotificationHandler: create failed", map[string]any{"user_id": req.UserID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, n, "notification created successfully")
	helpers.LogSuccess("CreateNotificationHandler", "notification created successfully", map[string]any{
		"notification_id": n.NotificationID,
		"user_id":         n.UserID,
	})
}

// MarkNotificationReadHandler handles PUT /notifications/:notification_id/read
func (h *NotificationHandler) MarkNotificationReadHandler(c *gin.Context) {
	notificationID := c.Param("notification_id")
	n, err := h.service.MarkRead(notificationID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("MarkNotificationReadHandler: mark read failed", map[string]any{"notification_id": notificationID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, n, "notification marked read")
	helpers.LogSuccess("MarkNotificationReadHandler", "notification marked read", map[string]any{
		"notification_id": notificationID,
	})
}

// DeleteNotificationHandler handles DELETE /notifications/:notification_id
func (h *NotificationHandler) DeleteNotificationHandler(c *gin.Context) {
	notificationID := c.Param("notification_id")
	if err := h.service.Delete(notificationID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("DeleteNotificationHandler: delete failed", map[string]any{"notification_id": notificationID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "notification deleted successfully")
	helpers.LogSuccess("DeleteNotificationHandler", "notification deleted successfully", map[string]any{
		"notification_id": notificationID,
	})
}
