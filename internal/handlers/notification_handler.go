package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type NotificationHandler struct {
	db *gorm.DB
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{db: db}
}

// List returns the caller's notifications, newest first.
// ?unread=true keeps only the unread ones.
func (h *NotificationHandler) List(c *gin.Context) {
	auth := middleware.Auth(c)
	page, limit, offset := pageQuery(c, 20, 100)

	q := h.db.WithContext(c.Request.Context()).
		Model(&models.Notification{}).
		Where("clinic_id = ? AND user_id = ?", auth.ClinicID, auth.UserID)

	if c.Query("unread") == "true" {
		q = q.Where("read_at IS NULL")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "failed_to_list_notifications", "Could not list notifications.")
		return
	}

	var items []models.Notification
	if err := q.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error; err != nil {
		httperr.Internal(c, "failed_to_list_notifications", "Could not list notifications.")
		return
	}

	httpresp.Page(c, items, page, limit, total)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	auth := middleware.Auth(c)

	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	res := h.db.WithContext(c.Request.Context()).
		Model(&models.Notification{}).
		Where("id = ? AND clinic_id = ? AND user_id = ? AND read_at IS NULL", id, auth.ClinicID, auth.UserID).
		Update("read_at", time.Now())
	if res.Error != nil {
		httperr.Internal(c, "failed_to_update_notification", "Could not update the notification.")
		return
	}

	if res.RowsAffected == 0 {
		var count int64
		h.db.WithContext(c.Request.Context()).
			Model(&models.Notification{}).
			Where("id = ? AND clinic_id = ? AND user_id = ?", id, auth.ClinicID, auth.UserID).
			Count(&count)
		if count == 0 {
			httperr.NotFound(c, "notification_not_found", "Notification not found.")
			return
		}
	}

	c.Status(http.StatusNoContent)
}
