package controllers

import (
	"net/http"

	"Gin_postgres_redis_library_dashboard/app"
	"Gin_postgres_redis_library_dashboard/db"

	"github.com/gin-gonic/gin"
)

type NotificationController struct{ *Srv }

func GetNotificationController(s *Srv) *NotificationController {
	return &NotificationController{Srv: s}
}

// GET /api/notifications?unreadOnly=true
func (nc *NotificationController) List(c *gin.Context) {
	res, err := nc.Repo.ListNotifications(c.Request.Context(), db.NotificationQuery{
		UserID:     c.GetString("userID"),
		UnreadOnly: c.Query("unreadOnly") == "true",
		Page:       queryInt(c, "page", 1),
		Size:       queryInt(c, "size", 20),
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (nc *NotificationController) UnreadCount(c *gin.Context) {
	n, err := nc.Repo.UnreadCount(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"count": n})
}

func (nc *NotificationController) MarkRead(c *gin.Context) {
	if err := nc.Repo.MarkNotificationRead(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

func (nc *NotificationController) MarkAllRead(c *gin.Context) {
	n, err := nc.Repo.MarkAllNotificationsRead(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "updated": n})
}

func (nc *NotificationController) Delete(c *gin.Context) {
	if err := nc.Repo.DeleteNotification(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// POST /api/admin/notifications {"userId": "all", "title": "...", "message": "..."}
func (nc *NotificationController) Send(c *gin.Context) {
	var in struct {
		UserID  string `json:"userId" binding:"required"`
		Title   string `json:"title"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	n, err := nc.Repo.SendNotification(c.Request.Context(), actor(c), in.UserID, in.Title, in.Message)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"ok": true, "sent": n})
}

// GET /api/audit-logs?userId=&entityType=book&entityId=&action=
func (nc *NotificationController) AuditLogs(c *gin.Context) {
	res, err := nc.Repo.ListAuditLogs(c.Request.Context(), db.AuditQuery{
		UserID:     c.Query("userId"),
		EntityType: c.Query("entityType"),
		EntityID:   c.Query("entityId"),
		Action:     c.Query("action"),
		Page:       queryInt(c, "page", 1),
		Size:       queryInt(c, "size", 50),
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
