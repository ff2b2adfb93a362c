package controllers

import (
	"net/http"
	"strings"
	"time"

	"Gin_postgres_redis_library_dashboard/app"
	"Gin_postgres_redis_library_dashboard/db"

	"github.com/gin-gonic/gin"
)

// POST /api/auth/login
func (s *Srv) Login(c *gin.Context) {
	var in struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	u, err := s.Repo.FindUserByEmail(c.Request.Context(), in.Email)
	if err != nil || !db.CheckPassword(u.PasswordHash, in.Password) {
		// 不区分用户不存在和密码错误
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid email or password"})
		return
	}
	if err := s.issueSession(c, u, "password"); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "user": u, "redirect": "/dashboard"})
}

// POST /api/auth/logout 删 Redis 会话，Cookie 置空
func (s *Srv) Logout(c *gin.Context) {
	if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
		_ = s.AppSess.Delete(c.Request.Context(), ck.Value)
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   strings.HasPrefix(s.Cfg.WebOrigin, "https://"),
	})
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/auth/whoami
func (s *Srv) WhoAmI(c *gin.Context) {
	ctx := c.Request.Context()
	uid := c.GetString("userID")
	u, err := s.Repo.FindUserByID(ctx, uid)
	if err != nil {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	credCount, _ := s.Repo.CountCredentials(ctx, uid)
	unread, _ := s.Repo.UnreadCount(ctx, uid)

	var expiresAt *time.Time
	if as, err := s.AppSess.Get(ctx, c.GetString("sessionID")); err == nil {
		t := time.Unix(as.ExpiresAt, 0)
		expiresAt = &t
	}
	c.JSON(http.StatusOK, app.H{
		"user":           u,
		"role":           c.GetString("role"),
		"hasPasskey":     credCount > 0,
		"unreadCount":    unread,
		"sessionExpires": expiresAt,
	})
}
