package controllers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"Gin_postgres_redis_library_dashboard/app"
	"Gin_postgres_redis_library_dashboard/db"
	"Gin_postgres_redis_library_dashboard/models"

	"github.com/gin-gonic/gin"
)

type InviteController struct{ *Srv }

func GetInviteController(s *Srv) *InviteController { return &InviteController{Srv: s} }

// POST /api/admin/invites
func (ic *InviteController) CreateInvite(c *gin.Context) {
	var in struct {
		Email   string `json:"email" binding:"required,email"`
		Role    string `json:"role"`
		Expires int    `json:"expiresDays"` // 默认 1 天
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	if in.Expires <= 0 {
		in.Expires = 1
	}
	if in.Role == "" {
		in.Role = models.RoleStaff
	}

	token, err := app.NewToken()
	if err != nil {
		respondErr(c, err)
		return
	}

	inv, err := ic.Repo.CreateInvite(c.Request.Context(), actor(c), strings.ToLower(in.Email), in.Role,
		token, time.Now().AddDate(0, 0, in.Expires), c.GetString("email"))
	if err != nil {
		respondErr(c, err)
		return
	}

	// 前端登录页带 inviteToken
	link := strings.TrimRight(ic.Cfg.WebOrigin, "/") + "/login?inviteToken=" + token
	if err := ic.Mail.SendInvite(inv.Email, inv.Role, link, in.Expires); err != nil {
		log.Printf("[invite email] send failed: %v", err)
	}

	c.JSON(http.StatusCreated, app.H{"token": token, "link": link, "invite": inv})
}

// GET /api/admin/invites
func (ic *InviteController) ListInvites(c *gin.Context) {
	rows, err := ic.Repo.ListInvites(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": rows})
}

// GET /api/invites/:token 前端先校验邀请是否可用
func (ic *InviteController) GetInvite(c *gin.Context) {
	inv, err := ic.Repo.GetInviteByToken(c.Request.Context(), c.Param("token"))
	if err != nil || !inv.Usable(time.Now()) {
		respondErr(c, db.ErrInviteUsed)
		return
	}
	c.JSON(http.StatusOK, app.H{"email": inv.Email, "role": inv.Role, "expiresAt": inv.ExpiresAt})
}

// POST /api/invites/:token/accept 创建账号并直接登录
func (ic *InviteController) AcceptInvite(c *gin.Context) {
	var in struct {
		FirstName string  `json:"firstName" binding:"required"`
		LastName  string  `json:"lastName" binding:"required"`
		Password  string  `json:"password" binding:"required"`
		Phone     *string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	u, err := ic.Repo.AcceptInvite(c.Request.Context(), actor(c), c.Param("token"), db.UserInput{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  in.Password,
		Phone:     in.Phone,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	ic.invalidateStats(c.Request.Context())
	if err := ic.issueSession(c, u, "password"); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"ok": true, "user": u})
}
