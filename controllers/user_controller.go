package controllers

import (
	"log"
	"net/http"

	"Gin_postgres_redis_library_dashboard/app"
	"Gin_postgres_redis_library_dashboard/db"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserController struct{ *Srv }

func GetUserController(s *Srv) *UserController { return &UserController{Srv: s} }

// GET /api/users?q=alice&role=staff&sortBy=last_name&page=1&size=20
func (uc *UserController) ListUsers(c *gin.Context) {
	res, err := uc.Repo.ListUsers(c.Request.Context(), db.UserQuery{
		Search:    c.Query("q"),
		Role:      c.Query("role"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Page:      queryInt(c, "page", 1),
		Size:      queryInt(c, "size", 10),
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/users/:id
func (uc *UserController) GetUser(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid uuid"})
		return
	}
	user, err := uc.Repo.FindUserByID(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	credCount, _ := uc.Repo.CountCredentials(c.Request.Context(), id)
	c.JSON(http.StatusOK, app.H{"user": user, "credentialCount": credCount})
}

// POST /api/users
func (uc *UserController) CreateUser(c *gin.Context) {
	var in db.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	u, err := uc.Repo.CreateUser(c.Request.Context(), actor(c), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	uc.invalidateStats(c.Request.Context())
	c.JSON(http.StatusCreated, u)
}

// PATCH /api/users/:id 改角色或密码后旧会话全部失效
func (uc *UserController) UpdateUser(c *gin.Context) {
	var p db.UserPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	before, err := uc.Repo.FindUserByID(ctx, id)
	if err != nil {
		respondErr(c, err)
		return
	}
	u, err := uc.Repo.UpdateUser(ctx, actor(c), id, p)
	if err != nil {
		respondErr(c, err)
		return
	}
	if u.Role != before.Role || p.Password != nil {
		if err := uc.AppSess.RevokeAllForUser(ctx, id); err != nil {
			log.Printf("[users] revoke sessions %s: %v", id, err)
		}
	}
	c.JSON(http.StatusOK, u)
}

// DELETE /api/users/:id
func (uc *UserController) DeleteUser(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if err := uc.Repo.DeleteUser(ctx, actor(c), id); err != nil {
		respondErr(c, err)
		return
	}
	if err := uc.AppSess.RevokeAllForUser(ctx, id); err != nil {
		log.Printf("[users] revoke sessions %s: %v", id, err)
	}
	uc.invalidateStats(ctx)
	c.JSON(http.StatusOK, app.H{"ok": true})
}
