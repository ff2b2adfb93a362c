package controllers

import (
	"net/http"

	"Gin_postgres_redis_library_dashboard/seed"

	"github.com/gin-gonic/gin"
)

type SeedController struct{ *Srv }

func GetSeedController(s *Srv) *SeedController { return &SeedController{Srv: s} }

// POST /api/admin/seed {"reset": false}
func (sc *SeedController) SeedLibrary(c *gin.Context) {
	var body struct {
		Reset bool `json:"reset"`
	}
	// 空 body 视为 reset=false
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err)
			return
		}
	}
	ctx := c.Request.Context()
	lib, err := seed.SeedLibrary(ctx, sc.Repo.DB, seed.LibraryOptions{Reset: body.Reset})
	if err != nil {
		respondErr(c, err)
		return
	}
	sc.invalidateStats(ctx)
	c.JSON(http.StatusCreated, gin.H{
		"books":        len(lib.Books),
		"users":        len(lib.Users),
		"transactions": len(lib.Transactions),
		"password":     seed.DefaultLibraryPassword,
	})
}
