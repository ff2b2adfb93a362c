package controllers

import (
	"net/http"

	"Gin_postgres_redis_library_dashboard/app"
	"Gin_postgres_redis_library_dashboard/db"

	"github.com/gin-gonic/gin"
)

type CatalogController struct{ *Srv }

func GetCatalogController(s *Srv) *CatalogController { return &CatalogController{Srv: s} }

// GET /api/authors?q=
func (cc *CatalogController) ListAuthors(c *gin.Context) {
	res, err := cc.Repo.ListAuthors(c.Request.Context(), c.Query("q"), queryInt(c, "page", 1), queryInt(c, "size", 50))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (cc *CatalogController) GetAuthor(c *gin.Context) {
	au, err := cc.Repo.GetAuthor(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, au)
}

func (cc *CatalogController) CreateAuthor(c *gin.Context) {
	var in db.AuthorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	au, err := cc.Repo.CreateAuthor(c.Request.Context(), actor(c), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, au)
}

func (cc *CatalogController) ListCategories(c *gin.Context) {
	cats, err := cc.Repo.ListCategories(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": cats})
}

func (cc *CatalogController) CreateCategory(c *gin.Context) {
	var in db.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	cat, err := cc.Repo.CreateCategory(c.Request.Context(), actor(c), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (cc *CatalogController) DeleteCategory(c *gin.Context) {
	if err := cc.Repo.DeleteCategory(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
