package controllers

import (
	"io"
	"net/http"
	"strings"

	"Gin_postgres_redis_library_dashboard/app"
	"Gin_postgres_redis_library_dashboard/blob"
	"Gin_postgres_redis_library_dashboard/db"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 封面大小上限
const maxCoverBytes = 5 << 20

var coverTypes = map[string]bool{"image/jpeg": true, "image/png": true, "image/webp": true, "image/gif": true}

type BookController struct{ *Srv }

func GetBookController(s *Srv) *BookController { return &BookController{Srv: s} }

// GET /api/books?q=&categoryId=&authorId=&sortBy=title&sortOrder=asc&page=1&size=10
func (bc *BookController) ListBooks(c *gin.Context) {
	res, err := bc.Repo.ListBooks(c.Request.Context(), db.BookQuery{
		Search:     c.Query("q"),
		CategoryID: c.Query("categoryId"),
		AuthorID:   c.Query("authorId"),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
		Page:       queryInt(c, "page", 1),
		Size:       queryInt(c, "size", 10),
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (bc *BookController) GetBook(c *gin.Context) {
	b, err := bc.Repo.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (bc *BookController) CreateBook(c *gin.Context) {
	var in db.BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	b, err := bc.Repo.CreateBook(c.Request.Context(), actor(c), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	bc.invalidateStats(c.Request.Context())
	c.JSON(http.StatusCreated, b)
}

func (bc *BookController) UpdateBook(c *gin.Context) {
	var p db.BookPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	b, err := bc.Repo.UpdateBook(c.Request.Context(), actor(c), c.Param("id"), p)
	if err != nil {
		respondErr(c, err)
		return
	}
	bc.invalidateStats(c.Request.Context())
	c.JSON(http.StatusOK, b)
}

func (bc *BookController) DeleteBook(c *gin.Context) {
	if err := bc.Repo.DeleteBook(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	bc.invalidateStats(c.Request.Context())
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/books/:id/transactions?limit=10
func (bc *BookController) BookTransactions(c *gin.Context) {
	rows, err := bc.Repo.BookTransactions(c.Request.Context(), c.Param("id"), queryInt(c, "limit", 10))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": rows})
}

// POST /api/books/:id/cover  multipart 字段名 file
func (bc *BookController) UploadCover(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := bc.Repo.GetBook(ctx, id); err != nil {
		respondErr(c, err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "missing file"})
		return
	}
	if fh.Size > maxCoverBytes {
		c.JSON(http.StatusRequestEntityTooLarge, app.H{"error": "cover image too large"})
		return
	}
	ct := fh.Header.Get("Content-Type")
	if !coverTypes[ct] {
		c.JSON(http.StatusBadRequest, app.H{"error": "unsupported image type"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondErr(c, err)
		return
	}
	defer f.Close()

	key := blob.CoverKey(id, uuid.NewString(), fh.Filename)
	if _, err := bc.Blob.Put(ctx, key, io.LimitReader(f, maxCoverBytes), ct); err != nil {
		respondErr(c, err)
		return
	}
	url := "/api/covers/" + key
	if err := bc.Repo.SetBookCover(ctx, actor(c), id, url); err != nil {
		_ = bc.Blob.Delete(ctx, key)
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"coverImageUrl": url, "key": key})
}

// GET /api/covers/*key
func (bc *BookController) ServeCover(c *gin.Context) {
	key, err := blob.CleanKey(strings.TrimPrefix(c.Param("key"), "/"))
	if err != nil || !strings.HasPrefix(key, "covers/") {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid key"})
		return
	}
	info, rc, err := bc.Blob.Get(c.Request.Context(), key)
	if err != nil {
		respondErr(c, err)
		return
	}
	defer rc.Close()
	c.Header("Cache-Control", "public, max-age=86400")
	c.DataFromReader(http.StatusOK, info.Size, info.ContentType, rc, nil)
}
