package controllers

import (
	"net/http"

	"Gin_postgres_redis_library_dashboard/app"
	"Gin_postgres_redis_library_dashboard/db"
	"Gin_postgres_redis_library_dashboard/models"

	"github.com/gin-gonic/gin"
)

type TransactionController struct{ *Srv }

func GetTransactionController(s *Srv) *TransactionController { return &TransactionController{Srv: s} }

func transactionQuery(c *gin.Context) db.TransactionQuery {
	return db.TransactionQuery{
		UserID:    c.Query("userId"),
		Type:      c.Query("type"),
		Status:    c.Query("status"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Page:      queryInt(c, "page", 1),
		Size:      queryInt(c, "size", 10),
	}
}

// GET /api/transactions?type=sale&status=completed&startDate=2025-03-01&endDate=2025-03-31
func (tc *TransactionController) ListTransactions(c *gin.Context) {
	res, err := tc.Repo.ListTransactions(c.Request.Context(), transactionQuery(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/me/transactions 顾客只能看到自己的
func (tc *TransactionController) MyTransactions(c *gin.Context) {
	q := transactionQuery(c)
	q.UserID = c.GetString("userID")
	res, err := tc.Repo.ListTransactions(c.Request.Context(), q)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (tc *TransactionController) GetTransaction(c *gin.Context) {
	t, err := tc.Repo.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (tc *TransactionController) CreateTransaction(c *gin.Context) {
	var in db.TransactionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	t, err := tc.Repo.CreateTransaction(c.Request.Context(), actor(c), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	tc.Metrics.Transactions.WithLabelValues(string(t.TransactionType), string(t.Status)).Inc()
	tc.invalidateStats(c.Request.Context())
	c.JSON(http.StatusCreated, t)
}

// PATCH /api/transactions/:id/status {"status": "completed"}
func (tc *TransactionController) UpdateStatus(c *gin.Context) {
	var in struct {
		Status models.TransactionStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	t, err := tc.Repo.UpdateTransactionStatus(c.Request.Context(), actor(c), c.Param("id"), in.Status)
	if err != nil {
		respondErr(c, err)
		return
	}
	tc.invalidateStats(c.Request.Context())
	c.JSON(http.StatusOK, t)
}

// GET /api/loans?status=overdue&dueDate=&q=&sortBy=due_date
func (tc *TransactionController) ListLoans(c *gin.Context) {
	res, err := tc.Repo.ListLoans(c.Request.Context(), db.LoanQuery{
		Status:    c.Query("status"),
		DueDate:   c.Query("dueDate"),
		Search:    c.Query("q"),
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

// GET /api/loans/calendar?month=2025-03
func (tc *TransactionController) DueCalendar(c *gin.Context) {
	rows, err := tc.Repo.DueCalendar(c.Request.Context(), c.Query("month"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"month": c.Query("month"), "items": rows})
}

// GET /api/sales 销售列表 + 汇总
func (tc *TransactionController) ListSales(c *gin.Context) {
	q := transactionQuery(c)
	q.Type = string(models.TxSale)
	ctx := c.Request.Context()
	res, err := tc.Repo.ListTransactions(ctx, q)
	if err != nil {
		respondErr(c, err)
		return
	}
	sum, err := tc.Repo.SalesSummary(ctx, c.DefaultQuery("period", "this_month"), q.StartDate, q.EndDate)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"sales": res, "summary": sum})
}
