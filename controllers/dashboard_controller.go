package controllers

import (
	"log"
	"net/http"

	"Gin_postgres_redis_library_dashboard/app"
	"Gin_postgres_redis_library_dashboard/db"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const statsCacheKey = "dashboard:stats"

type DashboardController struct{ *Srv }

func GetDashboardController(s *Srv) *DashboardController { return &DashboardController{Srv: s} }

// GET /api/dashboard/stats 优先读 Redis 缓存
func (dc *DashboardController) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	var st db.DashboardStats
	if ok, err := dc.Cache.Get(ctx, statsCacheKey, &st); err == nil && ok {
		dc.Metrics.CacheHits.WithLabelValues("hit").Inc()
		c.JSON(http.StatusOK, st)
		return
	}
	dc.Metrics.CacheHits.WithLabelValues("miss").Inc()

	fresh, err := dc.Repo.DashboardStats(ctx)
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := dc.Cache.Set(ctx, statsCacheKey, fresh, dc.Cfg.StatsCacheTTL); err != nil {
		log.Printf("[cache] set stats: %v", err)
	}
	c.JSON(http.StatusOK, fresh)
}

// GET /api/dashboard/overview 最近交易 + 低库存
func (dc *DashboardController) Overview(c *gin.Context) {
	ctx := c.Request.Context()
	recent, err := dc.Repo.RecentTransactions(ctx, 5)
	if err != nil {
		respondErr(c, err)
		return
	}
	low, err := dc.Repo.LowStockItems(ctx, 5)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"recentTransactions": recent, "lowStock": low})
}

// GET /api/dashboard/sales-summary?period=custom&startDate=&endDate=
func (dc *DashboardController) SalesSummary(c *gin.Context) {
	sum, err := dc.Repo.SalesSummary(c.Request.Context(), c.DefaultQuery("period", "all"), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// GET /api/dashboard/analytics 各项分析并发查询
func (dc *DashboardController) Analytics(c *gin.Context) {
	var (
		months []db.MonthPoint
		books  []db.TopBook
		cats   []db.TopCategory
		inv    *db.InventoryAnalytics
		users  *db.UserAnalytics
	)
	// gin.Context 不能在 goroutine 里并发读 query
	limit := queryInt(c, "limit", 5)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) { months, err = dc.Repo.SalesByMonth(ctx); return })
	g.Go(func() (err error) { books, err = dc.Repo.TopBooks(ctx, limit); return })
	g.Go(func() (err error) { cats, err = dc.Repo.TopCategories(ctx, limit); return })
	g.Go(func() (err error) { inv, err = dc.Repo.InventoryAnalytics(ctx); return })
	g.Go(func() (err error) { users, err = dc.Repo.UserAnalytics(ctx); return })
	if err := g.Wait(); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{
		"salesByMonth":  months,
		"topBooks":      books,
		"topCategories": cats,
		"inventory":     inv,
		"users":         users,
	})
}
