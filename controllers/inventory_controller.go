package controllers

import (
	"net/http"

	"Gin_postgres_redis_library_dashboard/app"
	"Gin_postgres_redis_library_dashboard/db"
	"Gin_postgres_redis_library_dashboard/models"

	"github.com/gin-gonic/gin"
)

type InventoryController struct{ *Srv }

func GetInventoryController(s *Srv) *InventoryController { return &InventoryController{Srv: s} }

// GET /api/inventory?q=&status=low_stock&sortBy=quantity&sortOrder=asc
func (ic *InventoryController) ListInventory(c *gin.Context) {
	res, err := ic.Repo.ListInventory(c.Request.Context(), db.InventoryQuery{
		Search:    c.Query("q"),
		Status:    c.Query("status"),
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

func (ic *InventoryController) GetInventoryItem(c *gin.Context) {
	inv, err := ic.Repo.GetInventoryItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (ic *InventoryController) LowStock(c *gin.Context) {
	rows, err := ic.Repo.LowStockItems(c.Request.Context(), queryInt(c, "limit", 5))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": rows})
}

// PUT /api/inventory/:id
func (ic *InventoryController) UpdateInventoryItem(c *gin.Context) {
	var in db.InventoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	ic.respondInventory(c)(ic.Repo.UpdateInventoryItem(c.Request.Context(), actor(c), c.Param("id"), in))
}

// POST /api/inventory/:id/restock {"quantity": 10}
func (ic *InventoryController) Restock(c *gin.Context) {
	var in struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	ic.respondInventory(c)(ic.Repo.RestockInventoryItem(c.Request.Context(), actor(c), c.Param("id"), in.Quantity))
}

// PUT /api/inventory/:id/quantity {"quantity": 0}
func (ic *InventoryController) SetQuantity(c *gin.Context) {
	var in struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	ic.respondInventory(c)(ic.Repo.SetInventoryQuantity(c.Request.Context(), actor(c), c.Param("id"), *in.Quantity))
}

// 成功后统计缺货告警并清缓存
func (ic *InventoryController) respondInventory(c *gin.Context) func(*models.Inventory, error) {
	return func(inv *models.Inventory, err error) {
		if err != nil {
			respondErr(c, err)
			return
		}
		if inv.Status != models.InventoryAvailable {
			ic.Metrics.StockAlerts.Inc()
		}
		ic.invalidateStats(c.Request.Context())
		c.JSON(http.StatusOK, inv)
	}
}
