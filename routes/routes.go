package routes

import (
	"time"

	"Gin_postgres_redis_library_dashboard/app"
	"Gin_postgres_redis_library_dashboard/controllers"
	"Gin_postgres_redis_library_dashboard/models"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) *controllers.Srv {
	s := controllers.GetSrv(a)
	RegisterWith(r, a, s)
	return s
}

// RegisterWith 测试里可替换 Srv 的依赖（例如 Mailer）
func RegisterWith(r *gin.Engine, a *app.App, s *controllers.Srv) {
	users := controllers.GetUserController(s)
	invites := controllers.GetInviteController(s)
	books := controllers.GetBookController(s)
	catalog := controllers.GetCatalogController(s)
	inventory := controllers.GetInventoryController(s)
	txs := controllers.GetTransactionController(s)
	notes := controllers.GetNotificationController(s)
	dash := controllers.GetDashboardController(s)
	seeder := controllers.GetSeedController(s)

	// 复用的中间件
	authMW := app.AuthRequired(s.AppSess, s.Repo, a.Config)
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, 5*time.Minute)
	staffMW := app.RoleRequired(models.RoleAdmin, models.RoleStaff)
	adminMW := app.RoleRequired(models.RoleAdmin)

	api := r.Group("/api")

	// ------------------------------
	// 公开
	// ------------------------------
	api.POST("/auth/login", s.Login)
	api.POST("/auth/logout", s.Logout)
	api.POST("/webauthn/login/begin", s.BeginLogin)
	api.POST("/webauthn/login/finish", s.FinishLogin)
	api.GET("/invites/:token", invites.GetInvite)
	api.POST("/invites/:token/accept", invites.AcceptInvite)
	api.GET("/covers/*key", books.ServeCover)

	// ------------------------------
	// 登录用户
	// ------------------------------
	authed := api.Group("", authMW, seenMW)
	{
		authed.GET("/auth/whoami", s.WhoAmI)
		authed.POST("/webauthn/credentials/begin", s.BeginAddCredential)
		authed.POST("/webauthn/credentials/finish", s.FinishAddCredential)

		authed.GET("/notifications", notes.List)
		authed.GET("/notifications/unread-count", notes.UnreadCount)
		authed.PATCH("/notifications/:id/read", notes.MarkRead)
		authed.PATCH("/notifications/read-all", notes.MarkAllRead)
		authed.DELETE("/notifications/:id", notes.Delete)

		authed.GET("/me/transactions", txs.MyTransactions)

		authed.GET("/books", books.ListBooks)
		authed.GET("/books/:id", books.GetBook)
		authed.GET("/authors", catalog.ListAuthors)
		authed.GET("/authors/:id", catalog.GetAuthor)
		authed.GET("/categories", catalog.ListCategories)
	}

	// ------------------------------
	// 员工 + 管理员
	// ------------------------------
	staff := authed.Group("", staffMW)
	{
		staff.POST("/books", books.CreateBook)
		staff.PUT("/books/:id", books.UpdateBook)
		staff.DELETE("/books/:id", books.DeleteBook)
		staff.GET("/books/:id/transactions", books.BookTransactions)
		staff.POST("/books/:id/cover", books.UploadCover)

		staff.POST("/authors", catalog.CreateAuthor)
		staff.POST("/categories", catalog.CreateCategory)
		staff.DELETE("/categories/:id", catalog.DeleteCategory)

		staff.GET("/inventory", inventory.ListInventory)
		staff.GET("/inventory/low-stock", inventory.LowStock)
		staff.GET("/inventory/:id", inventory.GetInventoryItem)
		staff.PUT("/inventory/:id", inventory.UpdateInventoryItem)
		staff.POST("/inventory/:id/restock", inventory.Restock)
		staff.PATCH("/inventory/:id/quantity", inventory.SetQuantity)

		staff.GET("/transactions", txs.ListTransactions)
		staff.GET("/transactions/:id", txs.GetTransaction)
		staff.POST("/transactions", txs.CreateTransaction)
		staff.PATCH("/transactions/:id/status", txs.UpdateStatus)
		staff.GET("/loans", txs.ListLoans)
		staff.GET("/loans/calendar", txs.DueCalendar)
		staff.GET("/sales", txs.ListSales)

		staff.GET("/dashboard/stats", dash.Stats)
		staff.GET("/dashboard/overview", dash.Overview)
		staff.GET("/dashboard/sales-summary", dash.SalesSummary)
		staff.GET("/dashboard/analytics", dash.Analytics)

		staff.GET("/audit-logs", notes.AuditLogs)
	}

	// ------------------------------
	// 管理员
	// ------------------------------
	admin := authed.Group("", adminMW)
	{
		admin.GET("/users", users.ListUsers)
		admin.GET("/users/:id", users.GetUser)
		admin.POST("/users", users.CreateUser)
		admin.PUT("/users/:id", users.UpdateUser)
		admin.DELETE("/users/:id", users.DeleteUser)

		admin.GET("/admin/invites", invites.ListInvites)
		admin.POST("/admin/invites", invites.CreateInvite)
		admin.POST("/admin/notifications", notes.Send)
		admin.POST("/admin/seed", seeder.SeedLibrary)
	}
}
