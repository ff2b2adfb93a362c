package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Gin_postgres_redis_library_dashboard/app"
	"Gin_postgres_redis_library_dashboard/config"
	"Gin_postgres_redis_library_dashboard/routes"
	"Gin_postgres_redis_library_dashboard/workers"
)

func main() {
	config.LoadEnv()
	application := app.MustNew()
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := application.Router

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })
	r.GET("/metrics", application.Metrics.Handler())

	s := routes.RegisterRoutes(r, application)

	// 还没有管理员时打印一次性邀请链接
	app.BootstrapFirstAdmin(ctx, application.Config, s.Repo)

	workers.NewNotifier(s.Repo, application.RDB, application.Config.NotifierInterval).Start(ctx)

	srv := &http.Server{
		Addr:              ":" + application.Config.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("listening on :%s", application.Config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
