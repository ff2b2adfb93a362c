// app/seenmw.go
package app

import (
	"Gin_postgres_redis_library_dashboard/db"
	"Gin_postgres_redis_library_dashboard/session"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TouchLastSeen(repo *db.Repo, rdb *redis.Client, throttle time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("userID")
		if uid == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		if ok, err := session.Once(ctx, rdb, "user:lastseen:"+uid, throttle); err == nil && ok {
			if err := repo.TouchUserSeen(ctx, uid); err != nil {
				log.Printf("[seen] touch %s: %v", uid, err) // 不阻塞请求
			}
		}
		c.Next()
	}
}
