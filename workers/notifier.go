package workers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"Gin_postgres_redis_library_dashboard/db"
	"Gin_postgres_redis_library_dashboard/models"
	"Gin_postgres_redis_library_dashboard/session"

	"github.com/redis/go-redis/v9"
)

type Notifier struct {
	Repo     *db.Repo
	Redis    *redis.Client // 可为 nil，此时不去重
	Interval time.Duration
	Now      func() time.Time

	// 每条借阅每天最多触发一次
	DedupeTTL time.Duration
}

func NewNotifier(repo *db.Repo, rdb *redis.Client, interval time.Duration) *Notifier {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Notifier{Repo: repo, Redis: rdb, Interval: interval, Now: time.Now, DedupeTTL: 24 * time.Hour}
}

// Start 立即检查一次，之后按 Interval 循环，ctx 取消后退出
func (n *Notifier) Start(ctx context.Context) {
	ticker := time.NewTicker(n.Interval)
	go func() {
		defer ticker.Stop()
		n.run(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n.run(ctx)
			}
		}
	}()
}

func (n *Notifier) run(ctx context.Context) {
	sent, err := n.Check(ctx)
	if err != nil {
		log.Printf("[notifier] check failed: %v", err)
		return
	}
	if sent > 0 {
		log.Printf("[notifier] sent %d loan notifications", sent)
	}
}

// Check 逾期借阅发 "Overdue Loan"，24 小时内到期发 "Loan Due Soon"
func (n *Notifier) Check(ctx context.Context) (int, error) {
	now := n.Now()
	loans, err := n.Repo.LoansDueBefore(ctx, now.Add(24*time.Hour))
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, l := range loans {
		if l.DueDate == nil {
			continue
		}
		title, msg, kind := loanMessage(l, now)
		k := fmt.Sprintf("notify:loan:%s:%s:%s", l.ID, kind, now.Format("2006-01-02"))
		first, err := session.Once(ctx, n.Redis, k, n.DedupeTTL)
		if err != nil {
			return sent, err
		}
		if !first {
			continue
		}
		if err := n.Repo.NotifyUser(ctx, l.UserID, title, msg); err != nil {
			// 写入失败时释放 key，下一轮重试
			if n.Redis != nil {
				_ = n.Redis.Del(ctx, k).Err()
			}
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func loanMessage(l models.Transaction, now time.Time) (title, msg, kind string) {
	books := bookTitles(l)
	if l.DueDate.Before(now) {
		days := int(now.Sub(*l.DueDate).Hours() / 24)
		if days < 1 {
			days = 1
		}
		return "Overdue Loan",
			fmt.Sprintf("%s is %d day(s) overdue. Please return it as soon as possible.", books, days),
			"overdue"
	}
	return "Loan Due Soon",
		fmt.Sprintf("%s is due on %s.", books, l.DueDate.Format("02 Jan 2006")),
		"due"
}

func bookTitles(l models.Transaction) string {
	var titles []string
	for _, it := range l.Items {
		if it.Book != nil {
			titles = append(titles, fmt.Sprintf("%q", it.Book.Title))
		}
	}
	if len(titles) == 0 {
		return "Your loan"
	}
	return strings.Join(titles, ", ")
}
