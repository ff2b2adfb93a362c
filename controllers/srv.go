// controllers/srv.go
package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"Gin_postgres_redis_library_dashboard/app"
	"Gin_postgres_redis_library_dashboard/blob"
	"Gin_postgres_redis_library_dashboard/db"
	"Gin_postgres_redis_library_dashboard/models"
	"Gin_postgres_redis_library_dashboard/session"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
)

type Srv struct {
	WA      *webauthn.WebAuthn
	Repo    *db.Repo
	Sess    *session.Store
	AppSess *session.AppSessionStore
	Cache   *session.Cache
	Blob    blob.Store
	Metrics *app.Metrics
	Mail    Mailer
	Cfg     app.Config
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		WA:      a.WA,
		Repo:    db.NewRepo(a.DB),
		Sess:    session.NewStore(a.RDB, a.Config.SessionTTL),
		AppSess: a.AppSessions(),
		Cache:   a.Cache(),
		Blob:    a.Blob,
		Metrics: a.Metrics,
		Mail:    NewSMTPMailer(a.Config.SMTP),
		Cfg:     a.Config,
	}
}

// --- helpers ---

// actor 当前操作者，IP 优先取 X-Forwarded-For 第一段
func actor(c *gin.Context) db.Actor {
	ip := c.GetHeader("X-Forwarded-For")
	if i := strings.IndexByte(ip, ','); i >= 0 {
		ip = ip[:i]
	}
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = c.ClientIP()
	}
	if ip == "" {
		ip = "unknown"
	}
	return db.Actor{UserID: c.GetString("userID"), IP: ip}
}

func queryInt(c *gin.Context, k string, def int) int {
	if n, err := strconv.Atoi(c.Query(k)); err == nil {
		return n
	}
	return def
}

// respondErr 统一错误响应 {"error": msg}
func respondErr(c *gin.Context, err error) {
	var ve *db.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, app.H{"error": ve.Msg})
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": "not found"})
	case errors.Is(err, db.ErrConflict), errors.Is(err, db.ErrAlreadySeeded):
		c.JSON(http.StatusConflict, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrInviteUsed):
		c.JSON(http.StatusGone, app.H{"error": "invalid or expired invite"})
	case errors.Is(err, blob.ErrNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": "not found"})
	default:
		log.Printf("[api] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, app.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
}

// 写操作之后清掉仪表盘缓存
func (s *Srv) invalidateStats(ctx context.Context) {
	if err := s.Cache.Invalidate(ctx, statsCacheKey); err != nil {
		log.Printf("[cache] invalidate: %v", err)
	}
}

// 统一设置业务会话 Cookie
func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.Cfg.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   int(maxAge / time.Second),
	})
}

// 登录成功：创建会话 + 触发登录快照
func (s *Srv) issueSession(c *gin.Context, u *models.User, method string) error {
	ctx := c.Request.Context()
	if err := s.Repo.TouchUserLogin(ctx, u.ID, c.ClientIP(), c.Request.UserAgent()); err != nil {
		log.Printf("[auth] touch login %s: %v", u.ID, err) // 不阻塞
	}
	id := uuid.NewString()
	if err := s.AppSess.Create(ctx, id, u.ID, u.Role, method); err != nil {
		return err
	}
	s.setAppCookie(c.Writer, id, s.AppSess.TTL())
	return nil
}

// WebAuthn: DB user -> waUser
type waUser struct {
	user  models.User
	creds []webauthn.Credential
}

func (u *waUser) WebAuthnID() []byte                         { id, _ := uuid.Parse(u.user.ID); return id[:] }
func (u *waUser) WebAuthnName() string                       { return u.user.Email }
func (u *waUser) WebAuthnDisplayName() string                { return u.user.FullName() }
func (u *waUser) WebAuthnCredentials() []webauthn.Credential { return u.creds }

func toWaCred(c models.Credential) webauthn.Credential {
	return webauthn.Credential{
		ID:              c.CredentialID,
		PublicKey:       c.PublicKey,
		AttestationType: c.AttestationType,
		Authenticator: webauthn.Authenticator{
			AAGUID:       c.AAGUID,
			SignCount:    c.SignCount,
			CloneWarning: c.CloneWarning,
		},
		Flags: webauthn.CredentialFlags{
			BackupEligible: c.BackupEligible,
			BackupState:    c.BackupState,
		},
	}
}

func (s *Srv) waUserFor(ctx context.Context, u *models.User) (*waUser, error) {
	cs, err := s.Repo.LoadUserCredentials(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	ws := make([]webauthn.Credential, 0, len(cs))
	for _, c := range cs {
		ws = append(ws, toWaCred(c))
	}
	return &waUser{user: *u, creds: ws}, nil
}

func (s *Srv) loadWAUserByID(ctx context.Context, id string) (*waUser, error) {
	u, err := s.Repo.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.waUserFor(ctx, u)
}

func (s *Srv) loadWAUserByEmail(ctx context.Context, email string) (*waUser, error) {
	u, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.waUserFor(ctx, u)
}
