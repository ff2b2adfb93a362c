package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoSession 会话不存在或已过期
var ErrNoSession = errors.New("session not found")

const (
	sessionPrefix     = "lib:sess:"
	userSessionPrefix = "lib:user_sessions:"
)

// AppSession 登录成功后的业务会话，按 id 存为 JSON
type AppSession struct {
	UserID    string `json:"uid"`
	Role      string `json:"role"`
	Method    string `json:"method"` // password | passkey
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// AppSessionStore 另维护 user → 会话 id 集合，用于一次性撤销
type AppSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAppSessionStore(rdb *redis.Client, ttl time.Duration) *AppSessionStore {
	return &AppSessionStore{rdb: rdb, ttl: ttl}
}

func (s *AppSessionStore) TTL() time.Duration { return s.ttl }

func (s *AppSessionStore) Create(ctx context.Context, id, userID, role, method string) error {
	issued := time.Now()
	payload, err := json.Marshal(AppSession{
		UserID:    userID,
		Role:      role,
		Method:    method,
		IssuedAt:  issued.Unix(),
		ExpiresAt: issued.Add(s.ttl).Unix(),
	})
	if err != nil {
		return err
	}
	// 集合的过期时间跟随最新的会话
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, sessionPrefix+id, payload, s.ttl)
		p.SAdd(ctx, userSessionPrefix+userID, id)
		p.Expire(ctx, userSessionPrefix+userID, s.ttl)
		return nil
	})
	return err
}

func (s *AppSessionStore) Get(ctx context.Context, id string) (*AppSession, error) {
	raw, err := s.rdb.Get(ctx, sessionPrefix+id).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrNoSession
	case err != nil:
		return nil, err
	}
	as := new(AppSession)
	if err := json.Unmarshal(raw, as); err != nil {
		return nil, err
	}
	return as, nil
}

// Delete 登出单个会话；读不到会话时只删 key
func (s *AppSessionStore) Delete(ctx context.Context, id string) error {
	as, _ := s.Get(ctx, id)
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, sessionPrefix+id)
		if as != nil {
			p.SRem(ctx, userSessionPrefix+as.UserID, id)
		}
		return nil
	})
	return err
}

// RevokeAllForUser 删除用户、改角色或改密码时调用
func (s *AppSessionStore) RevokeAllForUser(ctx context.Context, userID string) error {
	set := userSessionPrefix + userID
	ids, err := s.rdb.SMembers(ctx, set).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionPrefix+id)
	}
	return s.rdb.Del(ctx, append(keys, set)...).Err()
}
