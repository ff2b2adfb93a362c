package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

var ErrNotFound = errors.New("blob not found")

type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType"`
	LastModified time.Time `json:"lastModified"`
}

// Store 图书封面等二进制对象；key 直接对应对象名
type Store interface {
	Driver() string
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type Config struct {
	Driver    string // memory | s3
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
}

func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return NewMemory(), nil
	case "s3":
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown BLOB_DRIVER %q", cfg.Driver)
	}
}

// CoverKey covers/<bookID>/<name><ext>
func CoverKey(bookID, name, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join("covers", bookID, name+ext)
}

// CleanKey 拒绝空 key 和 ..
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" || key == "." {
		return "", fmt.Errorf("empty blob key")
	}
	return key, nil
}
