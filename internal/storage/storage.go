// Package storage 证据照片/视频的对象存储
package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectStore 对象存储抽象，S3Store 与 MemoryStore 均实现
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, keys ...string) error
	PublicURL(key string) string
}

// publicURL base 已包含 bucket 时不重复拼接
func publicURL(base, bucket, key string) string {
	base = strings.TrimRight(base, "/")
	var (
		u   string
		err error
	)
	if bucket == "" || strings.HasSuffix(base, "/"+bucket) {
		u, err = url.JoinPath(base, strings.Split(key, "/")...)
	} else {
		u, err = url.JoinPath(base, append([]string{bucket}, strings.Split(key, "/")...)...)
	}
	if err != nil {
		return base + "/" + key
	}
	return u
}
