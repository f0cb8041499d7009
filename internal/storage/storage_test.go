package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Redrow_Exposed/internal/config"
)

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		bucket string
		key    string
		want   string
	}{
		{"appends bucket", "https://cdn.example.com", "evidence", "1/2/a.jpg", "https://cdn.example.com/evidence/1/2/a.jpg"},
		{"base already names bucket", "https://cdn.example.com/storage/v1/object/public/evidence/", "evidence", "1/2/a.jpg", "https://cdn.example.com/storage/v1/object/public/evidence/1/2/a.jpg"},
		{"no bucket", "http://localhost:8080/files", "", "1/2/a b.jpg", "http://localhost:8080/files/1/2/a%20b.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicURL(tt.base, tt.bucket, tt.key))
		})
	}
}

func TestNewS3Store_Validation(t *testing.T) {
	_, err := NewS3Store(config.StorageConfig{AccessKey: "a", SecretKey: "b"})
	assert.Error(t, err)

	_, err = NewS3Store(config.StorageConfig{Bucket: "evidence"})
	assert.Error(t, err)

	s, err := NewS3Store(config.StorageConfig{
		Bucket: "evidence", Region: "eu-west-2", AccessKey: "a", SecretKey: "b",
		Endpoint: "minio.local:9000", UsePathStyle: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://minio.local:9000/evidence/1/2/x.png", s.PublicURL("1/2/x.png"))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore("http://localhost/files")

	require.NoError(t, m.Put(ctx, "1/10/a.jpg", "image/jpeg", strings.NewReader("aaa"), 3))
	require.NoError(t, m.Put(ctx, "1/10/b.jpg", "image/jpeg", strings.NewReader("bbb"), 3))
	require.NoError(t, m.Put(ctx, "1/11/c.jpg", "image/jpeg", strings.NewReader("ccc"), 3))

	keys, err := m.List(ctx, "1/10/")
	require.NoError(t, err)
	assert.Equal(t, []string{"1/10/a.jpg", "1/10/b.jpg"}, keys)

	rc, err := m.Get(ctx, "1/10/a.jpg")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "aaa", string(body))

	require.NoError(t, m.Delete(ctx, keys...))
	_, err = m.Get(ctx, "1/10/a.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	keys, _ = m.List(ctx, "1/")
	assert.Equal(t, []string{"1/11/c.jpg"}, keys)
}
