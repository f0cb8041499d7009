package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Redrow_Exposed/internal/config"
	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/pkg"
	"Redrow_Exposed/internal/repository/redis"
)

func init() {
	gin.SetMode(gin.TestMode)
	SetupValidator()
}

type memSessions map[uint64]string

func (m memSessions) GetUserToken(_ context.Context, id uint64) (string, error) {
	tok, ok := m[id]
	if !ok {
		return "", redis.ErrTokenNotFound
	}
	return tok, nil
}

func (m memSessions) ExtendUserToken(context.Context, uint64) error { return nil }

func issuer() *pkg.TokenIssuer {
	return pkg.NewTokenIssuer(config.JWTConfig{
		AccessSecret:  "middleware-access-secret-0123456789",
		RefreshSecret: "middleware-refresh-secret-0123456789",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuth(t *testing.T) {
	iss := issuer()
	sessions := memSessions{}
	auth := NewAuth(iss, sessions)

	userPair, err := iss.GeneratePair(1, string(model.RoleUser))
	require.NoError(t, err)
	adminPair, err := iss.GeneratePair(2, string(model.RoleAdmin))
	require.NoError(t, err)
	sessions[1] = userPair.AccessToken
	sessions[2] = adminPair.AccessToken

	r := gin.New()
	r.GET("/me", auth.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUserID(c), "role": CurrentRole(c)})
	})
	r.GET("/admin", auth.RequireAuth(), RequireRole(model.RoleModerator), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "ok"})
	})
	r.GET("/public", auth.OptionalAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentViewer(c).UserID})
	})

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "").Code)
	})
	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "abc").Code)
	})
	t.Run("valid token", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/me", userPair.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":1,"role":"user"}`, rec.Body.String())
	})
	t.Run("token replaced by newer login", func(t *testing.T) {
		newer, err := iss.GeneratePair(1, string(model.RoleUser))
		require.NoError(t, err)
		sessions[1] = newer.AccessToken + "x"
		defer func() { sessions[1] = userPair.AccessToken }()
		assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", userPair.AccessToken).Code)
	})
	t.Run("role gating", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", userPair.AccessToken).Code)
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/admin", adminPair.AccessToken).Code)
	})
	t.Run("optional auth", func(t *testing.T) {
		assert.JSONEq(t, `{"id":0}`, do(r, http.MethodGet, "/public", "").Body.String())
		assert.JSONEq(t, `{"id":0}`, do(r, http.MethodGet, "/public", "bad").Body.String())
		assert.JSONEq(t, `{"id":1}`, do(r, http.MethodGet, "/public", userPair.AccessToken).Body.String())
	})
}

func TestRequireRole_WithoutAuth(t *testing.T) {
	r := gin.New()
	r.GET("/admin", RequireRole(model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin", "").Code)
}

func TestHandleValidationError(t *testing.T) {
	type req struct {
		Email string `json:"email" binding:"required,email"`
		Name  string `json:"full_name" binding:"max=3"`
	}
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var in req
		if err := c.ShouldBindJSON(&in); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"email":"nope","full_name":"Joanna"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Msg     string             `json:"msg"`
		Details []ValidationDetail `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid params", body.Msg)
	assert.ElementsMatch(t, []ValidationDetail{
		{Field: "email", Message: "Invalid email format"},
		{Field: "full_name", Message: "Must be at most 3 characters"},
	}, body.Details)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://redrowexposed.co.uk"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://redrowexposed.co.uk")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://redrowexposed.co.uk", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMaxBodySize(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodySize(4))
	r.POST("/", func(c *gin.Context) {
		var v map[string]any
		if err := c.ShouldBindJSON(&v); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"a":"long value"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
