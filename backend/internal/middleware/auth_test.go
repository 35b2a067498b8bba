package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-manager/backend/internal/config"
	"todo-manager/backend/internal/services"
	"todo-manager/backend/internal/testutil"
)

func newAuthRouter(t *testing.T, want services.TokenType) (*gin.Engine, *services.TokenService) {
	t.Helper()

	db := testutil.NewTestDB(t)
	tokens := services.NewTokenService(config.JWTConfig{
		Secret:     "test-secret",
		Issuer:     "test",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}, nil)

	router := setupTestGin()
	router.Use(JWTAuth(tokens, db, want))
	router.GET("/me", func(c *gin.Context) {
		userID, err := GetUserID(c)
		require.NoError(t, err)
		claims, err := GetClaims(c)
		require.NoError(t, err)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "jti": claims.ID})
	})
	router.POST("/revoke", func(c *gin.Context) {
		claims, _ := GetClaims(c)
		require.NoError(t, tokens.Revoke(db, claims))
		c.Status(http.StatusOK)
	})
	return router, tokens
}

func doAuth(router *gin.Engine, method, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAuth_ValidToken(t *testing.T) {
	router, tokens := newAuthRouter(t, services.AccessToken)
	token, err := tokens.IssueAccessToken(7)
	require.NoError(t, err)

	w := doAuth(router, http.MethodGet, "/me", "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
}

func TestJWTAuth_Rejections(t *testing.T) {
	router, tokens := newAuthRouter(t, services.AccessToken)
	pair, err := tokens.IssueTokens(7)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", "authorization_required"},
		{"wrong scheme", "Token " + pair.AccessToken, "authorization_required"},
		{"garbage", "Bearer garbage", "invalid_token"},
		{"refresh token on access route", "Bearer " + pair.RefreshToken, "invalid_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doAuth(router, http.MethodGet, "/me", tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestJWTAuth_RevokedToken(t *testing.T) {
	router, tokens := newAuthRouter(t, services.AccessToken)
	token, err := tokens.IssueAccessToken(7)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, doAuth(router, http.MethodPost, "/revoke", "Bearer "+token).Code)

	w := doAuth(router, http.MethodGet, "/me", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token_revoked")
}

func TestGetUserID_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := GetUserID(c)
	assert.Error(t, err)

	c.Set(ContextUserID, "not-a-uint")
	_, err = GetUserID(c)
	assert.Error(t, err)
}
