package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mercadotrucho/backend/internal/app/model"
	"github.com/mercadotrucho/backend/internal/errors"
	"github.com/mercadotrucho/backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret"

func newAuthTestRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	m := NewAuthMiddleware(testSecret)

	router := gin.New()
	router.GET("/protected", m.Authenticate(), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		email, _ := GetUserEmail(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "email": email})
	})
	router.GET("/optional", m.OptionalAuthenticate(), func(c *gin.Context) {
		userID, authenticated := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "authenticated": authenticated})
	})
	router.GET("/admin-only", m.Authenticate(), m.RequireRole("admin"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "welcome"})
	})
	return router
}

func issueToken(t *testing.T, userID uint, email, role string, expiry time.Duration) string {
	tokens, err := util.GenerateTokenPair(userID, email, role, testSecret, expiry, 24*time.Hour)
	require.NoError(t, err)
	return tokens.AccessToken
}

func getWithAuth(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticate_ValidToken(t *testing.T) {
	router := newAuthTestRouter(t)
	token := issueToken(t, 42, "user@example.com", string(model.RoleUser), time.Hour)

	w := getWithAuth(router, "/protected", "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(42), resp["user_id"])
	assert.Equal(t, "user@example.com", resp["email"])
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	router := newAuthTestRouter(t)

	w := getWithAuth(router, "/protected", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.AuthUnauthorized, resp.Error)
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	router := newAuthTestRouter(t)

	for _, header := range []string{"NotBearer token", "Bearer", "token-without-scheme"} {
		w := getWithAuth(router, "/protected", header)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	router := newAuthTestRouter(t)

	w := getWithAuth(router, "/protected", "Bearer not-a-real-token")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.AuthTokenInvalid, resp.Error)
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	router := newAuthTestRouter(t)

	tokens, err := util.GenerateTokenPair(1, "a@b.c", "user", "some-other-secret", time.Hour, time.Hour)
	require.NoError(t, err)

	w := getWithAuth(router, "/protected", "Bearer "+tokens.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	router := newAuthTestRouter(t)
	token := issueToken(t, 1, "user@example.com", "user", -time.Minute)

	w := getWithAuth(router, "/protected", "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.AuthTokenExpired, resp.Error)
}

func TestOptionalAuthenticate(t *testing.T) {
	router := newAuthTestRouter(t)

	t.Run("guest without token", func(t *testing.T) {
		w := getWithAuth(router, "/optional", "")
		assert.Equal(t, http.StatusOK, w.Code)
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, false, resp["authenticated"])
	})

	t.Run("guest with invalid token", func(t *testing.T) {
		w := getWithAuth(router, "/optional", "Bearer garbage")
		assert.Equal(t, http.StatusOK, w.Code)
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, false, resp["authenticated"])
	})

	t.Run("authenticated with valid token", func(t *testing.T) {
		token := issueToken(t, 7, "user@example.com", "user", time.Hour)
		w := getWithAuth(router, "/optional", "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["authenticated"])
		assert.Equal(t, float64(7), resp["user_id"])
	})
}

func TestRequireRole(t *testing.T) {
	router := newAuthTestRouter(t)

	t.Run("matching role passes", func(t *testing.T) {
		token := issueToken(t, 1, "admin@example.com", string(model.RoleAdmin), time.Hour)
		w := getWithAuth(router, "/admin-only", "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("other role is forbidden", func(t *testing.T) {
		token := issueToken(t, 2, "user@example.com", string(model.RoleUser), time.Hour)
		w := getWithAuth(router, "/admin-only", "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, w.Code)

		var resp errors.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, errors.AuthzForbidden, resp.Error)
	})
}
