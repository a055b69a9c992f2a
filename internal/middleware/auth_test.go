package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTValidator(t *testing.T) {
	v := NewJWTValidator(testSecret)
	id := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()

	claims, err := v.ValidateToken(sign(t, testSecret, jwt.MapClaims{"user_id": id.String(), "username": "sam", "exp": exp}))
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "sam", claims.Username)

	claims, err = v.ValidateToken(sign(t, testSecret, jwt.MapClaims{"sub": id.String(), "exp": exp}))
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)

	_, err = v.ValidateToken(sign(t, "other-secret", jwt.MapClaims{"user_id": id.String(), "exp": exp}))
	assert.Error(t, err)

	_, err = v.ValidateToken(sign(t, testSecret, jwt.MapClaims{"user_id": id.String(), "exp": time.Now().Add(-time.Minute).Unix()}))
	assert.Error(t, err)

	_, err = v.ValidateToken(sign(t, testSecret, jwt.MapClaims{"sub": "not-a-uuid", "exp": exp}))
	assert.Error(t, err)

	_, err = NewJWTValidator("").ValidateToken("anything")
	assert.Error(t, err)
}

func authRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/", mw, func(c *gin.Context) {
		id, ok := UserID(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, id.String())
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	id := uuid.New()
	token := sign(t, testSecret, jwt.MapClaims{"user_id": id.String(), "exp": time.Now().Add(time.Hour).Unix()})
	r := authRouter(AuthMiddleware(NewJWTValidator(testSecret)))

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, id.String()},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, ""},
		{"bad token", "Bearer garbage", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rr.Body.String())
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	id := uuid.New()
	token := sign(t, testSecret, jwt.MapClaims{"user_id": id.String(), "exp": time.Now().Add(time.Hour).Unix()})
	r := authRouter(OptionalAuth(NewJWTValidator(testSecret)))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "anonymous", rr.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, id.String(), rr.Body.String())

	expired := sign(t, testSecret, jwt.MapClaims{"user_id": id.String(), "exp": time.Now().Add(-time.Hour).Unix()})
	for _, header := range []string{"Bearer garbage", "Bearer " + expired, "Token " + token} {
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rr = httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code, header)
		assert.Equal(t, "anonymous", rr.Body.String(), header)
	}
}
