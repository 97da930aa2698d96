package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
)

const secret = "test-secret"

func signed(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func validClaims(role string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":      7,
		"clinicId": 3,
		"role":     role,
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestID(), RequestLogger(zap.NewNop()))

	cfg := &config.Config{JWTSecret: secret}
	secured := r.Group("/", AuthMiddleware(cfg))
	secured.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, Auth(c))
	})
	secured.GET("/admin", RequireRoles(RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()

	t.Run("valid token", func(t *testing.T) {
		w := do(r, "/whoami", signed(t, validClaims(RoleDoctor), secret))
		require.Equal(t, http.StatusOK, w.Code)

		var got AuthContext
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, AuthContext{UserID: 7, ClinicID: 3, Role: RoleDoctor}, got)
		assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	})

	t.Run("missing header", func(t *testing.T) {
		w := do(r, "/whoami", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "missing_authorization_header")
	})

	t.Run("wrong key", func(t *testing.T) {
		w := do(r, "/whoami", signed(t, validClaims(RoleAdmin), "other"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_token")
	})

	t.Run("expired", func(t *testing.T) {
		claims := validClaims(RoleAdmin)
		claims["exp"] = time.Now().Add(-time.Minute).Unix()
		w := do(r, "/whoami", signed(t, claims, secret))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing clinic", func(t *testing.T) {
		claims := validClaims(RoleAdmin)
		delete(claims, "clinicId")
		w := do(r, "/whoami", signed(t, claims, secret))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_token_payload")
	})
}

func TestRequireRoles(t *testing.T) {
	r := newRouter()

	assert.Equal(t, http.StatusNoContent, do(r, "/admin", signed(t, validClaims(RoleAdmin), secret)).Code)

	w := do(r, "/admin", signed(t, validClaims(RoleStaff), secret))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "forbidden")
}

func TestRequestID_KeepsIncoming(t *testing.T) {
	r := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
}

func TestCORS_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware(nil))

	req := httptest.NewRequest(http.MethodOptions, "/anything", nil)
	req.Header.Set("Origin", "https://clinic.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://clinic.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), HeaderRequestID)
}

func TestCORS_AllowList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://clinic.example/"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := map[string]string{
		"https://Clinic.example": "https://Clinic.example",
		"https://evil.example":   "",
	}
	for origin, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, origin)
		assert.Equal(t, want, w.Header().Get("Access-Control-Allow-Origin"), origin)
		assert.Equal(t, "Origin", w.Header().Get("Vary"), origin)
	}
}
