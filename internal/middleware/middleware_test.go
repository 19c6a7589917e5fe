package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/peer-match-api/internal/models"
	"github.com/noah-isme/peer-match-api/internal/service"
	appErrors "github.com/noah-isme/peer-match-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		if _, ok := c.Get(ContextUserKey); ok {
			c.String(http.StatusOK, "authenticated")
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	r.GET("/target", handlers...)
	return r
}

func call(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/target", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTRequiresValidBearer(t *testing.T) {
	validator := stubValidator{claims: &models.JWTClaims{UserID: "ops", Role: models.RoleAdmin}}
	r := newRouter(JWT(validator))

	assert.Equal(t, http.StatusUnauthorized, call(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Bearer bad").Code)

	rec := call(r, "bearer good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "authenticated", rec.Body.String())
}

func TestAuthenticateWithoutEnforcement(t *testing.T) {
	validator := stubValidator{claims: &models.JWTClaims{UserID: "p1", Role: models.RolePeer, PeerID: "p1"}}
	r := newRouter(Authenticate(validator, false))

	assert.Equal(t, "anonymous", call(r, "").Body.String())
	assert.Equal(t, "anonymous", call(r, "Bearer bad").Body.String())
	assert.Equal(t, "authenticated", call(r, "Bearer good").Body.String())
}

func TestRequireRoles(t *testing.T) {
	admin := stubValidator{claims: &models.JWTClaims{UserID: "ops", Role: models.RoleAdmin}}
	peer := stubValidator{claims: &models.JWTClaims{UserID: "p1", Role: models.RolePeer, PeerID: "p1"}}

	assert.Equal(t, http.StatusOK, call(newRouter(JWT(admin), RequireRoles(true, models.RoleAdmin)), "Bearer good").Code)
	assert.Equal(t, http.StatusForbidden, call(newRouter(JWT(peer), RequireRoles(true, models.RoleAdmin)), "Bearer good").Code)
	assert.Equal(t, http.StatusUnauthorized, call(newRouter(RequireRoles(true, models.RoleAdmin)), "").Code)
	assert.Equal(t, http.StatusOK, call(newRouter(RequireRoles(false, models.RoleAdmin)), "").Code)
}

func TestMetricsMiddlewareRecordsRoute(t *testing.T) {
	metrics := service.NewMetricsService()
	r := newRouter(Metrics(metrics))

	call(r, "")

	families, err := metrics.Registry().Gather()
	assert.NoError(t, err)
	found := false
	for _, family := range families {
		if family.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "path" && label.GetValue() == "/target" {
					found = true
				}
			}
		}
	}
	assert.True(t, found)
}

func TestMetricsMiddlewareSkipsHealthRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	families, err := metrics.Registry().Gather()
	assert.NoError(t, err)
	for _, family := range families {
		if family.GetName() == "http_requests_total" {
			assert.Empty(t, family.GetMetric())
		}
	}
}

func TestMetricsMiddlewareNilService(t *testing.T) {
	r := newRouter(Metrics(nil))
	assert.Equal(t, http.StatusOK, call(r, "").Code)
}
