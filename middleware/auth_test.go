package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/imam0321/bistro-boss-server/common/errors"
	"github.com/imam0321/bistro-boss-server/models"
	"github.com/imam0321/bistro-boss-server/services"
	"github.com/imam0321/bistro-boss-server/testutil"
)

const testSecret = "middleware-secret"

func issue(t *testing.T, email string) string {
	t.Helper()
	token, err := services.NewTokenService(testSecret, time.Hour).Issue(map[string]interface{}{"email": email})
	require.NoError(t, err)
	return token
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	return r
}

func do(r http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireToken(t *testing.T) {
	verifier := services.NewTokenService(testSecret, time.Hour)
	r := newRouter()
	r.GET("/me", RequireToken(verifier), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": GetEmail(c)})
	})

	t.Run("Success - claims reach the handler", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/me", issue(t, "diner@bistro.test"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"email":"diner@bistro.test"}`, rec.Body.String())
	})

	t.Run("Failure - missing header", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":true,"message":"unauthorized access"}`, rec.Body.String())
	})

	t.Run("Failure - garbage token", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/me", "garbage")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":true,"message":"unauthorized access"}`, rec.Body.String())
	})

	t.Run("Failure - bearer without token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer ")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Scheme is case-insensitive", func(t *testing.T) {
		token := issue(t, "diner@bistro.test")
		cases := []struct {
			header string
			want   int
		}{
			{"bearer " + token, http.StatusOK},
			{"BEARER  " + token, http.StatusOK},
			{"Basic " + token, http.StatusUnauthorized},
			{token, http.StatusUnauthorized},
			{"Bearer a b", http.StatusUnauthorized},
		}
		for _, tc := range cases {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", tc.header)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code, "header %q", tc.header)
		}
	})
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("bEaReR abc.def.ghi")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	_, ok = bearerToken("Bearer")
	assert.False(t, ok)
}

func TestRequireAdmin(t *testing.T) {
	store := testutil.NewStore()
	store.SeedUser(models.User{Email: "admin@bistro.test", Role: models.RoleAdmin})
	store.SeedUser(models.User{Email: "diner@bistro.test"})

	verifier := services.NewTokenService(testSecret, time.Hour)
	reached := false
	r := newRouter()
	r.GET("/admin", RequireToken(verifier), RequireAdmin(store.Users()), func(c *gin.Context) {
		reached = true
		c.Status(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"admin", issue(t, "admin@bistro.test"), http.StatusNoContent},
		{"customer", issue(t, "diner@bistro.test"), http.StatusForbidden},
		{"unknown user", issue(t, "ghost@bistro.test"), http.StatusForbidden},
		{"no token", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reached = false
			rec := do(r, http.MethodGet, "/admin", tc.token)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.status == http.StatusNoContent, reached)
		})
	}

	t.Run("storage failure is internal", func(t *testing.T) {
		store.Err = errors.New("no reachable servers")
		defer func() { store.Err = nil }()

		rec := do(r, http.MethodGet, "/admin", issue(t, "admin@bistro.test"))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":true,"message":"Something went wrong!"}`, rec.Body.String())
	})
}

func TestRequireOwner(t *testing.T) {
	verifier := services.NewTokenService(testSecret, time.Hour)
	r := newRouter()
	r.GET("/carts", RequireToken(verifier), RequireOwner(FromQuery("email")), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/payments/:email", RequireToken(verifier), RequireOwner(FromParam("email")), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	token := issue(t, "diner@bistro.test")

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/carts?email=diner@bistro.test", token).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/carts?email=other@bistro.test", token).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/carts", token).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/payments/diner@bistro.test", token).Code)

	rec := do(r, http.MethodGet, "/payments/other@bistro.test", token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":true,"message":"forbidden access"}`, rec.Body.String())
}

func TestGetClaimsOutsideGatedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetClaims(c))
	assert.Empty(t, GetEmail(c))
}
