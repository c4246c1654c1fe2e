package routes

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
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/imam0321/bistro-boss-server/common/errors"
	"github.com/imam0321/bistro-boss-server/controllers"
	"github.com/imam0321/bistro-boss-server/models"
	"github.com/imam0321/bistro-boss-server/services"
	"github.com/imam0321/bistro-boss-server/testutil"
)

const (
	adminEmail = "admin@bistro.test"
	dinerEmail = "diner@bistro.test"
)

type stubProcessor struct {
	amounts []int64
}

func (s *stubProcessor) CreateCardIntent(_ context.Context, amount int64, _ string) (string, error) {
	s.amounts = append(s.amounts, amount)
	return "pi_test_secret", nil
}

type testServer struct {
	router    *gin.Engine
	store     *testutil.Store
	tokens    *services.TokenService
	processor *stubProcessor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := testutil.NewStore()
	store.SeedUser(models.User{Email: adminEmail, Role: models.RoleAdmin})
	store.SeedUser(models.User{Email: dinerEmail})

	tokens := services.NewTokenService("routes-secret", time.Hour)
	processor := &stubProcessor{}
	payments := services.NewPaymentService(store.Payments(), store.Carts(), processor, nil, nil, services.PaymentConfig{}, nil)

	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	RegisterRoutes(r, Handlers{
		Auth:     controllers.NewAuthController(tokens),
		Users:    controllers.NewUserController(store.Users()),
		Menu:     controllers.NewMenuController(store.Menu(), store.Reviews()),
		Carts:    controllers.NewCartController(store.Carts()),
		Payments: controllers.NewPaymentController(payments),
		Stats:    controllers.NewStatsController(services.NewStatsService(store.Users(), store.Menu(), store.Payments())),
	}, tokens, store.Users())

	return &testServer{router: r, store: store, tokens: tokens, processor: processor}
}

func (s *testServer) token(t *testing.T, email string) string {
	t.Helper()
	token, err := s.tokens.Issue(map[string]interface{}{"email": email})
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, target, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestRoot(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "boss is sitting", rec.Body.String())
}

func TestTokenGatedRoutesRejectMissingOrInvalidTokens(t *testing.T) {
	s := newTestServer(t)

	expired := services.NewTokenService("routes-secret", -time.Minute)
	expiredToken, err := expired.Issue(map[string]interface{}{"email": adminEmail})
	require.NoError(t, err)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/users"},
		{http.MethodGet, "/users/admin/" + adminEmail},
		{http.MethodPost, "/menu"},
		{http.MethodDelete, "/menu/" + primitive.NewObjectID().Hex()},
		{http.MethodGet, "/carts?email=" + adminEmail},
		{http.MethodPost, "/create-payment-intent"},
		{http.MethodPost, "/payments"},
		{http.MethodGet, "/payments/" + adminEmail},
		{http.MethodGet, "/admin-stats"},
		{http.MethodGet, "/order-stats"},
	}
	for _, rt := range routes {
		for name, token := range map[string]string{"missing": "", "invalid": "abc.def.ghi", "expired": expiredToken} {
			rec := s.do(rt.method, rt.path, token, map[string]interface{}{"name": "x", "price": 5})
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s (%s)", rt.method, rt.path, name)
			assert.JSONEq(t, `{"error":true,"message":"unauthorized access"}`, rec.Body.String())
		}
	}
	assert.Zero(t, s.store.Writes)
	assert.Empty(t, s.processor.amounts)
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	s := newTestServer(t)
	item := s.store.SeedMenuItem(models.MenuItem{Name: "Soup", Category: "soup", Price: 4})
	token := s.token(t, dinerEmail)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/users"},
		{http.MethodPost, "/menu"},
		{http.MethodDelete, "/menu/" + item.ID.Hex()},
		{http.MethodGet, "/admin-stats"},
		{http.MethodGet, "/order-stats"},
	}
	for _, rt := range routes {
		rec := s.do(rt.method, rt.path, token, models.MenuItem{Name: "Pie", Category: "dessert", Price: 3})
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", rt.method, rt.path)
		assert.JSONEq(t, `{"error":true,"message":"forbidden access"}`, rec.Body.String())
	}
	assert.Zero(t, s.store.Writes)
}

func TestAdminManagesMenu(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, adminEmail)

	rec := s.do(http.MethodPost, "/menu", token, models.MenuItem{Name: "Pie", Category: "dessert", Price: 3.5})
	require.Equal(t, http.StatusOK, rec.Code)
	var inserted models.InsertResult
	decode(t, rec, &inserted)
	assert.True(t, inserted.Acknowledged)

	var menu []models.MenuItem
	decode(t, s.do(http.MethodGet, "/menu", "", nil), &menu)
	require.Len(t, menu, 1)
	assert.Equal(t, inserted.InsertedID, menu[0].ID.Hex())

	rec = s.do(http.MethodDelete, "/menu/"+inserted.InsertedID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"acknowledged":true,"deletedCount":1}`, rec.Body.String())

	rec = s.do(http.MethodDelete, "/menu/"+inserted.InsertedID, token, nil)
	assert.JSONEq(t, `{"acknowledged":true,"deletedCount":0}`, rec.Body.String())

	rec = s.do(http.MethodDelete, "/menu/not-an-id", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateUserIsIdempotent(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/users", "", map[string]string{"name": "New", "email": "new@bistro.test", "role": "admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, s.store.UserCount())

	created, err := s.store.Users().FindByEmail(context.Background(), "new@bistro.test")
	require.NoError(t, err)
	assert.False(t, created.IsAdmin(), "role from the request body must be ignored")

	writes := s.store.Writes
	rec = s.do(http.MethodPost, "/users", "", map[string]string{"name": "Again", "email": "new@bistro.test"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"user already exists","insertedId":null}`, rec.Body.String())
	assert.Equal(t, 3, s.store.UserCount())
	assert.Equal(t, writes, s.store.Writes)

	rec = s.do(http.MethodPost, "/users", "", map[string]string{"name": "Nobody"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminStatus(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/users/admin/"+adminEmail, s.token(t, adminEmail), nil)
	assert.JSONEq(t, `{"admin":true}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/users/admin/"+dinerEmail, s.token(t, dinerEmail), nil)
	assert.JSONEq(t, `{"admin":false}`, rec.Body.String())

	// Asking about someone else never reveals their role, even when storage is down.
	s.store.Err = assert.AnError
	rec = s.do(http.MethodGet, "/users/admin/"+adminEmail, s.token(t, dinerEmail), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"admin":false}`, rec.Body.String())
}

func TestMakeAdmin(t *testing.T) {
	s := newTestServer(t)
	user := s.store.SeedUser(models.User{Email: "cook@bistro.test"})

	rec := s.do(http.MethodPatch, "/users/admin/"+user.ID.Hex(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"acknowledged":true,"matchedCount":1,"modifiedCount":1}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/users/admin/cook@bistro.test", s.token(t, "cook@bistro.test"), nil)
	assert.JSONEq(t, `{"admin":true}`, rec.Body.String())

	rec = s.do(http.MethodPatch, "/users/admin/"+primitive.NewObjectID().Hex(), "", nil)
	assert.JSONEq(t, `{"acknowledged":true,"matchedCount":0,"modifiedCount":0}`, rec.Body.String())
}

func TestCartListingIsOwnerOnly(t *testing.T) {
	s := newTestServer(t)
	s.store.SeedCartItem(models.CartItem{Name: "Soup", Email: adminEmail})
	token := s.token(t, dinerEmail)

	rec := s.do(http.MethodGet, "/carts?email="+adminEmail, token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Soup")

	rec = s.do(http.MethodGet, "/carts", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, dinerEmail)
	soup := s.store.SeedMenuItem(models.MenuItem{Name: "Soup", Category: "soup", Price: 4.5})
	salad := s.store.SeedMenuItem(models.MenuItem{Name: "Salad", Category: "salad", Price: 6})

	var cartIDs []primitive.ObjectID
	for _, item := range []models.MenuItem{soup, salad} {
		rec := s.do(http.MethodPost, "/carts", "", models.CartItem{MenuItemID: item.ID, Name: item.Name, Price: item.Price, Email: dinerEmail})
		require.Equal(t, http.StatusOK, rec.Code)
		var res models.InsertResult
		decode(t, rec, &res)
		id, err := primitive.ObjectIDFromHex(res.InsertedID)
		require.NoError(t, err)
		cartIDs = append(cartIDs, id)
	}

	var cart []models.CartItem
	decode(t, s.do(http.MethodGet, "/carts?email="+dinerEmail, token, nil), &cart)
	require.Len(t, cart, 2)

	rec := s.do(http.MethodPost, "/create-payment-intent", token, map[string]float64{"price": 19.99})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"clientSecret":"pi_test_secret"}`, rec.Body.String())
	assert.Equal(t, []int64{1999}, s.processor.amounts)

	rec = s.do(http.MethodPost, "/payments", token, map[string]interface{}{
		"transactionId": "pi_test",
		"price":         10.5,
		"cartItems":     cartIDs,
		"menuItems":     []primitive.ObjectID{soup.ID, salad.ID},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var receipt models.PaymentReceipt
	decode(t, rec, &receipt)
	assert.Equal(t, int64(2), receipt.DeleteResult.DeletedCount)
	assert.Equal(t, models.CartCleanupDone, receipt.CartCleanup)

	cart = nil
	decode(t, s.do(http.MethodGet, "/carts?email="+dinerEmail, token, nil), &cart)
	assert.Empty(t, cart)

	var payments []models.Payment
	decode(t, s.do(http.MethodGet, "/payments/"+dinerEmail, token, nil), &payments)
	require.Len(t, payments, 1)
	assert.Equal(t, dinerEmail, payments[0].Email)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/payments/"+adminEmail, token, nil).Code)

	adminToken := s.token(t, adminEmail)
	var stats []models.CategoryStat
	decode(t, s.do(http.MethodGet, "/order-stats", adminToken, nil), &stats)
	assert.Equal(t, []models.CategoryStat{
		{Category: "salad", Count: 1, Total: 6},
		{Category: "soup", Count: 1, Total: 4.5},
	}, stats)

	var admin models.AdminStats
	decode(t, s.do(http.MethodGet, "/admin-stats", adminToken, nil), &admin)
	assert.Equal(t, models.AdminStats{Users: 2, Products: 2, Orders: 1, Revenue: 10.5}, admin)
}

func TestRecordPaymentForAnotherEmailIsForbidden(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/payments", s.token(t, dinerEmail), map[string]interface{}{
		"email": adminEmail,
		"price": 1,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, s.store.Writes)
}

func TestRemoveFromCart(t *testing.T) {
	s := newTestServer(t)
	item := s.store.SeedCartItem(models.CartItem{Name: "Soup", Email: dinerEmail})

	rec := s.do(http.MethodDelete, "/carts/"+item.ID.Hex(), "", nil)
	assert.JSONEq(t, `{"acknowledged":true,"deletedCount":1}`, rec.Body.String())

	rec = s.do(http.MethodDelete, "/carts/xyz", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":true,"message":"invalid id"}`, rec.Body.String())
}

func TestStorageFailureIsGeneric(t *testing.T) {
	s := newTestServer(t)
	s.store.Err = assert.AnError

	rec := s.do(http.MethodGet, "/menu", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":true,"message":"Something went wrong!"}`, rec.Body.String())
}

func TestIssueToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/jwt", "", map[string]string{"email": dinerEmail})
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Token string `json:"token"`
	}
	decode(t, rec, &body)

	claims, err := s.tokens.Verify(body.Token)
	require.NoError(t, err)
	assert.Equal(t, dinerEmail, claims["email"])
}
