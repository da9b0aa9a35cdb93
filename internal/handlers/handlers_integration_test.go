package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"orderdesk/internal/app"
	"orderdesk/internal/config"
	"orderdesk/internal/database"
	"orderdesk/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "adminpass123"
)

// envelope is the response body shared by every endpoint.
type envelope struct {
	Status     string            `json:"status"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	Data       json.RawMessage   `json:"data"`
	Errors     map[string]string `json:"errors"`
	RetryAfter int               `json:"retry_after_seconds"`
}

type testServer struct {
	t   *testing.T
	app *app.App
}

// setupApp builds the application on an in-memory SQLite database with an
// admin account. Rate limits are high unless tune lowers them.
func setupApp(t *testing.T, tune func(cfg *config.Config)) *testServer {
	t.Helper()
	cfg := &config.Config{
		Env:                 "test",
		JWTSecret:           "test_jwt_secret",
		TokenTTL:            time.Hour,
		PageSize:            15,
		UserRateLimit:       1000,
		LoginRateLimit:      1000,
		LoginEmailRateLimit: 1000,
		AdminEmail:          adminEmail,
		AdminPassword:       adminPassword,
	}
	if tune != nil {
		tune(cfg)
	}

	a, err := app.Build(cfg, zap.NewNop(), database.OpenTest(t), nil)
	require.NoError(t, err)
	return &testServer{t: t, app: a}
}

func (s *testServer) do(method, path, token string, body any) (int, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Fiber.Test(req, -1) // -1 for no timeout
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(s.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (s *testServer) register(name, email string) string {
	s.t.Helper()
	status, env := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name":                  name,
		"email":                 email,
		"password":              "password123",
		"password_confirmation": "password123",
	})
	require.Equal(s.t, http.StatusCreated, status, env.Message)
	return decodeData[struct {
		Token string `json:"token"`
	}](s.t, env).Token
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	status, env := s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, status, env.Message)
	return decodeData[struct {
		Token string `json:"token"`
	}](s.t, env).Token
}

// seedProduct creates a category and a product through the API as admin.
func (s *testServer) seedProduct(adminToken, name string, price float64, quantity int) models.Product {
	s.t.Helper()
	status, env := s.do(http.MethodPost, "/category", adminToken, map[string]string{"name": name + " category"})
	require.Equal(s.t, http.StatusCreated, status, env.Message)
	category := decodeData[models.Category](s.t, env)

	status, env = s.do(http.MethodPost, "/product", adminToken, map[string]any{
		"name":        name,
		"price":       price,
		"quantity":    quantity,
		"category_id": category.ID,
	})
	require.Equal(s.t, http.StatusCreated, status, env.Message)
	return decodeData[models.Product](s.t, env)
}

func orderBody(pairs ...any) map[string]any {
	items := make([]map[string]any, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		items = append(items, map[string]any{"product_id": pairs[i], "quantity": pairs[i+1]})
	}
	return map[string]any{"orderItems": items}
}

func TestAuthRegisterLoginLogout(t *testing.T) {
	s := setupApp(t, nil)

	// Test Registration
	status, env := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name":                  "Test User",
		"email":                 "test@example.com",
		"password":              "password123",
		"password_confirmation": "password123",
	})
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, "User registered successfully", env.Message)
	registered := decodeData[struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}](t, env)
	assert.Equal(t, "test@example.com", registered.User.Email)
	assert.False(t, registered.User.IsAdmin)
	assert.NotEmpty(t, registered.Token)
	assert.NotContains(t, string(env.Data), "password")

	// Test Duplicate Registration
	status, env = s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name":                  "Test User",
		"email":                 "test@example.com",
		"password":              "password123",
		"password_confirmation": "password123",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "ALREADY_EXISTS", env.Code)

	// Test confirmation mismatch
	status, env = s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name":                  "Other User",
		"email":                 "other@example.com",
		"password":              "password123",
		"password_confirmation": "password124",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Code)
	assert.Contains(t, env.Errors, "password_confirmation")

	// Test Login
	token := s.login("test@example.com", "password123")
	status, _ = s.do(http.MethodGet, "/order", token, nil)
	assert.Equal(t, http.StatusOK, status)

	// Test Logout
	status, env = s.do(http.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out successfully", env.Message)

	status, env = s.do(http.MethodGet, "/order", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Code)

	status, _ = s.do(http.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = s.do(http.MethodPost, "/auth/logout", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLoginRateLimitPerEmail(t *testing.T) {
	s := setupApp(t, func(cfg *config.Config) {
		cfg.LoginRateLimit = 10
		cfg.LoginEmailRateLimit = 3
	})
	s.register("Victim", "victim@example.com")

	wrong := map[string]string{"email": "victim@example.com", "password": "wrongpassword"}
	for i := 0; i < 3; i++ {
		status, env := s.do(http.MethodPost, "/auth/login", "", wrong)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "INVALID_CREDENTIALS", env.Code)
	}

	status, env := s.do(http.MethodPost, "/auth/login", "", wrong)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "RATE_LIMITED", env.Code)
	assert.Greater(t, env.RetryAfter, 0)

	// Other emails keep their own budget.
	status, _ = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "someone@example.com", "password": "whatever"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUserRateLimit(t *testing.T) {
	s := setupApp(t, func(cfg *config.Config) {
		cfg.UserRateLimit = 2
	})
	token := s.register("Busy", "busy@example.com")

	for i := 0; i < 2; i++ {
		status, _ := s.do(http.MethodGet, "/order", token, nil)
		assert.Equal(t, http.StatusOK, status)
	}
	status, env := s.do(http.MethodGet, "/order", token, nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Greater(t, env.RetryAfter, 0)

	// Another user is not affected.
	other := s.register("Calm", "calm@example.com")
	status, _ = s.do(http.MethodGet, "/order", other, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestCatalogEndpoints(t *testing.T) {
	s := setupApp(t, nil)
	adminToken := s.login(adminEmail, adminPassword)
	customerToken := s.register("Customer", "customer@example.com")

	// Writes need a token and the admin role
	status, _ := s.do(http.MethodPost, "/category", "", map[string]string{"name": "Tools"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, env := s.do(http.MethodPost, "/category", customerToken, map[string]string{"name": "Tools"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Code)

	_, env = s.do(http.MethodGet, "/category", "", nil)
	assert.Empty(t, decodeData[[]models.Category](t, env))

	widget := s.seedProduct(adminToken, "Widget", 10, 5)
	assert.NotEmpty(t, widget.ID)
	require.NotNil(t, widget.Category)

	// Validation
	status, env = s.do(http.MethodPost, "/product", adminToken, map[string]any{
		"name":        "Broken",
		"price":       0,
		"category_id": widget.CategoryID,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Errors, "price")

	status, env = s.do(http.MethodPost, "/product", adminToken, map[string]any{
		"name":        "Widget",
		"price":       1,
		"category_id": widget.CategoryID,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ALREADY_EXISTS", env.Code)

	// Customer cannot change products
	status, _ = s.do(http.MethodPatch, "/product/"+widget.ID, customerToken, map[string]any{"price": 1})
	assert.Equal(t, http.StatusForbidden, status)

	// Public reads
	status, env = s.do(http.MethodGet, "/product?page=1", "", nil)
	assert.Equal(t, http.StatusOK, status)
	page := decodeData[models.Page[models.Product]](t, env)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 15, page.PerPage)
	require.Len(t, page.Data, 1)
	assert.True(t, page.Data[0].Price.Equal(decimal.NewFromInt(10)))

	// Partial update
	status, env = s.do(http.MethodPatch, "/product/"+widget.ID, adminToken, map[string]any{"price": "12.50"})
	assert.Equal(t, http.StatusOK, status)
	updated := decodeData[models.Product](t, env)
	assert.Equal(t, "12.5", updated.Price.String())
	assert.Equal(t, 5, updated.Quantity)

	// Category in use cannot be deleted
	status, env = s.do(http.MethodDelete, "/category/"+widget.CategoryID, adminToken, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CATEGORY_IN_USE", env.Code)

	// Soft delete and restore
	status, _ = s.do(http.MethodDelete, "/product/"+widget.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do(http.MethodGet, "/product/"+widget.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.do(http.MethodPost, "/product/"+widget.ID+"/restore", adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do(http.MethodGet, "/product/"+widget.ID, "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestWidgetOrderExample(t *testing.T) {
	s := setupApp(t, nil)
	adminToken := s.login(adminEmail, adminPassword)
	customerToken := s.register("Customer", "customer@example.com")
	widget := s.seedProduct(adminToken, "Widget", 10, 5)

	status, env := s.do(http.MethodPost, "/order", customerToken, orderBody(widget.ID, 3))
	require.Equal(t, http.StatusCreated, status, env.Message)
	order := decodeData[models.Order](t, env)
	assert.True(t, order.FinalPrice.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, models.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].PriceOnMoment.Equal(decimal.NewFromInt(10)))
	assert.Contains(t, string(env.Data), `"final_price":"30.00"`)

	status, env = s.do(http.MethodPost, "/order", customerToken, orderBody(widget.ID, 10))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", env.Code)
	assert.Contains(t, env.Message, "Widget")

	_, env = s.do(http.MethodGet, "/product/"+widget.ID, "", nil)
	assert.Equal(t, 5, decodeData[models.Product](t, env).Quantity)

	_, env = s.do(http.MethodGet, "/order", customerToken, nil)
	assert.Equal(t, int64(1), decodeData[models.Page[models.Order]](t, env).Total)
}

func TestOrderAccessAndStatus(t *testing.T) {
	s := setupApp(t, nil)
	adminToken := s.login(adminEmail, adminPassword)
	alice := s.register("Alice", "alice@example.com")
	bob := s.register("Bob", "bob@example.com")
	gadget := s.seedProduct(adminToken, "Gadget", 2.5, 100)

	_, env := s.do(http.MethodPost, "/order", alice, orderBody(gadget.ID, 2))
	aliceOrder := decodeData[models.Order](t, env)
	status, _ := s.do(http.MethodPost, "/order", bob, orderBody(gadget.ID, 1))
	require.Equal(t, http.StatusCreated, status)

	// Own scope never shows another user's orders
	_, env = s.do(http.MethodGet, "/order", bob, nil)
	bobsPage := decodeData[models.Page[models.Order]](t, env)
	require.Len(t, bobsPage.Data, 1)
	assert.NotEqual(t, aliceOrder.ID, bobsPage.Data[0].ID)

	status, _ = s.do(http.MethodGet, "/order/"+aliceOrder.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = s.do(http.MethodGet, "/order?scope=all", alice, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, env = s.do(http.MethodGet, "/order?scope=all", adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(2), decodeData[models.Page[models.Order]](t, env).Total)
	status, _ = s.do(http.MethodGet, "/order/does-not-exist", alice, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// The owner comes from the token only
	body := orderBody(gadget.ID, 1)
	body["user_id"] = "someone-else"
	status, env = s.do(http.MethodPost, "/order", alice, body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Errors, "user_id")

	status, env = s.do(http.MethodPost, "/order", alice, orderBody(gadget.ID, 0))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Errors, "orderItems[0].quantity")

	// Update while pending
	status, env = s.do(http.MethodPatch, "/order/"+aliceOrder.ID, alice, orderBody(gadget.ID, 4))
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, decodeData[models.Order](t, env).FinalPrice.Equal(decimal.NewFromInt(10)))

	// Only admins change status
	status, _ = s.do(http.MethodPatch, "/order/"+aliceOrder.ID+"/status", alice, map[string]int{"status": 1})
	assert.Equal(t, http.StatusForbidden, status)
	status, env = s.do(http.MethodPatch, "/order/"+aliceOrder.ID+"/status", adminToken, map[string]int{"status": 1})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.OrderStatusLocked, decodeData[models.Order](t, env).Status)

	// Locked orders cannot be modified
	status, env = s.do(http.MethodPatch, "/order/"+aliceOrder.ID, alice, orderBody(gadget.ID, 1))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ORDER_NOT_MODIFIABLE", env.Code)

	status, _ = s.do(http.MethodDelete, "/order/"+aliceOrder.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = s.do(http.MethodDelete, "/order/"+aliceOrder.ID, alice, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	s := setupApp(t, nil)

	status, env := s.do(http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "NOT_FOUND", env.Code)
}
