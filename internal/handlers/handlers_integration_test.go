package handlers_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory/internal/database"
	"inventory/internal/handlers"
	"inventory/internal/middleware"
	"inventory/internal/models"
	"inventory/internal/notify"
	"inventory/internal/repositories"
	"inventory/internal/services"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

type testEnv struct {
	app      *fiber.App
	auth     *services.AuthService
	products *services.ProductService
	changes  *notify.Registry
}

// setupApp builds the HTTP application on in-memory SQLite.
func setupApp(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.OpenMigrated(database.DriverSQLite, "file::memory:")
	require.NoError(t, err)

	changes := notify.NewRegistry()
	productService := services.NewProductService(repositories.NewGORMProductRepository(db), changes)
	restockService := services.NewRestockService(repositories.NewGORMRestockOrderRepository(db), productService, nil, "orders@supplier.test")
	authService := services.NewAuthService(repositories.NewGORMClerkRepository(db), "test_jwt_secret", time.Hour)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	authHandler := handlers.NewAuthHandler(authService)
	authHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	authHandler.RegisterProtectedRoutes(protected)
	handlers.NewProductHandler(productService, restockService).RegisterRoutes(protected)
	handlers.NewRestockHandler(restockService).RegisterRoutes(protected)

	return &testEnv{app: app, auth: authService, products: productService, changes: changes}
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "clerk",
		"email":    "clerk@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "clerk",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loginResp))
	require.NotEmpty(t, loginResp["token"])
	return loginResp["token"]
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)

	claims, err := env.auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "clerk", claims["username"])
	assert.Contains(t, claims, "clerk_id")

	resp := env.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[map[string]any](t, resp)
	assert.Equal(t, "clerk", me["username"])
	assert.EqualValues(t, 1, me["id"])

	resp = env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "clerk",
		"email":    "other@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "x",
		"email":    "not-an-email",
		"password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "Validation failed", body["message"])

	resp = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "clerk",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProductEndpointsWithoutAuth(t *testing.T) {
	env := setupApp(t)

	resp := env.do(t, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/products", "", map[string]any{"name": "Widget", "price": 1})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/products", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProductLifecycle(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)

	var changed []string
	env.changes.Register("content://inventory.app/inventory", true, func(address string) {
		changed = append(changed, address)
	})

	resp := env.do(t, http.MethodPost, "/api/v1/products", token, map[string]any{
		"name":     "Widget",
		"price":    "2.50",
		"quantity": 5,
		"image":    base64.StdEncoding.EncodeToString(pngHeader),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[models.Product](t, resp)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Widget", created.Name)
	assert.Equal(t, "2.5", created.Price.String())
	assert.Equal(t, 5, created.Quantity)
	assert.Equal(t, 0, created.Sold)
	assert.Equal(t, []string{fmt.Sprintf("content://inventory.app/inventory/%d", created.ID)}, changed)

	path := fmt.Sprintf("/api/v1/products/%d", created.ID)

	resp = env.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decode[models.Product](t, resp)
	assert.Equal(t, pngHeader, fetched.Image)

	resp = env.do(t, http.MethodGet, path+"/image", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp = env.do(t, http.MethodPatch, path, token, map[string]any{"quantity": 4, "sold": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[models.Product](t, resp)
	assert.Equal(t, 4, updated.Quantity)
	assert.Equal(t, 1, updated.Sold)
	assert.Equal(t, "Widget", updated.Name)

	resp = env.do(t, http.MethodPatch, path, token, json.RawMessage(`{"quantity":6.0}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 6, decode[models.Product](t, resp).Quantity)

	resp = env.do(t, http.MethodPatch, path, token, map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "name", body["field"])

	resp = env.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	deleted := decode[map[string]any](t, resp)
	assert.Contains(t, deleted["message"], "deleted successfully")

	resp = env.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateProductValidation(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)

	cases := []struct {
		body  map[string]any
		field string
	}{
		{map[string]any{"price": 1}, "name"},
		{map[string]any{"name": "Widget"}, "price"},
		{map[string]any{"name": "Widget", "price": 1, "quantity": -1}, "quantity"},
		{map[string]any{"name": "Widget", "price": -1}, "price"},
		{map[string]any{"name": "Widget", "price": 1, "colour": "red"}, "colour"},
		{map[string]any{"name": "Widget", "price": 1, "image": "***"}, "image"},
	}
	for _, tc := range cases {
		resp := env.do(t, http.MethodPost, "/api/v1/products", token, tc.body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %v", tc.body)
		body := decode[map[string]any](t, resp)
		assert.Equal(t, tc.field, body["field"], "body %v", tc.body)
	}

	products, err := env.products.List(models.Selection{}, models.Sort{})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestListFilterAndBulkDelete(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)

	for _, p := range []map[string]any{
		{"name": "Widget", "price": 2, "quantity": 5},
		{"name": "Gadget", "price": 3, "quantity": 0},
		{"name": "Sprocket", "price": 1, "quantity": 9},
	} {
		resp := env.do(t, http.MethodPost, "/api/v1/products", token, p)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := env.do(t, http.MethodGet, "/api/v1/products?sort=price&order=desc", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[[]models.Product](t, resp)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Gadget", "Widget", "Sprocket"}, []string{all[0].Name, all[1].Name, all[2].Name})

	resp = env.do(t, http.MethodGet, "/api/v1/products?name=dg", token, nil)
	filtered := decode[[]models.Product](t, resp)
	require.Len(t, filtered, 2)

	resp = env.do(t, http.MethodGet, "/api/v1/products?sort=colour", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/products?max_quantity=lots", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/v1/products?max_quantity=0", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[map[string]any](t, resp)
	assert.EqualValues(t, 1, result["deleted"])

	resp = env.do(t, http.MethodGet, "/api/v1/products", token, nil)
	assert.Len(t, decode[[]models.Product](t, resp), 2)
}

func TestGetType(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)

	resp := env.do(t, http.MethodGet, "/api/v1/types?address=content://inventory.app/inventory/3", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "vnd.inventory.item/inventory.app/inventory", body["type"])

	resp = env.do(t, http.MethodGet, "/api/v1/types?address=content://inventory.app/orders", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/products/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRestockWorkflow(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)

	resp := env.do(t, http.MethodPost, "/api/v1/products", token, map[string]any{"name": "Widget", "price": 2, "quantity": 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	product := decode[models.Product](t, resp)
	productPath := fmt.Sprintf("/api/v1/products/%d", product.ID)

	resp = env.do(t, http.MethodPost, productPath+"/restock", token, map[string]int{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/products/999/restock", token, map[string]int{"quantity": 3})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, productPath+"/restock", token, map[string]int{"quantity": 10})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	order := decode[models.RestockOrder](t, resp)
	assert.Equal(t, models.RestockPending, order.Status)
	assert.Equal(t, "Order for more Widget", order.Subject)
	assert.Contains(t, order.MailtoURL, "mailto:orders%40supplier.test?subject=Order%20for%20more%20Widget")

	orderPath := "/api/v1/restock-orders/" + order.ID

	resp = env.do(t, http.MethodGet, "/api/v1/restock-orders", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.RestockOrder](t, resp), 1)

	resp = env.do(t, http.MethodPatch, orderPath+"/status", token, map[string]string{"status": models.RestockReceived})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(t, http.MethodPatch, orderPath+"/status", token, map[string]string{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	for _, status := range []string{models.RestockSent, models.RestockReceived} {
		resp = env.do(t, http.MethodPatch, orderPath+"/status", token, map[string]string{"status": status})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, status, decode[models.RestockOrder](t, resp).Status)
	}

	resp = env.do(t, http.MethodGet, productPath, token, nil)
	assert.Equal(t, 11, decode[models.Product](t, resp).Quantity)

	resp = env.do(t, http.MethodGet, "/api/v1/restock-orders/does-not-exist", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMutationsAreAttributedToClerk(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(io.Discard)

	resp := env.do(t, http.MethodPost, "/api/v1/products", token, map[string]any{"name": "Widget", "price": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	product := decode[models.Product](t, resp)
	path := fmt.Sprintf("/api/v1/products/%d", product.ID)

	resp = env.do(t, http.MethodPatch, path, token, map[string]any{"sold": 1, "quantity": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	logged := buf.String()
	assert.Contains(t, logged, fmt.Sprintf("clerk clerk (id 1): added product %d", product.ID))
	assert.Contains(t, logged, fmt.Sprintf("clerk clerk (id 1): updated quantity, sold on product %d", product.ID))
	assert.Contains(t, logged, fmt.Sprintf("clerk clerk (id 1): deleted product %d", product.ID))
}
