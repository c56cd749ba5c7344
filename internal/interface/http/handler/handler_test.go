package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/pet-shop-checkout/internal/domain/entity"
	"github.com/wichananm65/pet-shop-checkout/internal/infrastructure/cache"
	"github.com/wichananm65/pet-shop-checkout/internal/infrastructure/database/inmemory"
	"github.com/wichananm65/pet-shop-checkout/internal/interface/presenter"
	"github.com/wichananm65/pet-shop-checkout/internal/pricing"
	"github.com/wichananm65/pet-shop-checkout/internal/usecase"
)

const validCard = "4111 1111 1111 1111"

func makeApp(t *testing.T) (*fiber.App, *inmemory.Store) {
	t.Helper()
	store := inmemory.NewStore([]entity.Product{
		{ID: 1, Name: "Cat Sweater", Price: decimal.NewFromInt(100), Category: "Clothes and accessories", Stock: 10},
		{ID: 2, Name: "Pet Camera", Price: decimal.NewFromInt(200), Category: "Electronics", Stock: 10},
		{ID: 3, Name: "Smart Feeder", Price: decimal.NewFromInt(250), Category: "Electronics", Stock: 3},
	})
	log := zerolog.Nop()
	engine := pricing.NewEngine(pricing.DefaultConfig())
	carts := usecase.NewCartService(store, engine, cache.Noop{}, log)
	checkout := usecase.NewCheckoutService(store, engine, carts, log)

	app := fiber.New()
	NewProductHandler(usecase.NewProductService(store.Products()), presenter.NewProductPresenter(), log).RegisterPublicRoutes(app)
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			id, err := strconv.Atoi(v)
			if err == nil {
				claims := jwt.MapClaims{"user_id": id}
				tok := &jwt.Token{Claims: claims}
				c.Locals("user", tok)
			}
		}
		return c.Next()
	})
	NewCartHandler(carts, checkout, presenter.NewCartPresenter(), presenter.NewOrderPresenter(), log).RegisterProtectedRoutes(app)
	NewOrderHandler(usecase.NewOrderService(store.Orders()), presenter.NewOrderPresenter(), log).RegisterProtectedRoutes(app)
	return app, store
}

func call(t *testing.T, app *fiber.App, method, path, userID, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	b, _ := io.ReadAll(res.Body)
	out := map[string]any{}
	if len(b) > 0 && b[0] == '{' {
		if err := json.Unmarshal(b, &out); err != nil {
			t.Fatalf("invalid json from %s %s: %s", method, path, b)
		}
	}
	return res.StatusCode, out
}

func TestCartRoutes_Registered(t *testing.T) {
	app, _ := makeApp(t)
	routes := map[string]bool{}
	for _, grp := range app.Stack() {
		for _, r := range grp {
			routes[r.Method+" "+r.Path] = true
		}
	}
	for _, want := range []string{
		"GET /api/v1/cart",
		"POST /api/v1/cart",
		"POST /api/v1/cart/cancel",
		"POST /api/v1/cart/finalize",
		"PATCH /api/v1/cart/:productId",
		"DELETE /api/v1/cart/:productId",
		"GET /api/v1/orders",
		"GET /api/v1/orders/:id",
		"GET /api/v1/products",
		"GET /api/v1/product/:id",
	} {
		if !routes[want] {
			t.Fatalf("expected route %q to be registered", want)
		}
	}
}

func TestCartRoutes_RequireUser(t *testing.T) {
	app, _ := makeApp(t)
	for _, rt := range [][2]string{
		{"GET", "/api/v1/cart"},
		{"POST", "/api/v1/cart/cancel"},
		{"DELETE", "/api/v1/cart/1"},
		{"GET", "/api/v1/orders"},
	} {
		status, _ := call(t, app, rt[0], rt[1], "", "")
		if status != fiber.StatusUnauthorized {
			t.Fatalf("expected 401 for unauthenticated %s %s, got %d", rt[0], rt[1], status)
		}
	}
}

func TestCartRoutes_AddViewUpdateRemove(t *testing.T) {
	app, _ := makeApp(t)

	status, body := call(t, app, "POST", "/api/v1/cart", "42", `{"productId":1,"quantity":5}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 for add, got %d %v", status, body)
	}
	if body["grandTotal"] != "655.00" || body["taxTotal"] != "105.00" || body["shippingFee"] != "50.00" {
		t.Fatalf("unexpected totals %v", body)
	}

	// quantity defaults to one
	status, body = call(t, app, "POST", "/api/v1/cart", "42", `{"productId":2}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 for add without quantity, got %d", status)
	}
	lines := body["lines"].([]any)
	if len(lines) != 2 || lines[1].(map[string]any)["quantity"] != float64(1) {
		t.Fatalf("unexpected lines %v", lines)
	}

	status, body = call(t, app, "PATCH", "/api/v1/cart/2", "42", `{"quantity":3}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 for patch, got %d %v", status, body)
	}
	if body["subtotal"] != "1100.00" || body["shippingFee"] != "0.00" {
		t.Fatalf("unexpected totals after patch %v", body)
	}

	status, body = call(t, app, "DELETE", "/api/v1/cart/2", "42", "")
	if status != fiber.StatusOK || len(body["lines"].([]any)) != 1 {
		t.Fatalf("expected one line after delete, got %d %v", status, body)
	}

	status, body = call(t, app, "GET", "/api/v1/cart", "42", "")
	if status != fiber.StatusOK || body["grandTotal"] != "655.00" {
		t.Fatalf("unexpected view %d %v", status, body)
	}
}

func TestCartRoutes_ErrorMapping(t *testing.T) {
	app, _ := makeApp(t)

	cases := []struct {
		method, path, body string
		status             int
		code               string
	}{
		{"POST", "/api/v1/cart", `{"productId":1,"quantity":0}`, fiber.StatusBadRequest, "INVALID_INPUT"},
		{"POST", "/api/v1/cart", `{"quantity":1}`, fiber.StatusBadRequest, "INVALID_INPUT"},
		{"POST", "/api/v1/cart", `{"productId":99,"quantity":1}`, fiber.StatusNotFound, "NOT_FOUND"},
		{"POST", "/api/v1/cart", `{"productId":3,"quantity":4}`, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
		{"DELETE", "/api/v1/cart/1", "", fiber.StatusConflict, "INVALID_STATE"},
		{"DELETE", "/api/v1/cart/abc", "", fiber.StatusBadRequest, "INVALID_INPUT"},
		{"PATCH", "/api/v1/cart/1", `{}`, fiber.StatusBadRequest, "INVALID_INPUT"},
		{"POST", "/api/v1/cart/cancel", "", fiber.StatusConflict, "INVALID_STATE"},
		{"POST", "/api/v1/cart/finalize", `{"shippingAddress":"x","paymentReference":"` + validCard + `"}`, fiber.StatusConflict, "INVALID_STATE"},
	}
	for _, tc := range cases {
		status, body := call(t, app, tc.method, tc.path, "7", tc.body)
		if status != tc.status || body["code"] != tc.code {
			t.Fatalf("%s %s %s: expected %d %s, got %d %v", tc.method, tc.path, tc.body, tc.status, tc.code, status, body)
		}
	}
}

func TestCartRoutes_InsufficientStockDetails(t *testing.T) {
	app, _ := makeApp(t)
	status, body := call(t, app, "POST", "/api/v1/cart", "7", `{"productId":3,"quantity":5}`)
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	details, ok := body["details"].(map[string]any)
	if !ok {
		t.Fatalf("expected details, got %v", body)
	}
	if details["productName"] != "Smart Feeder" || details["requested"] != float64(5) || details["available"] != float64(3) {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestCheckoutFlow(t *testing.T) {
	app, store := makeApp(t)

	if status, _ := call(t, app, "POST", "/api/v1/cart", "42", `{"productId":2,"quantity":6}`); status != fiber.StatusOK {
		t.Fatalf("expected 200 for add, got %d", status)
	}

	status, body := call(t, app, "POST", "/api/v1/cart/finalize", "42", `{"shippingAddress":"","paymentReference":"`+validCard+`"}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for missing address, got %d %v", status, body)
	}

	status, order := call(t, app, "POST", "/api/v1/cart/finalize", "42", `{"shippingAddress":"1 Main St","paymentReference":"`+validCard+`"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201 for finalize, got %d %v", status, order)
	}
	if order["grandTotal"] != "1320.00" || order["paymentReference"] != "**** **** **** 1111" {
		t.Fatalf("unexpected order %v", order)
	}
	p, err := store.Products().GetByID(context.Background(), 2)
	if err != nil || p.Stock != 4 {
		t.Fatalf("expected stock 4 after checkout, got %v %v", p, err)
	}

	// cart is gone after checkout
	status, body = call(t, app, "GET", "/api/v1/cart", "42", "")
	if status != fiber.StatusOK || len(body["lines"].([]any)) != 0 {
		t.Fatalf("expected empty cart after checkout, got %d %v", status, body)
	}

	id := order["orderId"].(string)
	status, got := call(t, app, "GET", "/api/v1/orders/"+id, "42", "")
	if status != fiber.StatusOK || got["orderId"] != id {
		t.Fatalf("expected own order, got %d %v", status, got)
	}

	status, _ = call(t, app, "GET", "/api/v1/orders/"+id, "43", "")
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403 for foreign order, got %d", status)
	}
	status, _ = call(t, app, "GET", "/api/v1/orders/not-a-uuid", "42", "")
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", status)
	}
	status, _ = call(t, app, "GET", "/api/v1/orders/00000000-0000-0000-0000-000000000001", "42", "")
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown order, got %d", status)
	}

	req := httptest.NewRequest("GET", "/api/v1/orders", nil)
	req.Header.Set("X-User-ID", "42")
	res, err := app.Test(req)
	if err != nil || res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for order list, got %v %v", res, err)
	}
	var list []map[string]any
	if err := json.NewDecoder(res.Body).Decode(&list); err != nil || len(list) != 1 {
		t.Fatalf("expected one order, got %v %v", list, err)
	}
}

func TestCancelRoute(t *testing.T) {
	app, _ := makeApp(t)
	if status, _ := call(t, app, "POST", "/api/v1/cart", "5", `{"productId":1,"quantity":2}`); status != fiber.StatusOK {
		t.Fatalf("expected 200 for add, got %d", status)
	}
	status, _ := call(t, app, "POST", "/api/v1/cart/cancel", "5", "")
	if status != fiber.StatusNoContent {
		t.Fatalf("expected 204 for cancel, got %d", status)
	}
	status, body := call(t, app, "GET", "/api/v1/cart", "5", "")
	if status != fiber.StatusOK || len(body["lines"].([]any)) != 0 {
		t.Fatalf("expected empty cart after cancel, got %v", body)
	}
	if _, ok := body["cartId"]; ok {
		t.Fatalf("cancelled cart must not be reported as current: %v", body)
	}
}

func TestProductRoutes_Public(t *testing.T) {
	app, _ := makeApp(t)
	status, body := call(t, app, "GET", "/api/v1/product/2", "", "")
	if status != fiber.StatusOK || body["price"] != "200.00" || body["productName"] != "Pet Camera" {
		t.Fatalf("unexpected product %d %v", status, body)
	}
	status, _ = call(t, app, "GET", "/api/v1/product/99", "", "")
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	status, _ = call(t, app, "GET", "/api/v1/product/x", "", "")
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}
