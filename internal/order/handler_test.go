package order

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/abayahaven/marketplace-backend/internal/payment"
	"github.com/abayahaven/marketplace-backend/internal/user"
)

func makeApp(h *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		v := c.Get("X-User-ID")
		if v == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "No token, authorization denied"})
		}
		id, _ := strconv.Atoi(v)
		role := c.Get("X-User-Role")
		if role == "" {
			role = "user"
		}
		c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{
			"user_id":   float64(id),
			"user_type": role,
			"username":  "amina",
			"email":     "amina@example.com",
		}})
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	h.RegisterAdminRoutes(app.Group("/api/admin", user.RequireAdmin))
	return app
}

func send(t *testing.T, app *fiber.App, method, path, body string, userID int, role string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("X-User-ID", strconv.Itoa(userID))
	if role != "" {
		req.Header.Set("X-User-Role", role)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	raw, _ := io.ReadAll(res.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return res.StatusCode, out
}

const checkoutBody = `{
	"cartItems": [{"productId": 10, "quantity": 2}],
	"newAddressDetails": {"fullName": "Amina K", "addressLine": "12 Mall Road", "city": "Lahore", "country": "Pakistan"},
	"paymentMethod": "Cash on Delivery"
}`

func TestRoutesRegistered(t *testing.T) {
	f := newFixture()
	app := makeApp(NewHandler(f.svc))

	expected := map[string]bool{
		"POST /api/checkout":                         false,
		"POST /api/create-payment-intent":            false,
		"GET /api/user/orders/placed":                false,
		"GET /api/user/orders/received":              false,
		"PUT /api/orders/:orderId/ship":              false,
		"PUT /api/orders/:orderId/cancel":            false,
		"PUT /api/payments/:paymentId/mark-received": false,
		"GET /api/admin/orders":                      false,
		"PUT /api/admin/orders/:id":                  false,
		"DELETE /api/admin/orders/:id":               false,
	}
	for _, routes := range app.Stack() {
		for _, r := range routes {
			key := r.Method + " " + r.Path
			if _, ok := expected[key]; ok {
				expected[key] = true
			}
		}
	}
	for k, found := range expected {
		if !found {
			t.Errorf("route %s not registered", k)
		}
	}
}

func TestCheckoutHandler(t *testing.T) {
	f := newFixture()
	app := makeApp(NewHandler(f.svc))

	status, body := send(t, app, "POST", "/api/checkout", checkoutBody, buyerID, "")
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", status, body)
	}
	if body["success"] != true || body["message"] != "Order placed successfully!" {
		t.Fatalf("unexpected body %v", body)
	}
	if body["order_id"] != float64(1) || body["payment_status"] != "pending" {
		t.Fatalf("unexpected receipt %v", body)
	}
	if f.notifier.orders[0].BuyerEmail != "amina@example.com" {
		t.Fatalf("notice should carry the buyer email, got %q", f.notifier.orders[0].BuyerEmail)
	}

	tooMany := strings.Replace(checkoutBody, `"quantity": 2`, `"quantity": 9`, 1)
	status, body = send(t, app, "POST", "/api/checkout", tooMany, buyerID, "")
	if status != fiber.StatusBadRequest || !strings.Contains(body["message"].(string), "Insufficient stock for Black Abaya") {
		t.Fatalf("expected 400 insufficient stock, got %d %v", status, body)
	}

	status, _ = send(t, app, "POST", "/api/checkout", `{"cartItems": [], "paymentMethod": "cod"}`, buyerID, "")
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %d", status)
	}

	unknown := strings.Replace(checkoutBody, `"productId": 10`, `"productId": 77`, 1)
	status, _ = send(t, app, "POST", "/api/checkout", unknown, buyerID, "")
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", status)
	}
}

func TestCreatePaymentIntentHandler(t *testing.T) {
	f := newFixture()
	app := makeApp(NewHandler(f.svc))

	status, body := send(t, app, "POST", "/api/create-payment-intent", "", buyerID, "")
	if status != fiber.StatusBadRequest || body["message"] != "Cart is empty. Cannot proceed with checkout." {
		t.Fatalf("expected 400 for empty cart, got %d %v", status, body)
	}

	f.store.SetCart(buyerID, Line{ProductID: abayaID, Quantity: 2})
	status, body = send(t, app, "POST", "/api/create-payment-intent", "", buyerID, "")
	if status != fiber.StatusOK || body["clientSecret"] == "" || body["totalAmount"] != "225" {
		t.Fatalf("unexpected intent reply %d %v", status, body)
	}

	offline := makeApp(NewHandler(NewService(f.store, payment.Unavailable{}, f.notifier, f.catalog, testCurrency)))
	status, _ = send(t, offline, "POST", "/api/create-payment-intent", "", buyerID, "")
	if status != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503 without provider, got %d", status)
	}
}

func TestLifecycleHandlers(t *testing.T) {
	f := newFixture()
	app := makeApp(NewHandler(f.svc))
	if status, _ := send(t, app, "POST", "/api/checkout", checkoutBody, buyerID, ""); status != fiber.StatusCreated {
		t.Fatalf("checkout failed: %d", status)
	}

	status, _ := send(t, app, "PUT", "/api/orders/1/ship", "", otherSeller, "")
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404 for foreign seller, got %d", status)
	}

	status, body := send(t, app, "PUT", "/api/payments/1/mark-received", "", otherSeller, "")
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d %v", status, body)
	}
	status, body = send(t, app, "PUT", "/api/payments/1/mark-received", "", sellerID, "")
	if status != fiber.StatusOK || body["message"] != "Payment for Order #1 marked as received." {
		t.Fatalf("unexpected mark-received reply %d %v", status, body)
	}

	status, body = send(t, app, "PUT", "/api/orders/1/ship", "", sellerID, "")
	if status != fiber.StatusOK || body["message"] != "Order #1 marked as shipped." {
		t.Fatalf("unexpected ship reply %d %v", status, body)
	}

	status, body = send(t, app, "PUT", "/api/orders/1/cancel", "", buyerID, "")
	if status != fiber.StatusBadRequest || body["message"] != "Order is already shipped. Cannot cancel." {
		t.Fatalf("expected 400 cancelling shipped order, got %d %v", status, body)
	}
}

func TestCancelHandler(t *testing.T) {
	f := newFixture()
	app := makeApp(NewHandler(f.svc))
	send(t, app, "POST", "/api/checkout", checkoutBody, buyerID, "")

	status, _ := send(t, app, "PUT", "/api/orders/1/cancel", "", sellerID, "")
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404 for non-owner, got %d", status)
	}

	status, body := send(t, app, "PUT", "/api/orders/1/cancel", "", buyerID, "")
	if status != fiber.StatusOK || body["newPaymentStatus"] != "cancelled" {
		t.Fatalf("unexpected cancel reply %d %v", status, body)
	}
	if f.store.Stock(abayaID) != 5 {
		t.Fatalf("stock should be restored, got %d", f.store.Stock(abayaID))
	}
}

func TestAdminOrderHandlers(t *testing.T) {
	f := newFixture()
	app := makeApp(NewHandler(f.svc))
	send(t, app, "POST", "/api/checkout", checkoutBody, buyerID, "")

	status, _ := send(t, app, "GET", "/api/admin/orders", "", buyerID, "")
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", status)
	}

	req := httptest.NewRequest("GET", "/api/admin/orders", nil)
	req.Header.Set("X-User-ID", "99")
	req.Header.Set("X-User-Role", "admin")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var orders []AdminOrder
	if err := json.NewDecoder(res.Body).Decode(&orders); err != nil {
		t.Fatalf("decode orders: %v", err)
	}
	if len(orders) != 1 || orders[0].BuyerUsername != "amina" || len(orders[0].Items) != 1 {
		t.Fatalf("unexpected admin orders %+v", orders)
	}

	status, _ = send(t, app, "PUT", "/api/admin/orders/1", `{}`, 99, "admin")
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for empty patch, got %d", status)
	}
	status, body := send(t, app, "PUT", "/api/admin/orders/1", `{"shipping_status":"teleported"}`, 99, "admin")
	if status != fiber.StatusBadRequest || body["message"] != "Invalid shipping status: teleported." {
		t.Fatalf("expected 400 for invalid status, got %d %v", status, body)
	}
	status, _ = send(t, app, "PUT", "/api/admin/orders/42", `{"shipping_status":"delivered"}`, 99, "admin")
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown order, got %d", status)
	}
	status, _ = send(t, app, "PUT", "/api/admin/orders/1", `{"payment_status":"refunded"}`, 99, "admin")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	status, _ = send(t, app, "DELETE", "/api/admin/orders/1", "", 99, "admin")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 deleting order, got %d", status)
	}
	status, _ = send(t, app, "DELETE", "/api/admin/orders/1", "", 99, "admin")
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404 deleting twice, got %d", status)
	}
}
