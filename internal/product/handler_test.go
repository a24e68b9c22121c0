package product

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/shopspring/decimal"

	"github.com/abayahaven/marketplace-backend/internal/cache"
	"github.com/abayahaven/marketplace-backend/internal/upload"
	"github.com/abayahaven/marketplace-backend/internal/user"
)

type testEnv struct {
	app   *fiber.App
	repo  *InMemoryRepository
	dir   string
	cache *cache.InMemoryCache
}

func newTestEnv(t *testing.T, seed []Product) testEnv {
	t.Helper()
	dir := t.TempDir()
	repo := NewInMemoryRepository(seed)
	c := cache.NewInMemoryCache()
	h := NewHandler(NewService(repo, c, time.Minute), upload.NewStore(dir, 1<<20))

	app := fiber.New()
	h.RegisterPublicRoutes(app)
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				role := c.Get("X-User-Role")
				if role == "" {
					role = "user"
				}
				c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": id, "user_type": role}})
			}
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	h.RegisterAdminRoutes(app.Group("/api/admin", user.RequireAdmin))

	return testEnv{app: app, repo: repo, dir: dir, cache: c}
}

func multipartBody(t *testing.T, fields map[string]string, image string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if image != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+image+`"`)
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		part.Write([]byte("fake-png"))
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func send(t *testing.T, app *fiber.App, method, path string, body io.Reader, contentType string, userID string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(b)
}

func seedProducts() []Product {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []Product{
		{ID: 1, SellerID: 10, Name: "Black Abaya", Price: decimal.RequireFromString("4500.00"), StockQuantity: 5, ImageURL: "/uploads/black.png", CreatedAt: base},
		{ID: 2, SellerID: 10, Name: "Hijab Set", Price: decimal.RequireFromString("1200.00"), StockQuantity: 2, ImageURL: "/uploads/hijab.png", CreatedAt: base.Add(time.Hour)},
		{ID: 3, SellerID: 20, Name: "Kaftan", Price: decimal.RequireFromString("6000.00"), StockQuantity: 1, CreatedAt: base.Add(2 * time.Hour)},
	}
}

func TestListProducts_LimitAndCache(t *testing.T) {
	env := newTestEnv(t, seedProducts())

	status, body := send(t, env.app, "GET", "/api/products?limit=2", nil, "", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var got []Product
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].ID != 3 || got[1].ID != 2 {
		t.Fatalf("expected newest two products, got %+v", got)
	}

	var cached []Product
	if ok, _ := env.cache.Get(context.Background(), "products:list:2", &cached); !ok || len(cached) != 2 {
		t.Fatalf("expected listing to be cached, got ok=%v len=%d", ok, len(cached))
	}

	for _, bad := range []string{"0", "101", "abc", "-1"} {
		status, _ := send(t, env.app, "GET", "/api/products?limit="+bad, nil, "", "")
		if status != fiber.StatusBadRequest {
			t.Fatalf("expected 400 for limit=%s, got %d", bad, status)
		}
	}

	status, _ = send(t, env.app, "GET", "/api/products/99", nil, "", "")
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", status)
	}
}

func TestCreateProduct(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.cache.Set(ctx, "products:list:0", []Product{}, time.Minute)

	body, ct := multipartBody(t, map[string]string{"name": "Abaya", "price": "2500.50"}, "")
	status, _ := send(t, env.app, "POST", "/api/products", body, ct, "10")
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 without image, got %d", status)
	}

	body, ct = multipartBody(t, map[string]string{"name": "Abaya", "price": "-3"}, "a.png")
	status, _ = send(t, env.app, "POST", "/api/products", body, ct, "10")
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for negative price, got %d", status)
	}

	body, ct = multipartBody(t, map[string]string{"name": "Abaya", "price": "2500.50", "stock_quantity": "4", "category": "Abayas"}, "a.png")
	status, resp := send(t, env.app, "POST", "/api/products", body, ct, "10")
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", status, resp)
	}

	p, err := env.repo.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("product not stored: %v", err)
	}
	if p.SellerID != 10 || p.StockQuantity != 4 || !p.Price.Equal(decimal.RequireFromString("2500.5")) {
		t.Fatalf("unexpected product %+v", p)
	}
	if !strings.HasPrefix(p.ImageURL, "/uploads/image-") {
		t.Fatalf("unexpected image url %q", p.ImageURL)
	}
	if _, err := os.Stat(filepath.Join(env.dir, filepath.Base(p.ImageURL))); err != nil {
		t.Fatalf("image not written: %v", err)
	}

	var cached []Product
	if ok, _ := env.cache.Get(ctx, "products:list:0", &cached); ok {
		t.Fatalf("create should invalidate the product cache")
	}
}

func TestUpdateProduct_OwnerOnly(t *testing.T) {
	env := newTestEnv(t, seedProducts())
	old := filepath.Join(env.dir, "black.png")
	os.WriteFile(old, []byte("old"), 0o644)

	status, _ := send(t, env.app, "PUT", "/api/products/1", strings.NewReader(`{"name":"x"}`), "application/json", "20")
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", status)
	}

	status, _ = send(t, env.app, "PUT", "/api/products/42", strings.NewReader(`{"name":"x"}`), "application/json", "10")
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}

	status, body := send(t, env.app, "PUT", "/api/products/1", strings.NewReader(`{}`), "application/json", "10")
	if status != fiber.StatusBadRequest || !strings.Contains(body, "No fields to update") {
		t.Fatalf("expected 400 No fields to update, got %d: %s", status, body)
	}

	mp, ct := multipartBody(t, map[string]string{"price": "4999.99", "stock_quantity": "0"}, "new.png")
	status, body = send(t, env.app, "PUT", "/api/products/1", mp, ct, "10")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	p, _ := env.repo.GetByID(context.Background(), 1)
	if p.Name != "Black Abaya" || p.StockQuantity != 0 || !p.Price.Equal(decimal.RequireFromString("4999.99")) {
		t.Fatalf("patch not applied: %+v", p)
	}
	if p.ImageURL == "/uploads/black.png" {
		t.Fatalf("image url should be replaced")
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("old image should be removed, stat err=%v", err)
	}
}

func TestDeleteProduct(t *testing.T) {
	env := newTestEnv(t, seedProducts())
	env.repo.MarkOrdered(2)

	status, _ := send(t, env.app, "DELETE", "/api/products/1", nil, "", "20")
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}

	status, _ = send(t, env.app, "DELETE", "/api/products/2", nil, "", "10")
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409 for product with orders, got %d", status)
	}

	status, _ = send(t, env.app, "DELETE", "/api/products/1", nil, "", "10")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if _, err := env.repo.GetByID(context.Background(), 1); err != ErrNotFound {
		t.Fatalf("expected product to be gone, got %v", err)
	}
}

func TestMyProductsAndAdminRoutes(t *testing.T) {
	env := newTestEnv(t, seedProducts())
	env.repo.SetSeller(20, "noor", "noor@example.com")

	status, body := send(t, env.app, "GET", "/api/user/products", nil, "", "10")
	if status != fiber.StatusOK || strings.Contains(body, "Kaftan") || !strings.Contains(body, "Hijab Set") {
		t.Fatalf("unexpected seller listing %d: %s", status, body)
	}

	req := httptest.NewRequest("GET", "/api/admin/products", nil)
	req.Header.Set("X-User-ID", "1")
	res, _ := env.app.Test(req)
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", res.StatusCode)
	}

	req = httptest.NewRequest("GET", "/api/admin/products", nil)
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("X-User-Role", "admin")
	res, _ = env.app.Test(req)
	b, _ := io.ReadAll(res.Body)
	if res.StatusCode != fiber.StatusOK || !strings.Contains(string(b), "noor@example.com") {
		t.Fatalf("admin listing missing seller info %d: %s", res.StatusCode, b)
	}

	req = httptest.NewRequest("PUT", "/api/admin/products/3", strings.NewReader(`{"price":"0"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("X-User-Role", "admin")
	res, _ = env.app.Test(req)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for zero price, got %d", res.StatusCode)
	}

	req = httptest.NewRequest("PUT", "/api/admin/products/3", strings.NewReader(`{"stock_quantity":7,"category":"Kaftans"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("X-User-Role", "admin")
	res, _ = env.app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 on admin update, got %d", res.StatusCode)
	}
	p, _ := env.repo.GetByID(context.Background(), 3)
	if p.StockQuantity != 7 || p.Category != "Kaftans" {
		t.Fatalf("admin patch not applied: %+v", p)
	}

	req = httptest.NewRequest("DELETE", "/api/admin/products/3", nil)
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("X-User-Role", "admin")
	res, _ = env.app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 on admin delete, got %d", res.StatusCode)
	}
}
